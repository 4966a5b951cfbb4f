package strategy

import (
	"fourup/game"
)

func mustPosition(turn game.Side, rows ...string) game.Position {
	p, err := game.NewPositionFromRows(turn, rows...)
	if err != nil {
		panic(err)
	}
	return p
}

// redWinsAtThree: red completes four in the bottom row by playing column 3.
func redWinsAtThree() game.Position {
	return mustPosition(game.Red,
		".......",
		".......",
		".......",
		".......",
		"YYY....",
		"RRR....",
	)
}

// redMustBlock: yellow completes four at column 3 on its next turn; red has
// no win of its own.
func redMustBlock() game.Position {
	return mustPosition(game.Red,
		".......",
		".......",
		".......",
		".......",
		"....RR.",
		"R...YYY",
	)
}

// giftTraps: yellow holds three in a row on row 1 at columns 1-3. A red drop
// into column 0 or 4 lets yellow land on top of it and win.
func giftTraps() game.Position {
	return mustPosition(game.Red,
		".......",
		".......",
		".......",
		".......",
		".YYY..R",
		".RYR..R",
	)
}
