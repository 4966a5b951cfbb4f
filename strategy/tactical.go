package strategy

import (
	"context"
	"fmt"

	"fourup/game"
	"fourup/orchestrator"
)

// Tactical move scores. Win dominates block, block dominates everything
// else; handing the opponent a win on top of our disc is heavily penalized.
const (
	winScore      = 1000.0
	blockScore    = 500.0
	giftPenalty   = -800.0
	threatScore   = 100.0
	centerPerDisc = 10.0
)

var columnWeights = [game.Columns]float64{1, 2, 3, 4, 3, 2, 1}

// Tactical is the tier-2 strategy: a one-ply threat table over every legal
// column. Cheap, deterministic, order-sensitive.
type Tactical struct{}

func NewTactical() *Tactical {
	return &Tactical{}
}

func (t *Tactical) Invoke(_ context.Context, p game.Position, actor game.Side, _ int) (orchestrator.Suggestion, error) {
	legal := game.LegalColumns(p)
	if len(legal) == 0 {
		return orchestrator.Suggestion{}, fmt.Errorf("no legal columns")
	}

	opponent := game.Opponent(actor)
	blockCol := game.WinningColumn(p, opponent)

	bestCol, bestScore, secondScore := -1, 0.0, 0.0
	bestReason := ""
	for _, col := range legal {
		next, row, err := game.SimulateDrop(p, col, actor)
		if err != nil {
			return orchestrator.Suggestion{}, err
		}

		score := columnWeights[col] * centerPerDisc
		reason := "positional"
		switch {
		case game.CheckWin(next, row, col, actor):
			score += winScore
			reason = "immediate win"
		case col == blockCol:
			score += blockScore
			reason = "blocks opponent win"
		default:
			if n := openThreats(next, row, col, actor); n > 0 {
				score += threatScore * float64(n)
				reason = fmt.Sprintf("creates %d threat(s)", n)
			}
			// Does our disc give the opponent a win right on top?
			if after, aboveRow, err := game.SimulateDrop(next, col, opponent); err == nil {
				if game.CheckWin(after, aboveRow, col, opponent) {
					score += giftPenalty
					reason = "avoid: gifts opponent a win"
				}
			}
		}

		if bestCol < 0 || score > bestScore ||
			(score == bestScore && centerDistance(col) < centerDistance(bestCol)) {
			secondScore = bestScore
			bestScore = score
			bestCol = col
			bestReason = reason
		} else if score > secondScore {
			secondScore = score
		}
	}

	var confidence float64
	switch bestReason {
	case "immediate win":
		confidence = 0.98
	case "blocks opponent win":
		confidence = 0.92
	default:
		confidence = 0.5 + (bestScore-secondScore)/(2*winScore)
		if confidence > 0.85 {
			confidence = 0.85
		}
		if confidence < 0.2 {
			confidence = 0.2
		}
	}
	return orchestrator.Suggestion{Column: bestCol, Confidence: confidence, Explanation: bestReason}, nil
}

func (t *Tactical) SelfCheck(ctx context.Context) error {
	_, err := t.Invoke(ctx, game.NewPosition(), game.Red, 50)
	return err
}

// openThreats counts directions where the drop at (row, col) made a run of
// three or more with an open end.
func openThreats(p game.Position, row, col int, side game.Side) int {
	dirs := [4][2]int{{0, 1}, {1, 0}, {1, 1}, {1, -1}}
	threats := 0
	for _, d := range dirs {
		length := 1
		open := false
		for _, sign := range []int{1, -1} {
			r, c := row+sign*d[0], col+sign*d[1]
			for r >= 0 && r < game.Rows && c >= 0 && c < game.Columns && p.Cell(r, c) == side {
				length++
				r += sign * d[0]
				c += sign * d[1]
			}
			if r >= 0 && r < game.Rows && c >= 0 && c < game.Columns && p.Cell(r, c) == game.Empty {
				open = true
			}
		}
		if length >= 3 && open {
			threats++
		}
	}
	return threats
}
