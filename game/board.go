package game

import "fmt"

const (
	Columns = 7
	Rows    = 6
)

type Cell int8

const (
	Empty Cell = iota
	Red
	Yellow
)

// Side identifies a player by disc color.
type Side = Cell

// Position is the immutable board state: cell grid plus side to move.
// Row 0 is the bottom row. Operations on Position always return a new copy.
type Position struct {
	cells [Rows][Columns]Cell
	turn  Side
}

func NewPosition() Position {
	return Position{turn: Red}
}

// NewPositionFromRows builds a position from top-to-bottom row strings using
// '.', 'R' and 'Y'. Intended for tests and tooling.
func NewPositionFromRows(turn Side, rows ...string) (Position, error) {
	if len(rows) != Rows {
		return Position{}, fmt.Errorf("want %d rows, got %d", Rows, len(rows))
	}
	p := Position{turn: turn}
	for i, row := range rows {
		if len(row) != Columns {
			return Position{}, fmt.Errorf("row %d: want %d cells, got %d", i, Columns, len(row))
		}
		for col, ch := range row {
			r := Rows - 1 - i // Rows are given top first
			switch ch {
			case '.':
				p.cells[r][col] = Empty
			case 'R':
				p.cells[r][col] = Red
			case 'Y':
				p.cells[r][col] = Yellow
			default:
				return Position{}, fmt.Errorf("row %d col %d: unknown cell %q", i, col, ch)
			}
		}
	}
	return p, nil
}

func (p Position) Cell(row, col int) Cell {
	return p.cells[row][col]
}

func (p Position) Turn() Side {
	return p.turn
}

// Pieces counts discs on the board.
func (p Position) Pieces() int {
	n := 0
	for r := 0; r < Rows; r++ {
		for c := 0; c < Columns; c++ {
			if p.cells[r][c] != Empty {
				n++
			}
		}
	}
	return n
}

func Opponent(s Side) Side {
	if s == Red {
		return Yellow
	}
	return Red
}

func (s Cell) String() string {
	switch s {
	case Red:
		return "red"
	case Yellow:
		return "yellow"
	default:
		return "empty"
	}
}
