package game

import "fmt"

var (
	ErrColumnOutOfRange = fmt.Errorf("column out of range")
	ErrColumnFull       = fmt.Errorf("column is full")
)

// LegalColumns lists the columns that can still accept a disc, left to right.
// An empty result means the position is terminal (board full).
func LegalColumns(p Position) []int {
	cols := make([]int, 0, Columns)
	for c := 0; c < Columns; c++ {
		if p.cells[Rows-1][c] == Empty {
			cols = append(cols, c)
		}
	}
	return cols
}

// SimulateDrop plays side's disc into column and returns the resulting
// position and the row the disc landed in. The receiver is never mutated.
func SimulateDrop(p Position, column int, side Side) (Position, int, error) {
	if column < 0 || column >= Columns {
		return Position{}, -1, fmt.Errorf("%w: %d", ErrColumnOutOfRange, column)
	}
	for r := 0; r < Rows; r++ {
		if p.cells[r][column] == Empty {
			next := p
			next.cells[r][column] = side
			next.turn = Opponent(side)
			return next, r, nil
		}
	}
	return Position{}, -1, fmt.Errorf("%w: %d", ErrColumnFull, column)
}

// CheckWin reports whether side has four in a row through (row, column).
// Only lines through the given cell are examined.
func CheckWin(p Position, row, column int, side Side) bool {
	dirs := [4][2]int{
		{0, 1},  // horizontal
		{1, 0},  // vertical
		{1, 1},  // diagonal up-right
		{1, -1}, // diagonal up-left
	}
	for _, d := range dirs {
		count := 1
		count += countRun(p, row, column, d[0], d[1], side)
		count += countRun(p, row, column, -d[0], -d[1], side)
		if count >= 4 {
			return true
		}
	}
	return false
}

func countRun(p Position, row, col, dr, dc int, side Side) int {
	n := 0
	r, c := row+dr, col+dc
	for r >= 0 && r < Rows && c >= 0 && c < Columns && p.cells[r][c] == side {
		n++
		r += dr
		c += dc
	}
	return n
}

// WinningColumn returns the column where side wins immediately, or -1.
func WinningColumn(p Position, side Side) int {
	for _, col := range LegalColumns(p) {
		next, row, err := SimulateDrop(p, col, side)
		if err != nil {
			continue
		}
		if CheckWin(next, row, col, side) {
			return col
		}
	}
	return -1
}
