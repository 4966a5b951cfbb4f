package strategy

import (
	"context"
	"fmt"
	"math"

	"fourup/game"
	"fourup/orchestrator"
)

const (
	terminalWin = 100000.0
	// windowScores values a 4-cell window by how many of our discs it holds
	// with the rest empty.
	maxDepthCap = 10
)

var windowScores = [4]float64{0, 1, 10, 50}

// Minimax is the tier-3 strategy: negamax with alpha-beta pruning and
// iterative deepening under the context deadline. Search depth scales with
// the requested difficulty.
type Minimax struct {
	MaxDepth int
}

func NewMinimax() *Minimax {
	return &Minimax{MaxDepth: 8}
}

func (m *Minimax) Invoke(ctx context.Context, p game.Position, actor game.Side, difficulty int) (orchestrator.Suggestion, error) {
	legal := game.LegalColumns(p)
	if len(legal) == 0 {
		return orchestrator.Suggestion{}, fmt.Errorf("no legal columns")
	}

	target := 4 + difficulty/25 // 4..8 over the 0-100 range
	if m.MaxDepth > 0 && target > m.MaxDepth {
		target = m.MaxDepth
	}
	if target > maxDepthCap {
		target = maxDepthCap
	}

	bestCol := -1
	bestScore := 0.0
	completed := 0
	for depth := 2; depth <= target; depth++ {
		col, score, err := m.searchRoot(ctx, p, actor, legal, depth)
		if err != nil { // Deadline mid-depth: keep the last completed answer
			break
		}
		bestCol, bestScore = col, score
		completed = depth
		if score >= terminalWin { // Forced win found, no point going deeper
			break
		}
	}
	if completed == 0 {
		return orchestrator.Suggestion{}, fmt.Errorf("minimax: %w", ctx.Err())
	}

	confidence := 0.6 + 0.35*math.Tanh(bestScore/100)
	if bestScore >= terminalWin {
		confidence = 0.98
	}
	if confidence < 0.2 {
		confidence = 0.2
	}
	return orchestrator.Suggestion{
		Column:      bestCol,
		Confidence:  confidence,
		Explanation: fmt.Sprintf("depth-%d search", completed),
	}, nil
}

func (m *Minimax) SelfCheck(ctx context.Context) error {
	_, err := m.Invoke(ctx, game.NewPosition(), game.Red, 0)
	return err
}

func (m *Minimax) searchRoot(ctx context.Context, p game.Position, actor game.Side, legal []int, depth int) (int, float64, error) {
	bestCol := legal[0]
	bestScore := math.Inf(-1)
	alpha, beta := math.Inf(-1), math.Inf(1)

	for _, col := range orderColumns(legal) {
		next, row, err := game.SimulateDrop(p, col, actor)
		if err != nil {
			return 0, 0, err
		}
		var score float64
		if game.CheckWin(next, row, col, actor) {
			score = terminalWin
		} else {
			score, err = m.negamax(ctx, next, game.Opponent(actor), depth-1, -beta, -alpha)
			if err != nil {
				return 0, 0, err
			}
			score = -score
		}
		if score > bestScore || (score == bestScore && centerDistance(col) < centerDistance(bestCol)) {
			bestScore, bestCol = score, col
		}
		if score > alpha {
			alpha = score
		}
	}
	return bestCol, bestScore, nil
}

func (m *Minimax) negamax(ctx context.Context, p game.Position, side game.Side, depth int, alpha, beta float64) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	legal := game.LegalColumns(p)
	if len(legal) == 0 {
		return 0, nil // Draw
	}
	if depth == 0 {
		return evaluate(p, side), nil
	}

	best := math.Inf(-1)
	for _, col := range orderColumns(legal) {
		next, row, err := game.SimulateDrop(p, col, side)
		if err != nil {
			return 0, err
		}
		var score float64
		if game.CheckWin(next, row, col, side) {
			// Wins closer to the root count more
			score = terminalWin + float64(depth)
		} else {
			score, err = m.negamax(ctx, next, game.Opponent(side), depth-1, -beta, -alpha)
			if err != nil {
				return 0, err
			}
			score = -score
		}
		if score > best {
			best = score
		}
		if best > alpha {
			alpha = best
		}
		if alpha >= beta {
			break
		}
	}
	return best, nil
}

// evaluate scores every 4-cell window from side's perspective, plus a small
// center-column bonus.
func evaluate(p game.Position, side game.Side) float64 {
	opponent := game.Opponent(side)
	score := 0.0

	dirs := [4][2]int{{0, 1}, {1, 0}, {1, 1}, {1, -1}}
	for r := 0; r < game.Rows; r++ {
		for c := 0; c < game.Columns; c++ {
			for _, d := range dirs {
				endR, endC := r+3*d[0], c+3*d[1]
				if endR < 0 || endR >= game.Rows || endC < 0 || endC >= game.Columns {
					continue
				}
				mine, theirs := 0, 0
				for i := 0; i < 4; i++ {
					switch p.Cell(r+i*d[0], c+i*d[1]) {
					case side:
						mine++
					case opponent:
						theirs++
					}
				}
				if theirs == 0 {
					score += windowScores[mine]
				} else if mine == 0 {
					score -= windowScores[theirs]
				}
			}
		}
	}

	center := game.Columns / 2
	for r := 0; r < game.Rows; r++ {
		switch p.Cell(r, center) {
		case side:
			score += 3
		case opponent:
			score -= 3
		}
	}
	return score
}

// orderColumns searches center-out, which tightens alpha-beta windows early.
func orderColumns(legal []int) []int {
	ordered := make([]int, len(legal))
	copy(ordered, legal)
	for i := 1; i < len(ordered); i++ {
		for j := i; j > 0 && centerDistance(ordered[j]) < centerDistance(ordered[j-1]); j-- {
			ordered[j], ordered[j-1] = ordered[j-1], ordered[j]
		}
	}
	return ordered
}
