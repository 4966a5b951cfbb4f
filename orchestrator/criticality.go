package orchestrator

import (
	"fmt"

	"fourup/game"
)

// Criticality factor weights. Fixed convex combination: weights sum to 1.
const (
	weightWinningThreat  = 0.30
	weightLosingThreat   = 0.30
	weightStrategic      = 0.15
	weightGamePhase      = 0.10
	weightMoveComplexity = 0.15
)

// threatBase scores a single open-ended three-in-a-row; forkBonus rewards
// each simultaneous extra threat up to forkCap.
const (
	threatBase = 0.6
	forkBonus  = 0.2
	forkCap    = 1.0
)

// centerWeights rewards central occupation; strategicMax is the fixed
// normalizer for the strategic factor.
var centerWeights = [game.Columns]float64{1, 2, 3, 4, 3, 2, 1}

const strategicMax = 16.0

type CriticalityFactors struct {
	WinningThreat       float64
	LosingThreat        float64
	StrategicImportance float64
	GamePhase           float64
	MoveComplexity      float64
}

// Criticality scores how urgent and complex a position is, in [0,1].
// Derived per request, never persisted.
type Criticality struct {
	Value   float64
	Factors CriticalityFactors
}

// ScoreCriticality is a pure function of the position: one-ply lookahead per
// open column for both sides, plus positional factors. A forced win or loss
// short-circuits to 1.0.
func ScoreCriticality(p game.Position, actor game.Side) (Criticality, error) {
	legal := game.LegalColumns(p)
	if len(legal) == 0 {
		return Criticality{}, fmt.Errorf("%w: board is full", ErrNoLegalMoves)
	}

	winning, err := threatScore(p, legal, actor)
	if err != nil {
		return Criticality{}, err
	}
	if winning >= 1.0 { // Forced win dominates everything else
		return Criticality{Value: 1.0, Factors: CriticalityFactors{WinningThreat: 1.0}}, nil
	}

	losing, err := threatScore(p, legal, game.Opponent(actor))
	if err != nil {
		return Criticality{}, err
	}
	if losing >= 1.0 { // Forced loss unless blocked
		return Criticality{Value: 1.0, Factors: CriticalityFactors{WinningThreat: winning, LosingThreat: 1.0}}, nil
	}

	factors := CriticalityFactors{
		WinningThreat:       winning,
		LosingThreat:        losing,
		StrategicImportance: strategicScore(p, actor),
		GamePhase:           phaseScore(p),
		MoveComplexity:      complexityScore(p, legal),
	}

	value := weightWinningThreat*factors.WinningThreat +
		weightLosingThreat*factors.LosingThreat +
		weightStrategic*factors.StrategicImportance +
		weightGamePhase*factors.GamePhase +
		weightMoveComplexity*factors.MoveComplexity

	return Criticality{Value: clamp01(value), Factors: factors}, nil
}

// threatScore returns 1.0 when side wins immediately in some column,
// otherwise the max over columns of the graded threat heuristic.
func threatScore(p game.Position, legal []int, side game.Side) (float64, error) {
	best := 0.0
	for _, col := range legal {
		next, row, err := game.SimulateDrop(p, col, side)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrPositionInvalid, err)
		}
		if game.CheckWin(next, row, col, side) {
			return 1.0, nil
		}
		if t := gradedThreat(next, row, col, side); t > best {
			best = t
		}
	}
	return best, nil
}

// gradedThreat rewards three-in-a-row patterns with an open end created by a
// drop at (row, col). Multiple simultaneous threats earn a capped fork bonus.
func gradedThreat(p game.Position, row, col int, side game.Side) float64 {
	dirs := [4][2]int{{0, 1}, {1, 0}, {1, 1}, {1, -1}}
	threats := 0
	for _, d := range dirs {
		length := 1
		open := 0
		for _, sign := range []int{1, -1} {
			run, beyond := runAndBeyond(p, row, col, sign*d[0], sign*d[1], side)
			length += run
			if beyond {
				open++
			}
		}
		if length >= 3 && open > 0 {
			threats++
		}
	}
	if threats == 0 {
		return 0
	}
	score := threatBase + forkBonus*float64(threats-1)
	if score > forkCap {
		score = forkCap
	}
	return score
}

// runAndBeyond counts side's discs in one direction and reports whether the
// cell past the run is empty (an open end).
func runAndBeyond(p game.Position, row, col, dr, dc int, side game.Side) (int, bool) {
	n := 0
	r, c := row+dr, col+dc
	for r >= 0 && r < game.Rows && c >= 0 && c < game.Columns && p.Cell(r, c) == side {
		n++
		r += dr
		c += dc
	}
	open := r >= 0 && r < game.Rows && c >= 0 && c < game.Columns && p.Cell(r, c) == game.Empty
	return n, open
}

func strategicScore(p game.Position, actor game.Side) float64 {
	total := 0.0
	for r := 0; r < game.Rows; r++ {
		for c := 0; c < game.Columns; c++ {
			if p.Cell(r, c) == actor {
				total += centerWeights[c]
			}
		}
	}
	return clamp01(total / strategicMax)
}

// phaseScore is a step function over total pieces placed.
func phaseScore(p game.Position) float64 {
	switch pieces := p.Pieces(); {
	case pieces < 8:
		return 0.25 // opening
	case pieces < 24:
		return 0.55 // midgame
	case pieces < 36:
		return 0.80 // late
	default:
		return 1.0 // endgame
	}
}

// complexityScore blends the fraction of open columns with local
// piece-adjacency density.
func complexityScore(p game.Position, legal []int) float64 {
	openFraction := float64(len(legal)) / float64(game.Columns)

	pairs := 0
	occupied := 0
	for r := 0; r < game.Rows; r++ {
		for c := 0; c < game.Columns; c++ {
			if p.Cell(r, c) == game.Empty {
				continue
			}
			occupied++
			if c+1 < game.Columns && p.Cell(r, c+1) != game.Empty {
				pairs++
			}
			if r+1 < game.Rows && p.Cell(r+1, c) != game.Empty {
				pairs++
			}
		}
	}
	density := 0.0
	if occupied > 0 {
		// Each disc has at most 2 counted neighbors (right and up)
		density = float64(pairs) / float64(2*occupied)
	}

	return clamp01(0.5*openFraction + 0.5*density)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
