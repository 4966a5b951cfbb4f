// Package strategy provides the built-in move-generation components, one per
// quality tier: a guaranteed floor, a one-ply tactical scorer, alpha-beta
// minimax, and parallel MCTS.
package strategy

import (
	"context"
	"fmt"

	"fourup/game"
	"fourup/orchestrator"
)

// Floor is the tier-1 guaranteed strategy: pure arithmetic over one-ply
// lookahead, bounded and never failing on a playable position.
type Floor struct{}

func NewFloor() *Floor {
	return &Floor{}
}

func (f *Floor) Invoke(_ context.Context, p game.Position, actor game.Side, _ int) (orchestrator.Suggestion, error) {
	legal := game.LegalColumns(p)
	if len(legal) == 0 {
		return orchestrator.Suggestion{}, fmt.Errorf("no legal columns")
	}

	if col := game.WinningColumn(p, actor); col >= 0 {
		return orchestrator.Suggestion{Column: col, Confidence: 0.95, Explanation: "immediate win"}, nil
	}
	if col := game.WinningColumn(p, game.Opponent(actor)); col >= 0 {
		return orchestrator.Suggestion{Column: col, Confidence: 0.9, Explanation: "blocks opponent win"}, nil
	}

	best := legal[0]
	for _, col := range legal[1:] {
		if centerDistance(col) < centerDistance(best) {
			best = col
		}
	}
	return orchestrator.Suggestion{Column: best, Confidence: 0.3, Explanation: "center preference"}, nil
}

func (f *Floor) SelfCheck(ctx context.Context) error {
	_, err := f.Invoke(ctx, game.NewPosition(), game.Red, 50)
	return err
}

func centerDistance(col int) int {
	d := col - game.Columns/2
	if d < 0 {
		return -d
	}
	return d
}
