package strategy

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fourup/game"
)

func TestMinimaxTakesImmediateWin(t *testing.T) {
	sug, err := NewMinimax().Invoke(context.Background(), redWinsAtThree(), game.Red, 50)
	require.NoError(t, err)
	require.Equal(t, 3, sug.Column)
	require.InDelta(t, 0.98, sug.Confidence, 1e-9, "a forced win is reported near-certain")
}

func TestMinimaxBlocksOpponentWin(t *testing.T) {
	sug, err := NewMinimax().Invoke(context.Background(), redMustBlock(), game.Red, 50)
	require.NoError(t, err)
	require.Equal(t, 3, sug.Column, "every non-blocking line loses next ply")
}

func TestMinimaxDepthScalesWithDifficulty(t *testing.T) {
	m := NewMinimax()

	sug, err := m.Invoke(context.Background(), game.NewPosition(), game.Red, 0)
	require.NoError(t, err)
	require.Equal(t, "depth-4 search", sug.Explanation)

	sug, err = m.Invoke(context.Background(), game.NewPosition(), game.Red, 100)
	require.NoError(t, err)
	require.Equal(t, "depth-8 search", sug.Explanation)
}

func TestMinimaxKeepsLastCompletedDepth(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	sug, err := NewMinimax().Invoke(ctx, game.NewPosition(), game.Red, 100)
	require.NoError(t, err, "an interrupted deepening run keeps its last finished depth")
	require.Contains(t, game.LegalColumns(game.NewPosition()), sug.Column)
}

func TestMinimaxExpiredContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMinimax().Invoke(ctx, game.NewPosition(), game.Red, 50)
	require.Error(t, err, "no depth completes under an already expired deadline")
}

func TestOrderColumnsCenterOut(t *testing.T) {
	ordered := orderColumns([]int{0, 1, 2, 3, 4, 5, 6})
	require.Equal(t, 3, ordered[0])
	require.Len(t, ordered, 7)
	for i := 1; i < len(ordered); i++ {
		require.GreaterOrEqual(t, centerDistance(ordered[i]), centerDistance(ordered[i-1]))
	}
}
