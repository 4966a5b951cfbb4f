package strategy

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fourup/game"
)

func TestMCTSFindsImmediateWin(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	sug, err := NewMCTS().Invoke(ctx, redWinsAtThree(), game.Red, 50)
	require.NoError(t, err)
	require.Equal(t, 3, sug.Column, "the winning branch dominates the playouts")
	require.Greater(t, sug.Confidence, 0.0)
	require.LessOrEqual(t, sug.Confidence, 1.0)
}

func TestMCTSSuggestsLegalColumn(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	p := redMustBlock()
	sug, err := NewMCTS(WithGoroutines(2)).Invoke(ctx, p, game.Red, 50)
	require.NoError(t, err)
	require.Contains(t, game.LegalColumns(p), sug.Column)
}

func TestMCTSRejectsWrongTurn(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := NewMCTS().Invoke(ctx, game.NewPosition(), game.Yellow, 50)
	require.Error(t, err, "red to move, yellow may not ask")
}

func TestMCTSExpiredContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMCTS().Invoke(ctx, game.NewPosition(), game.Red, 50)
	require.Error(t, err, "no playouts complete under a cancelled context")
}

func TestSimulateAccountsVisits(t *testing.T) {
	p := game.NewPosition()
	root := newNode(nil, game.Yellow, game.Empty, -1, p)

	const episodes = 50
	for i := 0; i < episodes; i++ {
		simulate(root, p)
	}

	require.EqualValues(t, episodes, root.visitCount())

	best, share := root.bestChild()
	require.NotNil(t, best)
	require.Greater(t, share, 0.0)
	require.LessOrEqual(t, share, 1.0)
	require.Contains(t, game.LegalColumns(p), best.column)
}

func TestNodeTerminalIsNeverExpanded(t *testing.T) {
	p := game.NewPosition()
	won := newNode(nil, game.Red, game.Red, 3, p)
	require.Empty(t, won.unexplored, "a won node has no moves to explore")

	self, _, added := won.selectOrExpand(p)
	require.Same(t, won, self)
	require.False(t, added)
}

func TestNodeBackupReversesVirtualLoss(t *testing.T) {
	p := game.NewPosition()
	root := newNode(nil, game.Yellow, game.Empty, -1, p)

	child, _, added := root.selectOrExpand(p)
	require.True(t, added)
	require.EqualValues(t, 1, child.visitCount(), "expansion charges a virtual loss")

	parent := child.backup(rewarder(game.Red))
	require.Same(t, root, parent)
	require.EqualValues(t, 1, child.visitCount(), "backup replaces the loss with the real outcome")
	child.RLock()
	require.InDelta(t, win, child.rewards, 1e-9, "the red mover collects the red win")
	child.RUnlock()

	require.Nil(t, root.backup(rewarder(game.Red)))
	require.EqualValues(t, 1, root.visitCount())
}
