package strategy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"fourup/game"
)

func TestTacticalTakesImmediateWin(t *testing.T) {
	sug, err := NewTactical().Invoke(context.Background(), redWinsAtThree(), game.Red, 50)
	require.NoError(t, err)
	require.Equal(t, 3, sug.Column)
	require.Equal(t, "immediate win", sug.Explanation)
	require.InDelta(t, 0.98, sug.Confidence, 1e-9)
}

func TestTacticalBlocksOpponentWin(t *testing.T) {
	sug, err := NewTactical().Invoke(context.Background(), redMustBlock(), game.Red, 50)
	require.NoError(t, err)
	require.Equal(t, 3, sug.Column)
	require.Equal(t, "blocks opponent win", sug.Explanation)
	require.GreaterOrEqual(t, sug.Confidence, 0.9, "a forced block is a near-certain move")
}

func TestTacticalAvoidsGiftingAWin(t *testing.T) {
	sug, err := NewTactical().Invoke(context.Background(), giftTraps(), game.Red, 50)
	require.NoError(t, err)
	require.NotContains(t, []int{0, 4}, sug.Column,
		"columns 0 and 4 let the opponent complete four on top of our disc")
}

func TestTacticalConfidenceBounds(t *testing.T) {
	sug, err := NewTactical().Invoke(context.Background(), game.NewPosition(), game.Red, 50)
	require.NoError(t, err)
	require.Equal(t, 3, sug.Column, "center column scores highest on an empty board")
	require.GreaterOrEqual(t, sug.Confidence, 0.2)
	require.LessOrEqual(t, sug.Confidence, 0.85)
}
