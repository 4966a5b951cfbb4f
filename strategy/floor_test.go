package strategy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"fourup/game"
)

func TestFloorTakesImmediateWin(t *testing.T) {
	sug, err := NewFloor().Invoke(context.Background(), redWinsAtThree(), game.Red, 50)
	require.NoError(t, err)
	require.Equal(t, 3, sug.Column)
	require.Equal(t, "immediate win", sug.Explanation)
	require.GreaterOrEqual(t, sug.Confidence, 0.9)
}

func TestFloorBlocksOpponentWin(t *testing.T) {
	sug, err := NewFloor().Invoke(context.Background(), redMustBlock(), game.Red, 50)
	require.NoError(t, err)
	require.Equal(t, 3, sug.Column)
	require.Equal(t, "blocks opponent win", sug.Explanation)
	require.GreaterOrEqual(t, sug.Confidence, 0.9)
}

func TestFloorPrefersCenter(t *testing.T) {
	sug, err := NewFloor().Invoke(context.Background(), game.NewPosition(), game.Red, 50)
	require.NoError(t, err)
	require.Equal(t, 3, sug.Column, "no tactics on an empty board, take the center")
	require.Equal(t, "center preference", sug.Explanation)
}

func TestFloorSelfCheck(t *testing.T) {
	require.NoError(t, NewFloor().SelfCheck(context.Background()))
}
