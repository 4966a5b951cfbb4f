package orchestrator

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var errBoom = fmt.Errorf("boom")

func TestBreakerOpensAtThreshold(t *testing.T) {
	g := newBreakerGroup(3, time.Minute)

	for i := 0; i < 2; i++ {
		g.RecordFailure("minimax", errBoom)
		require.True(t, g.Allow("minimax"), "below threshold the circuit stays closed")
	}
	g.RecordFailure("minimax", errBoom)

	require.False(t, g.Allow("minimax"), "threshold failures open the circuit")
	require.Equal(t, "open", g.Snapshot("minimax").State)
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	g := newBreakerGroup(3, time.Minute)

	g.RecordFailure("mcts", errBoom)
	g.RecordFailure("mcts", errBoom)
	g.RecordSuccess("mcts")
	g.RecordFailure("mcts", errBoom)
	g.RecordFailure("mcts", errBoom)

	require.True(t, g.Allow("mcts"), "non-consecutive failures must not open the circuit")
}

func TestBreakerHalfOpenSingleProbe(t *testing.T) {
	g := newBreakerGroup(1, 20*time.Millisecond)

	g.RecordFailure("minimax", errBoom)
	require.False(t, g.Allow("minimax"))

	time.Sleep(30 * time.Millisecond)

	require.True(t, g.Allow("minimax"), "cooldown elapsed: one probe is allowed")
	require.False(t, g.Allow("minimax"), "only one trial invocation in half-open")

	g.RecordSuccess("minimax")
	require.True(t, g.Allow("minimax"), "a successful probe closes the circuit")
	require.Equal(t, "closed", g.Snapshot("minimax").State)
}

func TestBreakerFailedProbeReopensWithBackoff(t *testing.T) {
	g := newBreakerGroup(1, 20*time.Millisecond)

	g.RecordFailure("minimax", errBoom)
	time.Sleep(30 * time.Millisecond)
	require.True(t, g.Allow("minimax"))
	g.RecordFailure("minimax", errBoom) // probe fails

	require.False(t, g.Allow("minimax"))
	time.Sleep(30 * time.Millisecond)
	require.False(t, g.Allow("minimax"), "cooldown doubled: still open after the base period")

	time.Sleep(20 * time.Millisecond)
	require.True(t, g.Allow("minimax"), "grown cooldown elapsed")
}

func TestBreakerIsolatesComponents(t *testing.T) {
	g := newBreakerGroup(1, time.Minute)

	g.RecordFailure("mcts", errBoom)

	require.False(t, g.Allow("mcts"))
	require.True(t, g.Allow("minimax"), "a breaker never blocks components it does not govern")
	require.False(t, g.Open("minimax"))
	require.True(t, g.Open("mcts"))
}
