package orchestrator

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) *registry {
	t.Helper()
	r := newRegistry(newBreakerGroup(3, 40*time.Millisecond))
	t.Cleanup(r.Close)
	return r
}

func TestRegistryRegisterValidation(t *testing.T) {
	r := newTestRegistry(t)
	inv := &fakeInvoker{column: 3, confidence: 0.5}

	require.Error(t, r.Register(Descriptor{Tier: 2}, inv), "name is required")
	require.Error(t, r.Register(Descriptor{Name: "x", Tier: 0}, inv), "tier below range")
	require.Error(t, r.Register(Descriptor{Name: "x", Tier: MaxTier + 1}, inv), "tier above range")
	require.Error(t, r.Register(Descriptor{Name: "x", Tier: 2}, nil), "invoker is required")
	require.Error(t, r.Register(Descriptor{Name: "x", Tier: 2, Dependencies: []string{"missing"}}, inv),
		"dependencies must be registered first")

	require.NoError(t, r.Register(Descriptor{Name: "x", Tier: 2}, inv))
	require.Error(t, r.Register(Descriptor{Name: "x", Tier: 3}, inv), "duplicate name")

	require.NoError(t, r.Register(Descriptor{Name: "y", Tier: 3, Dependencies: []string{"x"}}, inv))
}

func TestRegistryTierOrdering(t *testing.T) {
	r := newTestRegistry(t)
	inv := &fakeInvoker{column: 3, confidence: 0.5}

	require.Zero(t, r.topTier(), "empty registry has no top tier")

	require.NoError(t, r.Register(Descriptor{Name: "a", Tier: 2}, inv))
	require.NoError(t, r.Register(Descriptor{Name: "b", Tier: 2}, inv))
	require.NoError(t, r.Register(Descriptor{Name: "c", Tier: 4}, inv))

	require.Equal(t, 4, r.topTier())

	tier2 := r.componentsAtTier(2)
	require.Len(t, tier2, 2)
	require.Equal(t, "a", tier2[0].desc.Name, "registration order within a tier")
	require.Equal(t, "b", tier2[1].desc.Name)
	require.Empty(t, r.componentsAtTier(3))
}

func TestRegistryHealthEMA(t *testing.T) {
	r := newTestRegistry(t)
	inv := &fakeInvoker{column: 3, confidence: 0.5}
	require.NoError(t, r.Register(Descriptor{Name: "a", Tier: 2}, inv))

	h, ok := r.Health("a")
	require.True(t, ok)
	require.Equal(t, Healthy, h.Status)
	require.InDelta(t, 1.0, h.Score, 1e-9)

	boom := errors.New("probe failed")
	r.recordCheck("a", boom)
	h, _ = r.Health("a")
	require.InDelta(t, 0.7, h.Score, 1e-9, "one failure decays the score by alpha")
	require.Equal(t, 1, h.ConsecutiveFailures)
	require.Equal(t, Degraded, h.Status)

	r.recordCheck("a", boom)
	r.recordCheck("a", boom)
	r.recordCheck("a", boom)
	h, _ = r.Health("a")
	require.Less(t, h.Score, degradedScore)
	require.Equal(t, Unhealthy, h.Status)
	require.Equal(t, 4, h.ConsecutiveFailures)

	r.recordCheck("a", nil)
	h, _ = r.Health("a")
	require.Zero(t, h.ConsecutiveFailures, "a success resets the streak")
	require.False(t, h.LastSuccess.IsZero())
}

func TestRegistryHealthReflectsOpenCircuit(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.Register(Descriptor{Name: "a", Tier: 2}, &fakeInvoker{column: 3}))

	boom := errors.New("invoke failed")
	for i := 0; i < 3; i++ {
		r.breaker.RecordFailure("a", boom)
	}

	h, ok := r.Health("a")
	require.True(t, ok)
	require.Equal(t, CircuitOpen, h.Status, "open circuit wins over the score band")
}

func TestRegistryCheckAllProbesSelfCheckers(t *testing.T) {
	r := newTestRegistry(t)
	healthy := &fakeInvoker{column: 3}
	failing := &fakeInvoker{column: 3, selfErr: errors.New("model not loaded")}
	require.NoError(t, r.Register(Descriptor{Name: "ok", Tier: 2}, healthy))
	require.NoError(t, r.Register(Descriptor{Name: "bad", Tier: 3}, failing))

	r.checkAll(20 * time.Millisecond)

	h, _ := r.Health("ok")
	require.Equal(t, Healthy, h.Status)
	h, _ = r.Health("bad")
	require.InDelta(t, 0.7, h.Score, 1e-9)
	require.False(t, h.LastFailure.IsZero())

	_, ok := r.Health("missing")
	require.False(t, ok)
}

func TestRegistryCheckAllAbandonsStuckSelfCheck(t *testing.T) {
	r := newTestRegistry(t)
	stuck := &fakeInvoker{column: 3, selfBlock: make(chan struct{})}
	require.NoError(t, r.Register(Descriptor{Name: "stuck", Tier: 2}, stuck))
	defer close(stuck.selfBlock)

	started := time.Now()
	r.checkAll(20 * time.Millisecond)
	require.Less(t, time.Since(started), 500*time.Millisecond,
		"a self-check that ignores its context must not stall the loop")

	h, _ := r.Health("stuck")
	require.InDelta(t, 0.7, h.Score, 1e-9, "the abandoned check is scored as a failure")
	require.Equal(t, 1, h.ConsecutiveFailures)
}
