package orchestrator

import "time"

type Phase string

const (
	PhaseCacheHit    Phase = "cache_hit"
	PhaseAdmitted    Phase = "admitted"
	PhaseDegraded    Phase = "degraded"
	PhaseCriticality Phase = "criticality"
	PhaseAttempt     Phase = "attempt"
	PhaseSkipped     Phase = "circuit_open_skipped"
	PhaseFallback    Phase = "fallback"
	PhaseFloor       Phase = "floor"
	PhaseDone        Phase = "done"
)

// PhaseEvent marks a checkpoint on the decision path.
type PhaseEvent struct {
	Phase     Phase
	GameID    string
	RequestID string
	Component string
	Tier      int
	Value     float64 // criticality value, confidence, etc. depending on phase
	Err       error
	Elapsed   time.Duration
}

// Observer receives phase events synchronously at defined checkpoints.
// Implementations must be fast; they run on the request path.
type Observer interface {
	OnPhase(PhaseEvent)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(PhaseEvent)

func (f ObserverFunc) OnPhase(e PhaseEvent) { f(e) }

type noopObserver struct{}

func (noopObserver) OnPhase(PhaseEvent) {}
