package orchestrator

import (
	"context"
	"time"

	"fourup/game"
)

// DecisionRequest asks for a move in a single position. The position is a
// value type, so callers keep ownership of their own copy.
type DecisionRequest struct {
	Position   game.Position
	Actor      game.Side
	Difficulty int // normalized 0-100
	TimeBudget time.Duration
	GameID     string
	RequestID  string
}

// Alternative is a candidate column that lost the ensemble vote.
type Alternative struct {
	Column int
	Score  float64
	Reason string
}

// Decision is the outcome of one orchestrated move computation. Immutable
// once produced.
type Decision struct {
	Column       int
	Confidence   float64
	Strategy     string
	Tier         int
	ComputeTime  time.Duration
	CacheHit     bool
	Alternatives []Alternative
}

// Suggestion is a single strategy's answer.
type Suggestion struct {
	Column      int
	Confidence  float64
	Explanation string
}

// Invoker computes a move for a position. Implementations are treated as
// opaque: possibly slow, possibly failing. They must respect ctx cancellation
// and be safe to abandon mid-flight.
type Invoker interface {
	Invoke(ctx context.Context, p game.Position, actor game.Side, difficulty int) (Suggestion, error)
}

// SelfChecker is optionally implemented by invokers that support the periodic
// health probe. The check must be cheap and bounded.
type SelfChecker interface {
	SelfCheck(ctx context.Context) error
}

const (
	MinTier = 1 // guaranteed floor, never fails
	MaxTier = 5 // experimental
)

// Descriptor declares a component's cost/quality profile at registration.
type Descriptor struct {
	Name         string
	Tier         int // MinTier..MaxTier
	Timeout      time.Duration
	CostWeight   float64
	Dependencies []string
}

type HealthStatus int

const (
	Healthy HealthStatus = iota
	Degraded
	Unhealthy
	CircuitOpen
)

func (s HealthStatus) String() string {
	switch s {
	case Healthy:
		return "healthy"
	case Degraded:
		return "degraded"
	case Unhealthy:
		return "unhealthy"
	case CircuitOpen:
		return "circuit-open"
	default:
		return "unknown"
	}
}

// ComponentHealth is the registry's view of one component.
type ComponentHealth struct {
	Status              HealthStatus
	Score               float64 // exponential moving average of probe outcomes
	ConsecutiveFailures int
	LastSuccess         time.Time
	LastFailure         time.Time
}

// CacheStats reports decision cache effectiveness.
type CacheStats struct {
	Size    int
	Hits    int64
	Misses  int64
	HitRate float64
}

// ResourceSnapshot is a point-in-time sample of host load. Figures are
// approximate; admission decisions use the snapshot taken at decision time.
type ResourceSnapshot struct {
	CPUPercent     float64
	MemoryBytes    uint64
	ActiveRequests int
}
