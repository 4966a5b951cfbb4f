package orchestrator

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

type circuitState int

const (
	circuitClosed circuitState = iota
	circuitOpen
	circuitHalfOpen
)

func (s circuitState) String() string {
	switch s {
	case circuitClosed:
		return "closed"
	case circuitOpen:
		return "open"
	case circuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// cooldownGrowth doubles the open period on every re-open, capped at
// cooldownMaxFactor times the base cooldown. A close resets it.
const (
	cooldownGrowth    = 2
	cooldownMaxFactor = 8
)

type circuit struct {
	state               circuitState
	consecutiveFailures int
	openedAt            time.Time
	cooldown            time.Duration
	probing             bool // a half-open trial is in flight
	lastSuccess         time.Time
	lastFailure         time.Time
}

// CircuitSnapshot is a read-only view of one component's circuit.
type CircuitSnapshot struct {
	State               string
	ConsecutiveFailures int
	OpenedAt            time.Time
	LastSuccess         time.Time
	LastFailure         time.Time
}

// breakerGroup keeps one circuit per component. Transitions are evaluated
// per component; a breaker never blocks components it does not govern.
type breakerGroup struct {
	mu        sync.Mutex
	threshold int
	cooldown  time.Duration
	byName    map[string]*circuit
}

func newBreakerGroup(threshold int, cooldown time.Duration) *breakerGroup {
	return &breakerGroup{
		threshold: threshold,
		cooldown:  cooldown,
		byName:    make(map[string]*circuit),
	}
}

func (g *breakerGroup) circuitFor(name string) *circuit {
	c, ok := g.byName[name]
	if !ok {
		c = &circuit{state: circuitClosed, cooldown: g.cooldown}
		g.byName[name] = c
	}
	return c
}

// Allow reports whether the component may be invoked. In the open state it
// transitions to half-open once the cooldown has elapsed; half-open admits
// exactly one trial invocation.
func (g *breakerGroup) Allow(name string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	c := g.circuitFor(name)
	switch c.state {
	case circuitClosed:
		return true
	case circuitOpen:
		if time.Since(c.openedAt) >= c.cooldown {
			g.transition(name, c, circuitHalfOpen)
			c.probing = true
			return true
		}
		return false
	case circuitHalfOpen:
		if c.probing {
			return false
		}
		c.probing = true
		return true
	default:
		return false
	}
}

func (g *breakerGroup) RecordSuccess(name string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	c := g.circuitFor(name)
	c.lastSuccess = time.Now()
	switch c.state {
	case circuitClosed:
		c.consecutiveFailures = 0
	case circuitHalfOpen:
		c.consecutiveFailures = 0
		c.cooldown = g.cooldown
		g.transition(name, c, circuitClosed)
	}
}

func (g *breakerGroup) RecordFailure(name string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	c := g.circuitFor(name)
	c.lastFailure = time.Now()
	switch c.state {
	case circuitClosed:
		c.consecutiveFailures++
		if c.consecutiveFailures >= g.threshold {
			c.openedAt = time.Now()
			g.transition(name, c, circuitOpen)
			log.Warn().Str("component", name).Err(err).Msgf("circuit opened after %d consecutive failures", c.consecutiveFailures)
		}
	case circuitHalfOpen:
		// Failed probe: reopen with a longer cooldown
		c.consecutiveFailures++
		c.openedAt = time.Now()
		c.cooldown = c.cooldown * cooldownGrowth
		if max := g.cooldown * cooldownMaxFactor; c.cooldown > max {
			c.cooldown = max
		}
		g.transition(name, c, circuitOpen)
	}
}

// Open reports whether the component's circuit currently rejects calls.
func (g *breakerGroup) Open(name string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	c, ok := g.byName[name]
	return ok && c.state == circuitOpen
}

func (g *breakerGroup) Snapshot(name string) CircuitSnapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	c := g.circuitFor(name)
	return CircuitSnapshot{
		State:               c.state.String(),
		ConsecutiveFailures: c.consecutiveFailures,
		OpenedAt:            c.openedAt,
		LastSuccess:         c.lastSuccess,
		LastFailure:         c.lastFailure,
	}
}

// transition must be called with the group lock held.
func (g *breakerGroup) transition(name string, c *circuit, next circuitState) {
	c.state = next
	c.probing = false
	breakerTransitions.WithLabelValues(name, next.String()).Inc()
}
