package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Health score EMA weight and status bands.
const (
	healthAlpha   = 0.3
	healthyScore  = 0.8
	degradedScore = 0.4
	initialHealth = 1.0
)

type component struct {
	desc    Descriptor
	invoker Invoker
}

type healthState struct {
	score               float64
	consecutiveFailures int
	lastSuccess         time.Time
	lastFailure         time.Time
}

// registry catalogs components by quality tier and tracks their health. It
// never executes components on the decision path; the executor does.
type registry struct {
	mu      sync.RWMutex
	byName  map[string]*component
	byTier  [MaxTier + 1][]*component // registration order within a tier
	health  map[string]*healthState
	breaker *breakerGroup

	stopOnce sync.Once
	stop     chan struct{}
}

func newRegistry(breaker *breakerGroup) *registry {
	return &registry{
		byName:  make(map[string]*component),
		health:  make(map[string]*healthState),
		breaker: breaker,
		stop:    make(chan struct{}),
	}
}

// Register validates the descriptor and catalogs the component. Dependencies
// must already be registered, which makes dependency cycles unrepresentable.
func (r *registry) Register(desc Descriptor, invoker Invoker) error {
	if desc.Name == "" {
		return fmt.Errorf("component name is required")
	}
	if desc.Tier < MinTier || desc.Tier > MaxTier {
		return fmt.Errorf("component %q: tier %d outside [%d,%d]", desc.Name, desc.Tier, MinTier, MaxTier)
	}
	if invoker == nil {
		return fmt.Errorf("component %q: invoker is required", desc.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byName[desc.Name]; ok {
		return fmt.Errorf("component %q already registered", desc.Name)
	}
	for _, dep := range desc.Dependencies {
		if _, ok := r.byName[dep]; !ok {
			return fmt.Errorf("component %q: dependency %q not registered", desc.Name, dep)
		}
	}

	c := &component{desc: desc, invoker: invoker}
	r.byName[desc.Name] = c
	r.byTier[desc.Tier] = append(r.byTier[desc.Tier], c)
	r.health[desc.Name] = &healthState{score: initialHealth}

	log.Debug().Str("component", desc.Name).Int("tier", desc.Tier).Msg("component registered")
	return nil
}

// componentsAtTier returns the tier's components in registration order.
func (r *registry) componentsAtTier(tier int) []*component {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*component, len(r.byTier[tier]))
	copy(out, r.byTier[tier])
	return out
}

// topTier is the highest tier with at least one component, or zero when the
// registry is empty.
func (r *registry) topTier() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for tier := MaxTier; tier >= MinTier; tier-- {
		if len(r.byTier[tier]) > 0 {
			return tier
		}
	}
	return 0
}

func (r *registry) Health(name string) (ComponentHealth, bool) {
	r.mu.RLock()
	h, ok := r.health[name]
	if !ok {
		r.mu.RUnlock()
		return ComponentHealth{}, false
	}
	out := ComponentHealth{
		Score:               h.score,
		ConsecutiveFailures: h.consecutiveFailures,
		LastSuccess:         h.lastSuccess,
		LastFailure:         h.lastFailure,
	}
	r.mu.RUnlock()

	switch {
	case r.breaker.Open(name):
		out.Status = CircuitOpen
	case out.Score >= healthyScore:
		out.Status = Healthy
	case out.Score >= degradedScore:
		out.Status = Degraded
	default:
		out.Status = Unhealthy
	}
	return out, true
}

func (r *registry) HealthReport() map[string]ComponentHealth {
	r.mu.RLock()
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	r.mu.RUnlock()

	report := make(map[string]ComponentHealth, len(names))
	for _, name := range names {
		if h, ok := r.Health(name); ok {
			report[name] = h
		}
	}
	return report
}

// runHealthLoop probes self-checking components until the registry closes.
func (r *registry) runHealthLoop(interval, timeout time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.checkAll(timeout)
		case <-r.stop:
			return
		}
	}
}

func (r *registry) checkAll(timeout time.Duration) {
	r.mu.RLock()
	checks := make(map[string]SelfChecker)
	for name, c := range r.byName {
		if sc, ok := c.invoker.(SelfChecker); ok {
			checks[name] = sc
		}
	}
	r.mu.RUnlock()

	for name, sc := range checks {
		r.recordCheck(name, runCheck(sc, timeout))
	}
}

// runCheck bounds one self-check. A check that ignores its context is
// abandoned and scored as a failure; a panicking check likewise.
func runCheck(sc SelfChecker, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("self-check panicked: %v", r)
			}
		}()
		done <- sc.SelfCheck(ctx)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("self-check: %w", ctx.Err())
	}
}

func (r *registry) recordCheck(name string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.health[name]
	if !ok {
		return
	}
	sample := 1.0
	if err != nil {
		sample = 0.0
		h.consecutiveFailures++
		h.lastFailure = time.Now()
		log.Warn().Str("component", name).Err(err).Msg("self-check failed")
	} else {
		h.consecutiveFailures = 0
		h.lastSuccess = time.Now()
	}
	h.score = healthAlpha*sample + (1-healthAlpha)*h.score
}

func (r *registry) Close() {
	r.stopOnce.Do(func() { close(r.stop) })
}
