package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"fourup/game"
)

// executor walks quality tiers from a criticality-derived start down to the
// guaranteed tier-1 floor, invoking components under per-attempt deadlines
// and absorbing their failures.
type executor struct {
	registry *registry
	breaker  *breakerGroup
	cfg      Config
	observer Observer
}

type attemptResult struct {
	comp *component
	sug  Suggestion
	err  error
}

// Execute produces a decision or one of the terminal errors. Component
// timeouts and failures never surface; they are recorded with the breaker
// and the walk continues.
func (e *executor) Execute(ctx context.Context, req DecisionRequest, crit Criticality, budget time.Duration, degraded bool) (Decision, error) {
	started := time.Now()
	legal := game.LegalColumns(req.Position)
	if len(legal) == 0 {
		return Decision{}, ErrNoLegalMoves
	}

	top := e.registry.topTier()
	if top == 0 { // Nothing registered: static floor keeps totality
		return e.staticFloor(legal, started), nil
	}

	deadline := started.Add(budget)
	start := e.startTier(crit.Value, degraded, top)

	for tier := start; tier >= MinTier; tier-- {
		remaining := time.Until(deadline) - e.cfg.FloorTimeout
		if ctx.Err() != nil || remaining <= 0 {
			// Global deadline reached mid-walk: go straight to the floor
			break
		}

		allowed := e.allowedAtTier(tier, req)
		if len(allowed) == 0 {
			continue
		}

		slice := e.attemptSlice(remaining, tier, len(allowed))
		results := e.invokeTier(ctx, allowed, slice, req)

		decision, ok := e.combine(results, legal, tier, started)
		if ok {
			return decision, nil
		}
		e.observer.OnPhase(PhaseEvent{
			Phase: PhaseFallback, GameID: req.GameID, RequestID: req.RequestID, Tier: tier,
		})
	}

	return e.invokeFloor(req, legal, started), nil
}

// startTier maps criticality and admission state onto the tier walk's entry
// point. Degraded admission restricts the walk to the cheap tiers.
func (e *executor) startTier(crit float64, degraded bool, top int) int {
	tier := MinTier + int(crit*float64(top-MinTier)+e.cfg.TierStartBias+0.5)
	if degraded && tier > MinTier+1 {
		tier = MinTier + 1
	}
	if tier < MinTier {
		tier = MinTier
	}
	if tier > top {
		tier = top
	}
	return tier
}

// allowedAtTier filters the tier through the circuit breaker. Skipped
// components consume no budget.
func (e *executor) allowedAtTier(tier int, req DecisionRequest) []*component {
	candidates := e.registry.componentsAtTier(tier)
	allowed := make([]*component, 0, len(candidates))
	for _, c := range candidates {
		if !e.breaker.Allow(c.desc.Name) {
			log.Debug().Str("component", c.desc.Name).Msg("skipped: circuit open")
			e.observer.OnPhase(PhaseEvent{Phase: PhaseSkipped, GameID: req.GameID, RequestID: req.RequestID, Component: c.desc.Name, Tier: tier})
			continue
		}
		allowed = append(allowed, c)
	}
	return allowed
}

// attemptSlice divides the remaining budget among the candidates still ahead
// of the walk, floored at the configured minimum and capped by a component's
// declared timeout later.
func (e *executor) attemptSlice(remaining time.Duration, tier, allowedHere int) time.Duration {
	candidates := allowedHere
	for t := tier - 1; t >= MinTier; t-- {
		candidates += len(e.registry.componentsAtTier(t))
	}
	if candidates < 1 {
		candidates = 1
	}
	slice := remaining / time.Duration(candidates)
	if slice < e.cfg.PerComponentTimeout {
		slice = e.cfg.PerComponentTimeout
	}
	return slice
}

// invokeTier runs the tier's components concurrently, each under its own
// attempt deadline, and reports every outcome to the breaker.
func (e *executor) invokeTier(ctx context.Context, comps []*component, slice time.Duration, req DecisionRequest) []attemptResult {
	results := make(chan attemptResult, len(comps))
	for _, c := range comps {
		go func(c *component) {
			attempt := slice
			if c.desc.Timeout > 0 && c.desc.Timeout < attempt {
				attempt = c.desc.Timeout
			}
			sug, err := e.invokeOne(ctx, c, attempt, req)
			results <- attemptResult{comp: c, sug: sug, err: err}
		}(c)
	}

	out := make([]attemptResult, 0, len(comps))
	for range comps {
		r := <-results
		name := r.comp.desc.Name
		if r.err != nil {
			e.breaker.RecordFailure(name, r.err)
			attemptFailures.WithLabelValues(name, failureKind(r.err)).Inc()
			log.Debug().Str("component", name).Err(r.err).Msg("attempt failed")
		} else {
			e.breaker.RecordSuccess(name)
		}
		e.observer.OnPhase(PhaseEvent{
			Phase: PhaseAttempt, GameID: req.GameID, RequestID: req.RequestID,
			Component: name, Tier: r.comp.desc.Tier, Value: r.sug.Confidence, Err: r.err,
		})
		out = append(out, r)
	}
	return out
}

// invokeOne bounds a single invocation. A component that ignores its context
// is abandoned, never waited on past its slice; a panicking component is
// reported as an ordinary failure.
func (e *executor) invokeOne(ctx context.Context, c *component, timeout time.Duration, req DecisionRequest) (Suggestion, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan attemptResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- attemptResult{err: fmt.Errorf("component %s panicked: %v", c.desc.Name, r)}
			}
		}()
		sug, err := c.invoker.Invoke(attemptCtx, req.Position, req.Actor, req.Difficulty)
		done <- attemptResult{sug: sug, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return Suggestion{}, r.err
		}
		return r.sug, nil
	case <-attemptCtx.Done():
		return Suggestion{}, fmt.Errorf("component %s: %w", c.desc.Name, attemptCtx.Err())
	}
}

// combine merges a tier's successful suggestions into one decision by
// confidence-weighted column votes; ties go to the column nearest center.
func (e *executor) combine(results []attemptResult, legal []int, tier int, started time.Time) (Decision, bool) {
	legalSet := make(map[int]bool, len(legal))
	for _, col := range legal {
		legalSet[col] = true
	}

	type vote struct {
		weight float64
		best   attemptResult // highest-confidence contributor
	}
	votes := make(map[int]*vote)
	for _, r := range results {
		if r.err != nil {
			continue
		}
		if !legalSet[r.sug.Column] {
			// An illegal suggestion counts as a component failure
			e.breaker.RecordFailure(r.comp.desc.Name, fmt.Errorf("illegal column %d", r.sug.Column))
			continue
		}
		v, ok := votes[r.sug.Column]
		if !ok {
			v = &vote{}
			votes[r.sug.Column] = v
		}
		v.weight += r.sug.Confidence
		if r.sug.Confidence >= v.best.sug.Confidence {
			v.best = r
		}
	}
	if len(votes) == 0 {
		return Decision{}, false
	}

	columns := make([]int, 0, len(votes))
	for col := range votes {
		columns = append(columns, col)
	}
	sort.Slice(columns, func(i, j int) bool {
		wi, wj := votes[columns[i]].weight, votes[columns[j]].weight
		if wi != wj {
			return wi > wj
		}
		return centerDistance(columns[i]) < centerDistance(columns[j])
	})

	winner := columns[0]
	chosen := votes[winner].best
	alternatives := make([]Alternative, 0, len(columns)-1)
	for _, col := range columns[1:] {
		alternatives = append(alternatives, Alternative{
			Column: col,
			Score:  votes[col].weight,
			Reason: votes[col].best.sug.Explanation,
		})
	}

	return Decision{
		Column:       winner,
		Confidence:   chosen.sug.Confidence,
		Strategy:     chosen.comp.desc.Name,
		Tier:         tier,
		ComputeTime:  time.Since(started),
		Alternatives: alternatives,
	}, true
}

// invokeFloor runs the tier-1 guaranteed component, bypassing the breaker.
// It cannot be refused; if it somehow fails, the static floor answers.
func (e *executor) invokeFloor(req DecisionRequest, legal []int, started time.Time) Decision {
	e.observer.OnPhase(PhaseEvent{Phase: PhaseFloor, GameID: req.GameID, RequestID: req.RequestID, Tier: MinTier})

	comps := e.registry.componentsAtTier(MinTier)
	for _, c := range comps {
		// Fresh context: the floor answers even after the request deadline
		ctx, cancel := context.WithTimeout(context.Background(), e.cfg.FloorTimeout)
		sug, err := e.invokeOne(ctx, c, e.cfg.FloorTimeout, req)
		cancel()
		if err == nil && containsColumn(legal, sug.Column) {
			return Decision{
				Column:      sug.Column,
				Confidence:  sug.Confidence,
				Strategy:    c.desc.Name,
				Tier:        MinTier,
				ComputeTime: time.Since(started),
			}
		}
		log.Warn().Str("component", c.desc.Name).Err(err).Msg("floor component failed")
	}
	return e.staticFloor(legal, started)
}

// staticFloor picks the legal column nearest center. Pure arithmetic, the
// last line of the totality guarantee.
func (e *executor) staticFloor(legal []int, started time.Time) Decision {
	best := legal[0]
	for _, col := range legal[1:] {
		if centerDistance(col) < centerDistance(best) {
			best = col
		}
	}
	return Decision{
		Column:      best,
		Confidence:  0.1,
		Strategy:    "static-floor",
		Tier:        MinTier,
		ComputeTime: time.Since(started),
	}
}

func centerDistance(col int) int {
	d := col - game.Columns/2
	if d < 0 {
		return -d
	}
	return d
}

func containsColumn(legal []int, col int) bool {
	for _, c := range legal {
		if c == col {
			return true
		}
	}
	return false
}

func failureKind(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	return "failure"
}
