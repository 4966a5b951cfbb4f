package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"

	"fourup/game"
)

// Orchestrator composes the criticality analyzer, decision cache, resource
// manager, circuit breaker, component registry, and tiered fallback executor
// into one Decide facade. It owns the per-game serialization guarantee and
// is the only component that releases admission tickets.
type Orchestrator struct {
	cfg       Config
	cache     *decisionCache
	resources *resourceManager
	breaker   *breakerGroup
	registry  *registry
	executor  *executor
	observer  Observer

	gamesMu sync.Mutex
	games   map[string]bool

	// recent replaces the source's unbounded per-game history: a bounded
	// index of each game's last decision.
	recent *lru.Cache[string, Decision]

	closeOnce sync.Once
}

type Option func(*Orchestrator)

func WithObserver(o Observer) Option {
	return func(orch *Orchestrator) {
		if o != nil {
			orch.observer = o
		}
	}
}

func New(cfg Config, options ...Option) (*Orchestrator, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cache, err := newDecisionCache(cfg.CacheMaxEntries, cfg.CacheSweepInterval)
	if err != nil {
		return nil, err
	}
	recent, err := lru.New[string, Decision](cfg.RecentGames)
	if err != nil {
		cache.Close()
		return nil, err
	}

	breaker := newBreakerGroup(cfg.CircuitFailureThreshold, cfg.CircuitCooldown)
	registry := newRegistry(breaker)

	orch := &Orchestrator{
		cfg:       cfg,
		cache:     cache,
		resources: newResourceManager(cfg),
		breaker:   breaker,
		registry:  registry,
		observer:  noopObserver{},
		games:     make(map[string]bool),
		recent:    recent,
	}
	for _, option := range options {
		option(orch)
	}
	orch.executor = &executor{
		registry: registry,
		breaker:  breaker,
		cfg:      cfg,
		observer: orch.observer,
	}

	go registry.runHealthLoop(cfg.HealthCheckInterval, cfg.HealthCheckTimeout)
	return orch, nil
}

// Register catalogs a strategy component. Call during startup wiring; an
// absent optional strategy is simply never registered.
func (o *Orchestrator) Register(desc Descriptor, invoker Invoker) error {
	return o.registry.Register(desc, invoker)
}

// Decide produces a move for the request. The caller always receives either
// a valid decision or one of ErrPositionInvalid, ErrOverloaded,
// ErrConcurrentGame, ErrNoLegalMoves.
func (o *Orchestrator) Decide(ctx context.Context, req DecisionRequest) (Decision, error) {
	started := time.Now()

	if err := validatePosition(req.Position); err != nil {
		rejectionsTotal.WithLabelValues("position_invalid").Inc()
		return Decision{}, err
	}

	if req.GameID != "" {
		if !o.acquireGame(req.GameID) {
			rejectionsTotal.WithLabelValues("concurrent_game").Inc()
			return Decision{}, fmt.Errorf("%w: %s", ErrConcurrentGame, req.GameID)
		}
		defer o.releaseGame(req.GameID)
	}

	key := cacheKey(req.Position, req.Actor, req.Difficulty)
	if d, ok := o.cache.Get(key); ok {
		d.CacheHit = true
		d.ComputeTime = time.Since(started)
		o.observer.OnPhase(PhaseEvent{Phase: PhaseCacheHit, GameID: req.GameID, RequestID: req.RequestID})
		o.record(req.GameID, d, started)
		return d, nil
	}

	ticket, err := o.resources.TryAdmit()
	if err != nil {
		rejectionsTotal.WithLabelValues("overloaded").Inc()
		return Decision{}, err
	}
	defer o.resources.Release(ticket)

	budget := req.TimeBudget
	if budget <= 0 {
		budget = o.cfg.DefaultTimeBudget
	}
	if ticket.Degraded {
		budget /= 2
		o.observer.OnPhase(PhaseEvent{Phase: PhaseDegraded, GameID: req.GameID, RequestID: req.RequestID})
		log.Debug().Str("game", req.GameID).Msg("degraded admission: budget halved")
	} else {
		o.observer.OnPhase(PhaseEvent{Phase: PhaseAdmitted, GameID: req.GameID, RequestID: req.RequestID})
	}

	crit, err := ScoreCriticality(req.Position, req.Actor)
	if err != nil {
		if errors.Is(err, ErrNoLegalMoves) {
			return Decision{}, err
		}
		return Decision{}, fmt.Errorf("%w: %v", ErrPositionInvalid, err)
	}
	criticalityObserved.Observe(crit.Value)
	o.observer.OnPhase(PhaseEvent{Phase: PhaseCriticality, GameID: req.GameID, RequestID: req.RequestID, Value: crit.Value})

	execCtx, cancel := context.WithDeadline(ctx, started.Add(budget))
	defer cancel()

	decision, err := o.executor.Execute(execCtx, req, crit, budget, ticket.Degraded)
	if err != nil {
		return Decision{}, err
	}

	o.cache.Put(key, decision, o.ttlFor(decision.Tier))
	o.record(req.GameID, decision, started)
	return decision, nil
}

// ttlFor keeps cheap tactical answers briefly and deep answers for hours:
// expensive results stay correct as transpositions reach nearby positions.
func (o *Orchestrator) ttlFor(tier int) time.Duration {
	if tier <= MinTier+1 {
		return o.cfg.CacheDefaultTTL
	}
	return o.cfg.CacheLongTTL
}

func (o *Orchestrator) record(gameID string, d Decision, started time.Time) {
	cache := "miss"
	if d.CacheHit {
		cache = "hit"
	}
	decisionsTotal.WithLabelValues(d.Strategy, strconv.Itoa(d.Tier), cache).Inc()
	decideDuration.Observe(time.Since(started).Seconds())
	if gameID != "" {
		o.recent.Add(gameID, d)
	}
	o.observer.OnPhase(PhaseEvent{Phase: PhaseDone, GameID: gameID, Component: d.Strategy, Tier: d.Tier, Value: d.Confidence, Elapsed: time.Since(started)})
}

// LastDecision returns the most recent decision recorded for a game, if it
// is still in the bounded index.
func (o *Orchestrator) LastDecision(gameID string) (Decision, bool) {
	return o.recent.Get(gameID)
}

func (o *Orchestrator) HealthReport() map[string]ComponentHealth {
	return o.registry.HealthReport()
}

func (o *Orchestrator) CacheStats() CacheStats {
	return o.cache.Stats()
}

func (o *Orchestrator) Snapshot() ResourceSnapshot {
	return o.resources.Snapshot()
}

func (o *Orchestrator) Close() {
	o.closeOnce.Do(func() {
		o.registry.Close()
		o.cache.Close()
	})
}

// acquireGame enforces at most one in-flight Decide per game. Two concurrent
// decisions over a mutating position are not meaningful.
func (o *Orchestrator) acquireGame(gameID string) bool {
	o.gamesMu.Lock()
	defer o.gamesMu.Unlock()
	if o.games[gameID] {
		return false
	}
	o.games[gameID] = true
	return true
}

func (o *Orchestrator) releaseGame(gameID string) {
	o.gamesMu.Lock()
	defer o.gamesMu.Unlock()
	delete(o.games, gameID)
}

// validatePosition rejects boards that cannot arise from alternating play:
// disc counts must differ by at most one and agree with the side to move.
func validatePosition(p game.Position) error {
	reds, yellows := 0, 0
	for r := 0; r < game.Rows; r++ {
		for c := 0; c < game.Columns; c++ {
			switch p.Cell(r, c) {
			case game.Red:
				reds++
			case game.Yellow:
				yellows++
			}
		}
	}
	diff := reds - yellows
	if diff < -1 || diff > 1 {
		return fmt.Errorf("%w: %d red vs %d yellow discs", ErrPositionInvalid, reds, yellows)
	}
	if diff == 1 && p.Turn() == game.Red {
		return fmt.Errorf("%w: red already moved", ErrPositionInvalid)
	}
	if diff == -1 && p.Turn() == game.Yellow {
		return fmt.Errorf("%w: yellow already moved", ErrPositionInvalid)
	}
	return nil
}
