package orchestrator

import (
	"context"
	"sync/atomic"
	"time"

	"fourup/game"
)

// fakeInvoker is a scriptable component for executor and facade tests.
type fakeInvoker struct {
	column     int
	confidence float64
	err        error
	panicMsg   string
	delay      time.Duration
	block      chan struct{} // when set, Invoke waits for close or ctx
	started    chan struct{} // when set, closed on first call
	selfErr    error
	selfBlock  chan struct{} // when set, SelfCheck ignores its context
	calls      atomic.Int32
}

func (f *fakeInvoker) Invoke(ctx context.Context, _ game.Position, _ game.Side, _ int) (Suggestion, error) {
	if f.calls.Add(1) == 1 && f.started != nil {
		close(f.started)
	}
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return Suggestion{}, ctx.Err()
		}
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return Suggestion{}, ctx.Err()
		}
	}
	if f.err != nil {
		return Suggestion{}, f.err
	}
	return Suggestion{Column: f.column, Confidence: f.confidence, Explanation: "scripted"}, nil
}

func (f *fakeInvoker) SelfCheck(context.Context) error {
	if f.selfBlock != nil {
		<-f.selfBlock
	}
	return f.selfErr
}

func mustPosition(rows ...string) game.Position {
	p, err := game.NewPositionFromRows(game.Red, rows...)
	if err != nil {
		panic(err)
	}
	return p
}

// threeInARowRed: red completes four by playing column 3; yellow is inert.
func threeInARowRed() game.Position {
	return mustPosition(
		".......",
		".......",
		".......",
		".......",
		"YYY....",
		"RRR....",
	)
}

// yellowThreat: yellow wins at column 3 next turn; red has no win.
func yellowThreat() game.Position {
	return mustPosition(
		".......",
		".......",
		".......",
		".......",
		"....RRR",
		"....YYY",
	)
}

func fullDrawBoard() game.Position {
	return mustPosition(
		"YRYRYRY",
		"RYRYRYR",
		"YRYRYRY",
		"YRYRYRY",
		"RYRYRYR",
		"RYRYRYR",
	)
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.CircuitFailureThreshold = 3
	cfg.CircuitCooldown = 40 * time.Millisecond
	cfg.PerComponentTimeout = 10 * time.Millisecond
	cfg.FloorTimeout = 30 * time.Millisecond
	cfg.DefaultTimeBudget = 150 * time.Millisecond
	cfg.CacheSweepInterval = 10 * time.Millisecond
	cfg.HealthCheckInterval = time.Hour // driven manually in tests
	return cfg
}
