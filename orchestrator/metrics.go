package orchestrator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	decisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fourup_decisions_total",
		Help: "Decisions produced, by winning strategy, tier, and cache outcome",
	}, []string{"strategy", "tier", "cache"})

	rejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fourup_rejections_total",
		Help: "Requests rejected before execution",
	}, []string{"reason"})

	attemptFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fourup_attempt_failures_total",
		Help: "Component invocations absorbed by the fallback walk",
	}, []string{"component", "kind"})

	breakerTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fourup_breaker_transitions_total",
		Help: "Circuit state transitions per component",
	}, []string{"component", "state"})

	decideDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fourup_decide_duration_seconds",
		Help:    "End-to-end Decide latency",
		Buckets: []float64{0.001, 0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5},
	})

	criticalityObserved = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fourup_criticality_value",
		Help:    "Criticality scores of executed requests",
		Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
	})
)
