package orchestrator

import (
	"fmt"
	"time"
)

// Config carries the recognized orchestration options. Zero fields are
// filled in from DefaultConfig by New.
type Config struct {
	// MaxConcurrentRequests is the hard admission ceiling.
	MaxConcurrentRequests int

	// DegradeWatermark is the fraction of the ceiling above which admission
	// succeeds but is flagged degraded (budget shrinks, cheaper tiers).
	DegradeWatermark float64

	// CPUSoftMark/CPUHardMark are sampled CPU percentages: above soft the
	// request degrades, above hard it is rejected.
	CPUSoftMark float64
	CPUHardMark float64

	// MemorySoftMark/MemoryHardMark bound sampled heap bytes the same way.
	// Zero disables the memory gates.
	MemorySoftMark uint64
	MemoryHardMark uint64

	// PerComponentTimeout is the minimum per-attempt slice; the executor
	// never hands a component less than this.
	PerComponentTimeout time.Duration

	// FloorTimeout bounds the guaranteed tier-1 invocation when every tier
	// has been exhausted.
	FloorTimeout time.Duration

	// DefaultTimeBudget applies when a request carries no budget.
	DefaultTimeBudget time.Duration

	// CircuitFailureThreshold is the consecutive-failure count that opens a
	// component's circuit; CircuitCooldown is the open period before a
	// half-open probe is allowed.
	CircuitFailureThreshold int
	CircuitCooldown         time.Duration

	// CacheMaxEntries caps the decision cache; CacheDefaultTTL applies to
	// cheap (tier 1-2) decisions and CacheLongTTL to deep ones, which stay
	// valid longer as nearby positions transpose into each other.
	CacheMaxEntries int
	CacheDefaultTTL time.Duration
	CacheLongTTL    time.Duration

	// CacheSweepInterval is the background expired-entry sweep period.
	CacheSweepInterval time.Duration

	// TierStartBias shifts the criticality-derived starting tier. Positive
	// values reach for expensive strategies earlier.
	TierStartBias float64

	// HealthCheckInterval and HealthCheckTimeout drive the registry's
	// periodic self-check loop.
	HealthCheckInterval time.Duration
	HealthCheckTimeout  time.Duration

	// RecentGames caps the per-game recent decision index.
	RecentGames int
}

func DefaultConfig() Config {
	return Config{
		MaxConcurrentRequests:   64,
		DegradeWatermark:        0.75,
		CPUSoftMark:             75,
		CPUHardMark:             95,
		PerComponentTimeout:     25 * time.Millisecond,
		FloorTimeout:            50 * time.Millisecond,
		DefaultTimeBudget:       500 * time.Millisecond,
		CircuitFailureThreshold: 5,
		CircuitCooldown:         30 * time.Second,
		CacheMaxEntries:         4096,
		CacheDefaultTTL:         2 * time.Minute,
		CacheLongTTL:            2 * time.Hour,
		CacheSweepInterval:      time.Minute,
		TierStartBias:           0,
		HealthCheckInterval:     15 * time.Second,
		HealthCheckTimeout:      100 * time.Millisecond,
		RecentGames:             1024,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxConcurrentRequests <= 0 {
		c.MaxConcurrentRequests = d.MaxConcurrentRequests
	}
	if c.DegradeWatermark <= 0 {
		c.DegradeWatermark = d.DegradeWatermark
	}
	if c.CPUSoftMark <= 0 {
		c.CPUSoftMark = d.CPUSoftMark
	}
	if c.CPUHardMark <= 0 {
		c.CPUHardMark = d.CPUHardMark
	}
	if c.PerComponentTimeout <= 0 {
		c.PerComponentTimeout = d.PerComponentTimeout
	}
	if c.FloorTimeout <= 0 {
		c.FloorTimeout = d.FloorTimeout
	}
	if c.DefaultTimeBudget <= 0 {
		c.DefaultTimeBudget = d.DefaultTimeBudget
	}
	if c.CircuitFailureThreshold <= 0 {
		c.CircuitFailureThreshold = d.CircuitFailureThreshold
	}
	if c.CircuitCooldown <= 0 {
		c.CircuitCooldown = d.CircuitCooldown
	}
	if c.CacheMaxEntries <= 0 {
		c.CacheMaxEntries = d.CacheMaxEntries
	}
	if c.CacheDefaultTTL <= 0 {
		c.CacheDefaultTTL = d.CacheDefaultTTL
	}
	if c.CacheLongTTL <= 0 {
		c.CacheLongTTL = d.CacheLongTTL
	}
	if c.CacheSweepInterval <= 0 {
		c.CacheSweepInterval = d.CacheSweepInterval
	}
	if c.HealthCheckInterval <= 0 {
		c.HealthCheckInterval = d.HealthCheckInterval
	}
	if c.HealthCheckTimeout <= 0 {
		c.HealthCheckTimeout = d.HealthCheckTimeout
	}
	if c.RecentGames <= 0 {
		c.RecentGames = d.RecentGames
	}
	return c
}

func (c Config) Validate() error {
	if c.DegradeWatermark > 1 {
		return fmt.Errorf("degrade watermark must be a fraction of the ceiling, got %v", c.DegradeWatermark)
	}
	if c.CPUHardMark < c.CPUSoftMark {
		return fmt.Errorf("CPU hard mark %v below soft mark %v", c.CPUHardMark, c.CPUSoftMark)
	}
	if c.MemoryHardMark != 0 && c.MemoryHardMark < c.MemorySoftMark {
		return fmt.Errorf("memory hard mark %d below soft mark %d", c.MemoryHardMark, c.MemorySoftMark)
	}
	if c.CacheLongTTL < c.CacheDefaultTTL {
		return fmt.Errorf("long TTL %v below default TTL %v", c.CacheLongTTL, c.CacheDefaultTTL)
	}
	return nil
}
