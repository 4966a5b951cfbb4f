package orchestrator

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"fourup/game"
)

// cacheKey reflects the canonical position, the acting side, and a
// discretized difficulty bucket. Nearby difficulties share entries.
func cacheKey(p game.Position, actor game.Side, difficulty int) string {
	return fmt.Sprintf("%s:%d:%d", p.Hash(), actor, difficulty/10)
}

type cacheEntry struct {
	decision  Decision
	createdAt time.Time
	expiresAt time.Time
	hits      atomic.Int64
}

func (e *cacheEntry) expired(now time.Time) bool {
	return now.After(e.expiresAt)
}

// decisionCache memoizes decisions under a size cap with per-entry TTL.
// The LRU handles the cap; TTL lives on the entry because the producing
// strategy chooses it per decision. Safe for concurrent use; last Put wins.
type decisionCache struct {
	entries *lru.Cache[string, *cacheEntry]
	hits    atomic.Int64
	misses  atomic.Int64

	stopOnce sync.Once
	stop     chan struct{}
}

func newDecisionCache(maxEntries int, sweepInterval time.Duration) (*decisionCache, error) {
	entries, err := lru.New[string, *cacheEntry](maxEntries)
	if err != nil {
		return nil, err
	}
	c := &decisionCache{
		entries: entries,
		stop:    make(chan struct{}),
	}
	go c.sweep(sweepInterval)
	return c, nil
}

func (c *decisionCache) Get(key string) (Decision, bool) {
	entry, ok := c.entries.Get(key)
	if !ok {
		c.misses.Add(1)
		return Decision{}, false
	}
	if entry.expired(time.Now()) { // Lazy expiration
		c.entries.Remove(key)
		c.misses.Add(1)
		return Decision{}, false
	}
	entry.hits.Add(1)
	c.hits.Add(1)
	return entry.decision, true
}

func (c *decisionCache) Put(key string, d Decision, ttl time.Duration) {
	now := time.Now()
	c.entries.Add(key, &cacheEntry{
		decision:  d,
		createdAt: now,
		expiresAt: now.Add(ttl),
	})
}

// Evict removes expired entries. The LRU evicts over-cap entries on Add.
func (c *decisionCache) Evict() {
	now := time.Now()
	for _, key := range c.entries.Keys() {
		if entry, ok := c.entries.Peek(key); ok && entry.expired(now) {
			c.entries.Remove(key)
		}
	}
}

func (c *decisionCache) Stats() CacheStats {
	hits := c.hits.Load()
	misses := c.misses.Load()
	rate := 0.0
	if hits+misses > 0 {
		rate = float64(hits) / float64(hits+misses)
	}
	return CacheStats{
		Size:    c.entries.Len(),
		Hits:    hits,
		Misses:  misses,
		HitRate: rate,
	}
}

func (c *decisionCache) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *decisionCache) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.Evict()
		case <-c.stop:
			return
		}
	}
}
