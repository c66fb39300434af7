// Package cache provides a small process-local TTL cache used as a
// read-through layer in front of hot catalog lookups (CLO/PLO mappings).
// It is safe for concurrent use and purges expired entries opportunistically
// on writes, so no background goroutine is needed.
package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value   V
	expires time.Time
}

// TTL is a mutex-guarded map with per-cache TTL and an explicit invalidation
// hook. It is process-local: not shared across server instances, which is fine
// for a short-lived read cache whose misses just hit the database.
type TTL[V any] struct {
	mu      sync.Mutex
	entries map[string]entry[V]
	ttl     time.Duration

	// every N sets we purge expired entries
	setCount uint64
	purgeN   uint64

	now func() time.Time
}

// New creates a TTL cache. purgeEvery controls how often (every N Sets) the
// cache sweeps expired entries; <=0 uses a default of 256.
func New[V any](ttl time.Duration, purgeEvery int) *TTL[V] {
	if purgeEvery <= 0 {
		purgeEvery = 256
	}
	return &TTL[V]{
		entries: make(map[string]entry[V], 64),
		ttl:     ttl,
		purgeN:  uint64(purgeEvery),
		now:     time.Now,
	}
}

func (c *TTL[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || !e.expires.After(c.now()) {
		var zero V
		return zero, false
	}
	return e.value, true
}

func (c *TTL[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setCount++
	if c.setCount%c.purgeN == 0 {
		c.purgeLocked(c.now())
	}
	c.entries[key] = entry[V]{value: value, expires: c.now().Add(c.ttl)}
}

// Invalidate drops one key. Called whenever the underlying record changes
// (e.g. a subject's CLO definitions are edited).
func (c *TTL[V]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *TTL[V]) purgeLocked(now time.Time) {
	for k, e := range c.entries {
		if !e.expires.After(now) {
			delete(c.entries, k)
		}
	}
}
