// Package cache provides a small in-process TTL cache. The daemon runs as
// a single local process, so entries live in memory rather than an
// external store.
package cache

import (
	"sync"
	"time"
)

// Clock supplies the current time. Tests inject a fake; production code
// uses SystemClock.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

type entry struct {
	value     string
	expiresAt time.Time
}

// TTL is a string-keyed cache whose entries expire after a fixed
// duration. Safe for concurrent use.
type TTL struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	clock   Clock
}

// New creates a cache whose entries live for ttl. A nil clock uses the
// system clock; a non-positive ttl disables caching entirely.
func New(ttl time.Duration, clock Clock) *TTL {
	if clock == nil {
		clock = SystemClock{}
	}
	return &TTL{
		entries: make(map[string]entry),
		ttl:     ttl,
		clock:   clock,
	}
}

// Get returns the cached value for key, or false when the key is absent
// or expired. Expired entries are dropped on access.
func (c *TTL) Get(key string) (string, bool) {
	if c.ttl <= 0 {
		return "", false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return "", false
	}
	if c.clock.Now().After(e.expiresAt) {
		delete(c.entries, key)
		return "", false
	}
	return e.value, true
}

// Set stores value under key with a fresh TTL.
func (c *TTL) Set(key, value string) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: value, expiresAt: c.clock.Now().Add(c.ttl)}
}

// Invalidate drops one key.
func (c *TTL) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Purge drops every expired entry. The daemon calls this periodically so
// abandoned keys do not accumulate.
func (c *TTL) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.clock.Now()
	dropped := 0
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
			dropped++
		}
	}
	return dropped
}

// Len reports the number of live and expired entries currently held.
func (c *TTL) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
