// SPDX-License-Identifier: MIT

package googleauth

import (
	"sync"
	"time"
)

// cached is a single time-bounded artifact slot. Each slot carries its own
// fetch timestamp and TTL; there is deliberately no shared "last updated"
// flag across the session's artifacts.
//
// The mutex guards only the slot swap, not the refresh itself: two callers
// observing a stale slot may both refresh, and the last writer wins. Tokens
// are cheap to re-fetch and the refresh is idempotent for the caller.
type cached[T any] struct {
	mu        sync.Mutex
	value     T
	fetchedAt time.Time
	ttl       time.Duration
}

func newCached[T any](ttl time.Duration) *cached[T] {
	return &cached[T]{ttl: ttl}
}

// get returns the value if it is fresh at the given instant.
func (c *cached[T]) get(now time.Time) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fetchedAt.IsZero() || now.Sub(c.fetchedAt) > c.ttl {
		var zero T
		return zero, false
	}
	return c.value, true
}

// put replaces the slot wholesale with a freshly fetched value. A failed
// refresh must not call put, so the previous (stale but possibly still
// valid) value stays available for the next attempt.
func (c *cached[T]) put(v T, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = v
	c.fetchedAt = now
}
