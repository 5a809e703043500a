// Package dedupcache implements a per-process, TTL'd write dedup cache: a
// fast in-memory guard that prevents a second write of identical content
// within a short window, complementary to (not a replacement for) the
// durable content_hash unique index enforced by the storage layer.
package dedupcache

import (
	"sync"
	"time"
)

// DefaultTTL is the dedup window.
const DefaultTTL = 5 * time.Minute

// Cache is scoped per open Engine/DB rather than shared process-wide, so
// two databases opened in the same process never suppress each other's
// writes.
type Cache struct {
	ttl     time.Duration
	mu      sync.Mutex
	entries map[string]time.Time // contentHash -> expiry
}

// New creates a dedup cache with the given TTL. A zero ttl uses DefaultTTL.
func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{ttl: ttl, entries: make(map[string]time.Time)}
}

// SeenRecently reports whether contentHash was recorded within the TTL
// window and, if not, records it now. This is the single check-and-set
// operation hook-path writers should call before reaching storage.
func (c *Cache) SeenRecently(contentHash string) bool {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()

	c.evictExpiredLocked(now)

	if exp, ok := c.entries[contentHash]; ok && now.Before(exp) {
		return true
	}
	c.entries[contentHash] = now.Add(c.ttl)
	return false
}

// evictExpiredLocked drops stale entries. Called with mu held.
func (c *Cache) evictExpiredLocked(now time.Time) {
	for hash, exp := range c.entries {
		if now.After(exp) {
			delete(c.entries, hash)
		}
	}
}

// Len returns the number of live entries, for tests and stats reporting.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.evictExpiredLocked(time.Now())
	return len(c.entries)
}
