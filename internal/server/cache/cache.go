// Package cache provides short-lived per-client request counters for the
// HTTP server. It wraps patrickmn/go-cache, which expires entries on its
// own janitor goroutine.
package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache holds expiring counters.
type Cache struct {
	store *gocache.Cache
}

// New creates a cache whose entries expire after defaultTTL and are purged
// every cleanupInterval.
func New(defaultTTL, cleanupInterval time.Duration) *Cache {
	return &Cache{
		store: gocache.New(defaultTTL, cleanupInterval),
	}
}

// Increment adds one to the counter at key and returns the new value.
// A missing or expired counter starts at one and lives for ttl; later
// increments do not extend it, so the counter describes a fixed window.
func (c *Cache) Increment(key string, ttl time.Duration) int {
	for {
		if err := c.store.Add(key, 1, ttl); err == nil {
			return 1
		}
		n, err := c.store.IncrementInt(key, 1)
		if err == nil {
			return n
		}
		// Expired between Add and IncrementInt, or holds a non-int value.
		c.store.Delete(key)
	}
}
