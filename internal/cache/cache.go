// Package cache provides an in-memory TTL cache with ETag support.
//
// Values are stored as immutable snapshots: Set replaces an entry wholesale
// under the write lock, so a reader sees either the old snapshot or the new
// one, never a mix.
package cache

import (
	"crypto/md5"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// TTLFeed is how long a feed snapshot stays fresh.
const TTLFeed = 6 * time.Hour

type entry[T any] struct {
	value     T
	fetchedAt time.Time
	expiresAt time.Time
}

// Cache is a thread-safe in-memory TTL cache.
type Cache[T any] struct {
	mu      sync.RWMutex
	entries map[string]entry[T]
	enabled bool
	clock   clockwork.Clock
}

// New creates a new cache. Pass enabled=false to create a no-op cache.
// A nil clock uses real time.
func New[T any](enabled bool, clock clockwork.Clock) *Cache[T] {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Cache[T]{
		entries: make(map[string]entry[T]),
		enabled: enabled,
		clock:   clock,
	}
}

// Get retrieves a fresh value and the time it was stored.
func (c *Cache[T]) Get(key string) (value T, fetchedAt time.Time, ok bool) {
	if !c.enabled {
		return value, time.Time{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, exists := c.entries[key]
	if !exists || !c.clock.Now().Before(e.expiresAt) {
		return value, time.Time{}, false
	}
	return e.value, e.fetchedAt, true
}

// Set stores a value with a TTL and returns its fetch time.
func (c *Cache[T]) Set(key string, value T, ttl time.Duration) time.Time {
	now := c.clock.Now()
	if !c.enabled {
		return now
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[T]{
		value:     value,
		fetchedAt: now,
		expiresAt: now.Add(ttl),
	}
	return now
}

// Stats describes the cache contents at a point in time.
type Stats struct {
	Enabled     bool `json:"enabled"`
	TotalKeys   int  `json:"total_keys"`
	ActiveKeys  int  `json:"active_keys"`
	ExpiredKeys int  `json:"expired_keys"`
}

// Stats returns cache statistics.
func (c *Cache[T]) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	active := 0
	now := c.clock.Now()
	for _, e := range c.entries {
		if now.Before(e.expiresAt) {
			active++
		}
	}
	return Stats{
		Enabled:     c.enabled,
		TotalKeys:   len(c.entries),
		ActiveKeys:  active,
		ExpiredKeys: len(c.entries) - active,
	}
}

// Evict removes expired entries and returns how many were dropped.
func (c *Cache[T]) Evict() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.clock.Now()
	n := 0
	for key, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, key)
			n++
		}
	}
	return n
}

// ComputeETag generates a weak ETag from response data using MD5.
func ComputeETag(data []byte) string {
	hash := md5.Sum(data)
	return fmt.Sprintf(`W/"%x"`, hash[:8])
}

// CheckETagMatch checks if If-None-Match header matches the current ETag.
func CheckETagMatch(ifNoneMatch, etag string) bool {
	if ifNoneMatch == "" {
		return false
	}
	if ifNoneMatch == "*" {
		return true
	}
	return ifNoneMatch == etag
}
