// Package cache is an in-memory TTL cache consulted before any network
// work. Entries are opaque scraped payloads; validity is decided per
// lookup, so callers with different freshness needs share one store.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// entry holds a cached payload with its creation timestamp.
type entry struct {
	value     any
	createdAt time.Time
}

// Cache is a simple in-memory cache for scrape payloads.
// It is safe for concurrent use.
type Cache struct {
	mu         sync.Mutex
	store      map[string]*entry
	defaultTTL time.Duration
	done       chan struct{}
}

// New creates a Cache. A background goroutine evicts entries older than
// defaultTTL every 5 minutes; Get additionally drops any logically
// expired entry it encounters.
func New(defaultTTL time.Duration) *Cache {
	if defaultTTL <= 0 {
		defaultTTL = time.Hour
	}
	c := &Cache{
		store:      make(map[string]*entry),
		defaultTTL: defaultTTL,
		done:       make(chan struct{}),
	}
	go c.cleanupLoop()
	return c
}

// Key generates a cache key from the scrape kind and its parameters.
func Key(parts ...string) string {
	h := sha256.New()
	for i, p := range parts {
		if i > 0 {
			h.Write([]byte("|"))
		}
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get retrieves a cached payload younger than ttl. ttl <= 0 uses the
// cache default. An expired entry is treated as absent and evicted.
func (c *Cache) Get(key string, ttl time.Duration) (any, bool) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.store[key]
	if !ok {
		return nil, false
	}
	if time.Since(e.createdAt) >= ttl {
		delete(c.store, key)
		return nil, false
	}
	return e.value, true
}

// Set stores a payload unconditionally, resetting its creation time.
func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[key] = &entry{
		value:     value,
		createdAt: time.Now(),
	}
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store = make(map[string]*entry)
}

// Len returns the number of stored entries, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.store)
}

// Stop terminates the background cleanup goroutine.
func (c *Cache) Stop() {
	close(c.done)
}

// cleanupLoop evicts entries older than the default TTL every 5 minutes.
func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-c.defaultTTL)
			c.mu.Lock()
			for k, e := range c.store {
				if e.createdAt.Before(cutoff) {
					delete(c.store, k)
				}
			}
			c.mu.Unlock()
		}
	}
}
