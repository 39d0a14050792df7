// Package cache is the Query Cache (spec.md §4.8): a process-wide bounded
// map with per-entry TTL and FIFO eviction, consumed by the execution layer
// when a select builder opts in via `.Cache(ttl)`.
package cache

import (
	"sync"
	"time"
)

// defaultMaxSize is the bound applied when New is called with maxSize <= 0,
// matching spec.md §4.6 "bounded (default 100 entries)".
const defaultMaxSize = 100

// entry carries a cached value plus its expiry, per spec.md §4.8 "Entries
// carry {data, expiresAt}".
type entry struct {
	data      any
	expiresAt time.Time
}

// Cache is a bounded, TTL-aware, FIFO-eviction map. The zero value is not
// usable; construct with New. A Cache is safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	order   []string // insertion order, oldest first, for FIFO eviction
	maxSize int
}

// New returns a Cache bounded at maxSize entries (defaultMaxSize if maxSize
// is not positive).
func New(maxSize int) *Cache {
	if maxSize <= 0 {
		maxSize = defaultMaxSize
	}
	return &Cache{
		entries: make(map[string]*entry),
		maxSize: maxSize,
	}
}

var (
	defaultOnce sync.Once
	defaultC    *Cache
)

// Default returns the process-wide singleton Cache, constructed lazily on
// first use (spec.md §3 "Ownership": "The query cache is a process-wide
// bounded map").
func Default() *Cache {
	defaultOnce.Do(func() { defaultC = New(defaultMaxSize) })
	return defaultC
}

// Get returns the cached value for key and true, or (nil, false) when the
// entry is missing or past its expiry — stale entries are dropped lazily on
// access (spec.md §4.8 "get returns absent when the entry is missing or past
// its expiry").
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		c.removeLocked(key)
		return nil, false
	}
	return e.data, true
}

// Set stores data under key with the given ttl, evicting the oldest entry
// (by insertion order) if the cache is at capacity (spec.md §4.8 "Eviction
// on overflow removes the oldest entry").
func (c *Cache) Set(key string, data any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; !exists {
		if len(c.order) >= c.maxSize {
			oldest := c.order[0]
			c.removeLocked(oldest)
		}
		c.order = append(c.order, key)
	}
	c.entries[key] = &entry{data: data, expiresAt: time.Now().Add(ttl)}
}

// Clear empties the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
	c.order = nil
}

// SetMaxSize changes the cache's capacity, evicting the oldest entries
// immediately if the new size is smaller than the current entry count.
func (c *Cache) SetMaxSize(maxSize int) {
	if maxSize <= 0 {
		maxSize = defaultMaxSize
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maxSize = maxSize
	for len(c.order) > c.maxSize {
		c.removeLocked(c.order[0])
	}
}

// Len returns the current entry count, including any not-yet-lazily-expired
// stale entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.order)
}

// removeLocked deletes key from both the entry map and the insertion-order
// slice. Callers must hold c.mu.
func (c *Cache) removeLocked(key string) {
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}
