package patternstore

import (
	"fmt"
	"sync"
)

// MemCache is a bounded, concurrency-safe key-value cache for computed
// day summaries. Eviction is oldest-inserted-first once the capacity is
// exceeded; no LRU-by-access guarantee. Constructed explicitly and owned
// by the query layer, never a process-wide singleton.
type MemCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]any
	order    []string
}

// DefaultCacheCapacity bounds the day cache when the caller gives none.
const DefaultCacheCapacity = 64

// NewMemCache creates a cache with the given capacity (entries).
func NewMemCache(capacity int) *MemCache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &MemCache{
		capacity: capacity,
		entries:  make(map[string]any),
	}
}

// CacheKey builds the in-memory key for one day summary: any change to
// the date's source files flips the day signature and misses the cache.
func CacheKey(date string, includeIncomplete bool, configHash, daySignature string) string {
	return fmt.Sprintf("%s|%t|%s|%s", date, includeIncomplete, configHash, daySignature)
}

// Get returns the cached value for a key.
func (c *MemCache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok
}

// Put inserts a value, evicting the oldest entries beyond capacity.
// Re-inserting an existing key keeps its original insertion position.
func (c *MemCache) Put(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		c.order = append(c.order, key)
	}
	c.entries[key] = value

	for len(c.entries) > c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
}

// Invalidate removes one key.
func (c *MemCache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; !ok {
		return
	}
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Purge drops every entry.
func (c *MemCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]any)
	c.order = nil
}

// Len returns the number of cached entries.
func (c *MemCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
