package patternstore

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemCache_PutGet(t *testing.T) {
	c := NewMemCache(4)

	key := CacheKey("2026-02-18", false, "hash", "sig")
	c.Put(key, "report")

	v, ok := c.Get(key)
	assert.True(t, ok)
	assert.Equal(t, "report", v)

	_, ok = c.Get(CacheKey("2026-02-18", true, "hash", "sig"))
	assert.False(t, ok, "scope is part of the key")
}

func TestMemCache_EvictsOldestFirst(t *testing.T) {
	c := NewMemCache(2)

	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("c", 3)

	_, ok := c.Get("a")
	assert.False(t, ok, "oldest entry evicted at capacity")
	_, ok = c.Get("b")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Len())
}

func TestMemCache_ReinsertKeepsPosition(t *testing.T) {
	c := NewMemCache(2)

	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("a", 10) // still the oldest
	c.Put("c", 3)

	_, ok := c.Get("a")
	assert.False(t, ok)
	v, ok := c.Get("b")
	assert.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestMemCache_InvalidateAndPurge(t *testing.T) {
	c := NewMemCache(4)
	c.Put("a", 1)
	c.Put("b", 2)

	c.Invalidate("a")
	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())

	c.Invalidate("missing") // no-op

	c.Purge()
	assert.Equal(t, 0, c.Len())
}

func TestMemCache_ConcurrentAccess(t *testing.T) {
	c := NewMemCache(8)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("key-%d", n%4)
			for j := 0; j < 100; j++ {
				c.Put(key, j)
				c.Get(key)
			}
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Len(), 8)
}
