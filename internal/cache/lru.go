// ABOUTME: Thread-safe size-bounded LRU cache for retrieval results
// ABOUTME: Tracks hit/miss counts and normalizes free-text query keys

package cache

import (
	"fmt"
	"strings"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultSize is the capacity used when a non-positive size is requested.
const DefaultSize = 256

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Hits   uint64
	Misses uint64
	Len    int
}

// LRU is a fixed-capacity cache safe for concurrent use.
type LRU[K comparable, V any] struct {
	inner  *lru.Cache[K, V]
	hits   atomic.Uint64
	misses atomic.Uint64
}

// New creates an LRU holding at most size entries.
func New[K comparable, V any](size int) (*LRU[K, V], error) {
	if size <= 0 {
		size = DefaultSize
	}
	inner, err := lru.New[K, V](size)
	if err != nil {
		return nil, fmt.Errorf("creating lru: %w", err)
	}
	return &LRU[K, V]{inner: inner}, nil
}

// Get returns the cached value and marks it most recently used.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	v, ok := c.inner.Get(key)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return v, ok
}

// Add stores value under key, evicting the least recently used entry when
// the cache is full. Returns true if an eviction occurred.
func (c *LRU[K, V]) Add(key K, value V) bool {
	return c.inner.Add(key, value)
}

// Contains reports presence without updating recency or counters.
func (c *LRU[K, V]) Contains(key K) bool {
	return c.inner.Contains(key)
}

// Remove deletes key if present.
func (c *LRU[K, V]) Remove(key K) {
	c.inner.Remove(key)
}

// Purge drops every entry. Counters are kept.
func (c *LRU[K, V]) Purge() {
	c.inner.Purge()
}

// Len returns the number of cached entries.
func (c *LRU[K, V]) Len() int {
	return c.inner.Len()
}

// Stats returns the current counters.
func (c *LRU[K, V]) Stats() Stats {
	return Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Len:    c.inner.Len(),
	}
}

// NormalizeQuery lowercases q and collapses runs of whitespace.
func NormalizeQuery(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}
