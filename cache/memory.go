package cache

import (
	"container/list"
	"context"
	"sync"

	"github.com/jonwraymond/remoteimage/raster"
)

// MemoryCache is an in-memory image cache bounded by entry count and total
// cost. When a limit is exceeded the least recently used entries are
// evicted, though callers must not rely on the victim order.
type MemoryCache struct {
	mu        sync.Mutex
	entries   map[string]*list.Element
	recency   *list.List // front = most recently used
	totalCost int64
	limits    Limits
	onEvict   func(key string, img *raster.Image)

	hits      uint64
	misses    uint64
	evictions uint64
}

type cacheEntry struct {
	key  string
	img  *raster.Image
	cost int64
}

// MemoryOption configures a MemoryCache.
type MemoryOption func(*MemoryCache)

// WithEvictionCallback registers fn to be called for every entry removed by
// the capacity policy. fn runs with the cache lock held and must not call
// back into the cache.
func WithEvictionCallback(fn func(key string, img *raster.Image)) MemoryOption {
	return func(c *MemoryCache) {
		c.onEvict = fn
	}
}

// NewMemoryCache creates a new in-memory cache with the given limits.
func NewMemoryCache(limits Limits, opts ...MemoryOption) *MemoryCache {
	c := &MemoryCache{
		entries: make(map[string]*list.Element),
		recency: list.New(),
		limits:  limits.normalized(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get retrieves an image and marks it as recently used.
func (c *MemoryCache) Get(_ context.Context, key string) (*raster.Image, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}
	c.hits++
	c.recency.MoveToFront(elem)
	return elem.Value.(*cacheEntry).img, true
}

// Set stores an image. A nil image removes the entry. Images whose cost
// alone exceeds the total-cost limit are not retained.
func (c *MemoryCache) Set(_ context.Context, key string, img *raster.Image) {
	if ValidateKey(key) != nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		c.removeElement(elem)
	}
	if img == nil {
		return
	}

	cost := img.Cost()
	if !c.limits.Admits(cost) {
		return
	}

	e := &cacheEntry{key: key, img: img, cost: cost}
	c.entries[key] = c.recency.PushFront(e)
	c.totalCost += cost

	c.evictLocked()
}

// ConfigureLimits replaces the limits and evicts immediately if the cache
// is now over capacity.
func (c *MemoryCache) ConfigureLimits(countLimit int, totalCostLimit int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.limits = Limits{CountLimit: countLimit, TotalCostLimit: totalCostLimit}.normalized()
	c.evictLocked()
}

// Limits returns the current limits.
func (c *MemoryCache) Limits() Limits {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.limits
}

// Len returns the number of entries.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// TotalCost returns the sum of entry costs.
func (c *MemoryCache) TotalCost() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalCost
}

// Stats returns a snapshot of occupancy and lookup counters.
func (c *MemoryCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Entries:   len(c.entries),
		TotalCost: c.totalCost,
		Limits:    c.limits,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
}

// Flush removes all entries. Lookup counters are preserved.
func (c *MemoryCache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*list.Element)
	c.recency.Init()
	c.totalCost = 0
}

func (c *MemoryCache) evictLocked() {
	for c.limits.Exceeded(len(c.entries), c.totalCost) {
		back := c.recency.Back()
		if back == nil {
			return
		}
		e := c.removeElement(back)
		c.evictions++
		if c.onEvict != nil {
			c.onEvict(e.key, e.img)
		}
	}
}

func (c *MemoryCache) removeElement(elem *list.Element) *cacheEntry {
	e := elem.Value.(*cacheEntry)
	delete(c.entries, e.key)
	c.recency.Remove(elem)
	c.totalCost -= e.cost
	return e
}

var (
	_ Cache         = (*MemoryCache)(nil)
	_ StatsProvider = (*MemoryCache)(nil)
)
