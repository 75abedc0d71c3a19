package cache

import "sync"

var (
	sharedOnce  sync.Once
	sharedCache *MemoryCache
)

// Shared returns the process-wide image cache, created on first use with
// DefaultLimits. Loaders constructed without a cache use it.
func Shared() *MemoryCache {
	sharedOnce.Do(func() {
		sharedCache = NewMemoryCache(DefaultLimits())
	})
	return sharedCache
}
