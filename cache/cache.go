package cache

import (
	"context"
	"errors"
	"strings"

	"github.com/jonwraymond/remoteimage/raster"
)

// MaxKeyLength is the maximum allowed length for a cache key.
const MaxKeyLength = 512

// Sentinel errors for cache keys.
var (
	ErrInvalidKey = errors.New("cache: key is invalid")
	ErrKeyTooLong = errors.New("cache: key exceeds max length")
)

// Cache stores decoded images keyed by resource locator.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use and may be
//   shared by many loaders.
// - Context: ctx is used for telemetry only; methods must not block on I/O.
// - Errors: none. Get returns (nil, false) on miss; Set never fails.
// - Eviction: entries may disappear at any time once limits are exceeded.
//   Which entry is evicted is unspecified.
type Cache interface {
	// Get retrieves a cached image. Returns (nil, false) on miss.
	Get(ctx context.Context, key string) (*raster.Image, bool)

	// Set stores img under key. A nil img removes the entry.
	Set(ctx context.Context, key string, img *raster.Image)

	// ConfigureLimits sets the entry-count and total-cost limits.
	// A zero or negative value leaves that dimension unbounded.
	ConfigureLimits(countLimit int, totalCostLimit int64)
}

// StatsProvider is implemented by caches that expose occupancy statistics.
type StatsProvider interface {
	Stats() Stats
}

// Stats is a point-in-time view of a cache.
type Stats struct {
	Entries   int
	TotalCost int64
	Limits    Limits
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// HitRatio returns hits / (hits + misses), or 0 before any lookup.
func (s Stats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// ValidateKey checks if a key is valid for caching.
func ValidateKey(key string) error {
	if key == "" || strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	if strings.ContainsAny(key, "\n\r") {
		return ErrInvalidKey
	}
	return nil
}
