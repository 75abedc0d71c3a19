package health

import (
	"context"
	"fmt"

	"github.com/jonwraymond/remoteimage/cache"
)

// DefaultWarningRatio is the occupancy above which a cache reports degraded.
const DefaultWarningRatio = 0.9

// CacheCheckerConfig configures a CacheChecker.
type CacheCheckerConfig struct {
	// Name is reported by Name(). Default: "image-cache".
	Name string

	// WarningRatio is the fraction of either limit that triggers degraded.
	// Values outside (0, 1] fall back to DefaultWarningRatio.
	WarningRatio float64
}

// CacheChecker reports image cache occupancy. A cache with no limits is
// always healthy. A cache holding more than WarningRatio of either limit is
// degraded, and one whose occupancy exceeds a limit is unhealthy.
type CacheChecker struct {
	stats  cache.StatsProvider
	config CacheCheckerConfig
}

// NewCacheChecker creates a checker over stats.
func NewCacheChecker(stats cache.StatsProvider, config CacheCheckerConfig) *CacheChecker {
	if config.Name == "" {
		config.Name = "image-cache"
	}
	if config.WarningRatio <= 0 || config.WarningRatio > 1 {
		config.WarningRatio = DefaultWarningRatio
	}
	return &CacheChecker{stats: stats, config: config}
}

// Name returns the configured checker name.
func (c *CacheChecker) Name() string {
	return c.config.Name
}

// Check samples the cache statistics.
func (c *CacheChecker) Check(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return Unhealthy("context cancelled", err)
	}

	s := c.stats.Stats()
	countRatio := ratio(int64(s.Entries), int64(s.Limits.CountLimit))
	costRatio := ratio(s.TotalCost, s.Limits.TotalCostLimit)
	usage := max(countRatio, costRatio)

	details := map[string]any{
		"entries":          s.Entries,
		"total_cost":       s.TotalCost,
		"count_limit":      s.Limits.CountLimit,
		"total_cost_limit": s.Limits.TotalCostLimit,
		"hits":             s.Hits,
		"misses":           s.Misses,
		"evictions":        s.Evictions,
		"hit_ratio":        s.HitRatio(),
		"usage_percent":    usage * 100,
	}

	switch {
	case !s.Limits.Bounded():
		return Healthy("cache unbounded").WithDetails(details)
	case s.Limits.Exceeded(s.Entries, s.TotalCost):
		return Unhealthy(fmt.Sprintf("cache over capacity: %.1f%%", usage*100), ErrCacheFull).
			WithDetails(details)
	case usage > c.config.WarningRatio:
		return Degraded(fmt.Sprintf("cache usage high: %.1f%%", usage*100)).WithDetails(details)
	default:
		return Healthy(fmt.Sprintf("cache usage normal: %.1f%%", usage*100)).WithDetails(details)
	}
}

func ratio(n, limit int64) float64 {
	if limit <= 0 {
		return 0
	}
	return float64(n) / float64(limit)
}
