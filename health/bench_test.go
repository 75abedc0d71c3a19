package health

import (
	"context"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/jonwraymond/remoteimage/cache"
)

func BenchmarkCacheChecker_Check(b *testing.B) {
	checker := NewCacheChecker(cache.NewMemoryCache(cache.DefaultLimits()), CacheCheckerConfig{})
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = checker.Check(ctx)
	}
}

func BenchmarkAggregator_CheckAll(b *testing.B) {
	for _, n := range []int{1, 10} {
		b.Run(fmt.Sprintf("checkers=%d", n), func(b *testing.B) {
			agg := NewAggregator()
			for i := 0; i < n; i++ {
				name := fmt.Sprintf("c%d", i)
				agg.Register(name, fixed(name, Healthy("ok")))
			}
			ctx := context.Background()

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_ = agg.CheckAll(ctx)
			}
		})
	}
}

func BenchmarkDetailedHandler(b *testing.B) {
	agg := NewAggregator()
	agg.Register("cache", NewCacheChecker(cache.NewMemoryCache(cache.DefaultLimits()), CacheCheckerConfig{}))
	handler := DetailedHandler(agg)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rec := httptest.NewRecorder()
		handler(rec, httptest.NewRequest("GET", "/health", nil))
	}
}
