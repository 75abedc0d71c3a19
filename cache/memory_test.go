package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/jonwraymond/remoteimage/raster"
)

func TestMemoryCache_GetSetRemove(t *testing.T) {
	cache := NewMemoryCache(DefaultLimits())
	ctx := context.Background()

	// Get on empty cache
	img, ok := cache.Get(ctx, "nonexistent")
	if ok {
		t.Error("Get on empty cache should return ok=false")
	}
	if img != nil {
		t.Error("Get on empty cache should return nil image")
	}

	key := "https://example.com/cat.png"
	want := testImage(4, 4)
	cache.Set(ctx, key, want)

	got, ok := cache.Get(ctx, key)
	if !ok {
		t.Fatal("Get after Set should return ok=true")
	}
	if got != want {
		t.Error("Get returned a different image than was set")
	}

	// Set to nil removes
	cache.Set(ctx, key, nil)
	if _, ok := cache.Get(ctx, key); ok {
		t.Error("Get after Set(nil) should return ok=false")
	}
	if cache.TotalCost() != 0 {
		t.Errorf("TotalCost after removal = %d, want 0", cache.TotalCost())
	}

	// Removing a missing key is a no-op
	cache.Set(ctx, "missing", nil)
}

func TestMemoryCache_SetOverwrite(t *testing.T) {
	cache := NewMemoryCache(Unbounded())
	ctx := context.Background()

	cache.Set(ctx, "k", testImage(2, 2))
	replacement := testImage(3, 3)
	cache.Set(ctx, "k", replacement)

	got, _ := cache.Get(ctx, "k")
	if got != replacement {
		t.Error("overwrite should replace the stored image")
	}
	if cache.Len() != 1 {
		t.Errorf("Len() = %d, want 1", cache.Len())
	}
	if cache.TotalCost() != 9 {
		t.Errorf("TotalCost() = %d, want 9", cache.TotalCost())
	}
}

func TestMemoryCache_CountLimit(t *testing.T) {
	const n = 3
	cache := NewMemoryCache(Unbounded())
	cache.ConfigureLimits(n, 0)
	ctx := context.Background()

	for i := 0; i <= n; i++ {
		cache.Set(ctx, fmt.Sprintf("key-%d", i), testImage(1, 1))
	}

	if cache.Len() > n {
		t.Errorf("Len() = %d, want at most %d", cache.Len(), n)
	}
	if cache.Stats().Evictions != 1 {
		t.Errorf("Evictions = %d, want 1", cache.Stats().Evictions)
	}
}

func TestMemoryCache_TotalCostLimit(t *testing.T) {
	cache := NewMemoryCache(Limits{TotalCostLimit: 100})
	ctx := context.Background()

	// Each image costs 36
	for i := 0; i < 5; i++ {
		cache.Set(ctx, fmt.Sprintf("key-%d", i), testImage(6, 6))
		if cache.TotalCost() > 100 {
			t.Fatalf("TotalCost() = %d exceeds limit 100", cache.TotalCost())
		}
	}
	if cache.Len() != 2 {
		t.Errorf("Len() = %d, want 2", cache.Len())
	}
}

func TestMemoryCache_OversizedEntryNotRetained(t *testing.T) {
	cache := NewMemoryCache(Limits{TotalCostLimit: 10})
	ctx := context.Background()

	cache.Set(ctx, "small", testImage(2, 2))
	cache.Set(ctx, "huge", testImage(10, 10))

	if _, ok := cache.Get(ctx, "huge"); ok {
		t.Error("entry costing more than the limit should not be cached")
	}
	if _, ok := cache.Get(ctx, "small"); !ok {
		t.Error("existing entry should survive an oversized insert")
	}
}

func TestMemoryCache_ZeroLimitsUnbounded(t *testing.T) {
	cache := NewMemoryCache(Limits{})
	ctx := context.Background()

	for i := 0; i < 500; i++ {
		cache.Set(ctx, fmt.Sprintf("key-%d", i), testImage(10, 10))
	}
	if cache.Len() != 500 {
		t.Errorf("Len() = %d, want 500", cache.Len())
	}
}

func TestMemoryCache_NegativeLimitsUnbounded(t *testing.T) {
	cache := NewMemoryCache(Limits{CountLimit: -1, TotalCostLimit: -5})
	if cache.Limits().Bounded() {
		t.Errorf("negative limits should normalize to unbounded, got %+v", cache.Limits())
	}
}

func TestMemoryCache_ConfigureLimitsEvictsImmediately(t *testing.T) {
	cache := NewMemoryCache(Unbounded())
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		cache.Set(ctx, fmt.Sprintf("key-%d", i), testImage(1, 1))
	}
	cache.ConfigureLimits(4, 0)

	if cache.Len() != 4 {
		t.Errorf("Len() after ConfigureLimits = %d, want 4", cache.Len())
	}
}

func TestMemoryCache_RecentlyUsedSurvives(t *testing.T) {
	var evicted []string
	cache := NewMemoryCache(Limits{CountLimit: 2}, WithEvictionCallback(func(key string, _ *raster.Image) {
		evicted = append(evicted, key)
	}))
	ctx := context.Background()

	cache.Set(ctx, "a", testImage(1, 1))
	cache.Set(ctx, "b", testImage(1, 1))
	cache.Get(ctx, "a")
	cache.Set(ctx, "c", testImage(1, 1))

	if len(evicted) != 1 || evicted[0] != "b" {
		t.Errorf("evicted = %v, want [b]", evicted)
	}
}

func TestMemoryCache_InvalidKeyIgnored(t *testing.T) {
	cache := NewMemoryCache(Unbounded())
	cache.Set(context.Background(), "", testImage(1, 1))

	if cache.Len() != 0 {
		t.Errorf("Len() = %d, want 0", cache.Len())
	}
}

func TestMemoryCache_StatsCountsLookups(t *testing.T) {
	cache := NewMemoryCache(Unbounded())
	ctx := context.Background()

	cache.Set(ctx, "k", testImage(2, 3))
	cache.Get(ctx, "k")
	cache.Get(ctx, "k")
	cache.Get(ctx, "missing")

	s := cache.Stats()
	if s.Hits != 2 || s.Misses != 1 {
		t.Errorf("Hits/Misses = %d/%d, want 2/1", s.Hits, s.Misses)
	}
	if s.Entries != 1 || s.TotalCost != 6 {
		t.Errorf("Entries/TotalCost = %d/%d, want 1/6", s.Entries, s.TotalCost)
	}
}

func TestMemoryCache_Flush(t *testing.T) {
	cache := NewMemoryCache(Unbounded())
	ctx := context.Background()

	cache.Set(ctx, "a", testImage(1, 1))
	cache.Set(ctx, "b", testImage(1, 1))
	cache.Flush()

	if cache.Len() != 0 || cache.TotalCost() != 0 {
		t.Errorf("after Flush Len=%d TotalCost=%d, want 0/0", cache.Len(), cache.TotalCost())
	}
}

func TestMemoryCache_ConcurrentAccess(t *testing.T) {
	cache := NewMemoryCache(Limits{CountLimit: 8, TotalCostLimit: 200})
	ctx := context.Background()

	const numGoroutines = 50
	const opsPerGoroutine = 500

	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < opsPerGoroutine; j++ {
				key := fmt.Sprintf("key-%d", (id+j)%16)
				switch j % 4 {
				case 0:
					cache.Set(ctx, key, testImage(3, 3))
				case 1:
					_, _ = cache.Get(ctx, key)
				case 2:
					cache.Set(ctx, key, nil)
				case 3:
					cache.ConfigureLimits(8, 200)
				}
			}
		}(i)
	}

	wg.Wait()

	s := cache.Stats()
	if s.Entries > 8 || s.TotalCost > 200 {
		t.Errorf("limits violated after concurrent use: %+v", s)
	}
}
