package cache

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/jonwraymond/remoteimage/raster"
)

var (
	hitAttrs  = metric.WithAttributes(attribute.String("result", "hit"))
	missAttrs = metric.WithAttributes(attribute.String("result", "miss"))
)

// Metered wraps a Cache and records OpenTelemetry metrics for every call.
//
// Instruments:
//   - image.cache.get    counter, attribute result=hit|miss
//   - image.cache.set    counter of stores
//   - image.cache.remove counter of explicit removals (Set with nil)
//   - image.cache.entries, image.cache.cost observable gauges, registered
//     only when the inner cache implements StatsProvider
type Metered struct {
	inner   Cache
	gets    metric.Int64Counter
	sets    metric.Int64Counter
	removes metric.Int64Counter
	reg     metric.Registration
}

// NewMetered creates a metered cache wrapper using meter.
func NewMetered(inner Cache, meter metric.Meter) (*Metered, error) {
	gets, err := meter.Int64Counter(
		"image.cache.get",
		metric.WithDescription("Image cache lookups"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	sets, err := meter.Int64Counter(
		"image.cache.set",
		metric.WithDescription("Images stored in the cache"),
		metric.WithUnit("{image}"),
	)
	if err != nil {
		return nil, err
	}

	removes, err := meter.Int64Counter(
		"image.cache.remove",
		metric.WithDescription("Explicit image cache removals"),
		metric.WithUnit("{image}"),
	)
	if err != nil {
		return nil, err
	}

	m := &Metered{
		inner:   inner,
		gets:    gets,
		sets:    sets,
		removes: removes,
	}

	if sp, ok := inner.(StatsProvider); ok {
		entries, err := meter.Int64ObservableGauge(
			"image.cache.entries",
			metric.WithDescription("Images currently cached"),
			metric.WithUnit("{image}"),
		)
		if err != nil {
			return nil, err
		}
		cost, err := meter.Int64ObservableGauge(
			"image.cache.cost",
			metric.WithDescription("Total cost of cached images"),
			metric.WithUnit("{cost}"),
		)
		if err != nil {
			return nil, err
		}
		m.reg, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
			s := sp.Stats()
			o.ObserveInt64(entries, int64(s.Entries))
			o.ObserveInt64(cost, s.TotalCost)
			return nil
		}, entries, cost)
		if err != nil {
			return nil, err
		}
	}

	return m, nil
}

// Get looks up key and records a hit or miss.
func (m *Metered) Get(ctx context.Context, key string) (*raster.Image, bool) {
	img, ok := m.inner.Get(ctx, key)
	if ok {
		m.gets.Add(ctx, 1, hitAttrs)
	} else {
		m.gets.Add(ctx, 1, missAttrs)
	}
	return img, ok
}

// Set stores or removes key and records the operation.
func (m *Metered) Set(ctx context.Context, key string, img *raster.Image) {
	m.inner.Set(ctx, key, img)
	if img == nil {
		m.removes.Add(ctx, 1)
		return
	}
	m.sets.Add(ctx, 1)
}

// ConfigureLimits forwards to the inner cache.
func (m *Metered) ConfigureLimits(countLimit int, totalCostLimit int64) {
	m.inner.ConfigureLimits(countLimit, totalCostLimit)
}

// Stats returns the inner cache statistics, or the zero Stats if the inner
// cache does not expose them.
func (m *Metered) Stats() Stats {
	if sp, ok := m.inner.(StatsProvider); ok {
		return sp.Stats()
	}
	return Stats{}
}

// Close unregisters the gauge callback.
func (m *Metered) Close() error {
	if m.reg == nil {
		return nil
	}
	return m.reg.Unregister()
}

var (
	_ Cache         = (*Metered)(nil)
	_ StatsProvider = (*Metered)(nil)
)
