package observe

import (
	"context"
	"time"

	perrors "github.com/jmgilman/go/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records image load metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordLoad records one fetch-and-decode attempt.
	RecordLoad(ctx context.Context, meta ImageMeta, duration time.Duration, err error)
}

type loadMetrics struct {
	total    metric.Int64Counter
	errors   metric.Int64Counter
	duration metric.Float64Histogram
}

// NewMetrics creates Metrics backed by meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	total, err := meter.Int64Counter(
		"image.load.total",
		metric.WithDescription("Number of remote image loads attempted"),
		metric.WithUnit("{load}"),
	)
	if err != nil {
		return nil, err
	}

	errCount, err := meter.Int64Counter(
		"image.load.errors",
		metric.WithDescription("Number of remote image loads that failed"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"image.load.duration_ms",
		metric.WithDescription("Fetch and decode duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &loadMetrics{total: total, errors: errCount, duration: duration}, nil
}

func (m *loadMetrics) RecordLoad(ctx context.Context, meta ImageMeta, duration time.Duration, err error) {
	hostOpt := metric.WithAttributes(attribute.String("image.host", meta.Host()))

	m.total.Add(ctx, 1, hostOpt)
	if err != nil {
		m.errors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("image.host", meta.Host()),
			attribute.String("error.code", string(perrors.GetCode(err))),
		))
	}
	m.duration.Record(ctx, float64(duration.Microseconds())/1000, hostOpt)
}

// NopMetrics returns Metrics that records nothing.
func NopMetrics() Metrics { return nopMetrics{} }

type nopMetrics struct{}

func (nopMetrics) RecordLoad(context.Context, ImageMeta, time.Duration, error) {}
