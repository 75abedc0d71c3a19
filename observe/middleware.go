package observe

import (
	"context"
	"time"
)

// LoadFunc performs one fetch-and-decode attempt for an image.
type LoadFunc func(ctx context.Context, meta ImageMeta) error

// Middleware wraps image loads with tracing, metrics and logging.
//
// Contract:
//   - Concurrency: Wrap returns a LoadFunc safe for concurrent use.
//   - Context: the span context is passed to the wrapped function.
//   - Errors: errors from the wrapped function are recorded and returned unchanged.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a Middleware. Nil components are replaced with no-ops.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	if tracer == nil {
		tracer = NopTracer()
	}
	if metrics == nil {
		metrics = NopMetrics()
	}
	if logger == nil {
		logger = NopLogger()
	}
	return &Middleware{tracer: tracer, metrics: metrics, logger: logger}
}

// Wrap returns fn instrumented with a span, load metrics and a completion
// log entry.
func (m *Middleware) Wrap(fn LoadFunc) LoadFunc {
	return func(ctx context.Context, meta ImageMeta) error {
		if err := meta.Validate(); err != nil {
			return err
		}

		ctx, span := m.tracer.StartSpan(ctx, meta)
		start := time.Now()

		err := fn(ctx, meta)

		duration := time.Since(start)
		m.tracer.EndSpan(span, err)
		m.metrics.RecordLoad(ctx, meta, duration, err)

		log := m.logger.WithImage(meta)
		fields := []Field{{Key: "duration_ms", Value: float64(duration.Microseconds()) / 1000}}
		if err != nil {
			fields = append(fields, Field{Key: "error", Value: err.Error()})
			log.Error(ctx, "image fetch attempt failed", fields...)
		} else {
			log.Debug(ctx, "image fetch attempt completed", fields...)
		}
		return err
	}
}

// MiddlewareFromObserver creates a Middleware from an Observer.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}
	metrics, err := NewMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}
	return NewMiddleware(NewTracer(obs.Tracer()), metrics, obs.Logger()), nil
}
