package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// UpstreamMetrics records calls made to the route backend.
type UpstreamMetrics struct {
	duration metric.Float64Histogram
	total    metric.Int64Counter
	cache    metric.Int64Counter
}

// NewUpstreamMetrics registers the upstream instruments on the global meter.
func NewUpstreamMetrics() (*UpstreamMetrics, error) {
	meter := otel.Meter(InstrumentationName)

	duration, err := meter.Float64Histogram(
		"touchgrass.upstream.duration",
		metric.WithDescription("Duration of route backend calls in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	total, err := meter.Int64Counter(
		"touchgrass.upstream.requests",
		metric.WithDescription("Route backend calls by operation and outcome"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	cache, err := meter.Int64Counter(
		"touchgrass.cache.lookups",
		metric.WithDescription("Local cache lookups in front of the backend"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	return &UpstreamMetrics{duration: duration, total: total, cache: cache}, nil
}

// RecordCall records one backend operation. A nil receiver is a no-op.
func (m *UpstreamMetrics) RecordCall(ctx context.Context, operation string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("upstream.operation", operation),
		attribute.Bool("error", err != nil),
	)
	m.duration.Record(context.WithoutCancel(ctx), elapsed.Seconds(), attrs)
	m.total.Add(context.WithoutCancel(ctx), 1, attrs)
}

// RecordCache records a cache lookup for the named cache.
func (m *UpstreamMetrics) RecordCache(ctx context.Context, cache string, hit bool) {
	if m == nil {
		return
	}
	m.cache.Add(context.WithoutCancel(ctx), 1, metric.WithAttributes(
		attribute.String("cache.name", cache),
		attribute.Bool("cache.hit", hit),
	))
}

// RouteMetrics records route generation outcomes.
type RouteMetrics struct {
	generated metric.Int64Counter
	places    metric.Int64Histogram
}

// NewRouteMetrics registers the route instruments on the global meter.
func NewRouteMetrics() (*RouteMetrics, error) {
	meter := otel.Meter(InstrumentationName)

	generated, err := meter.Int64Counter(
		"touchgrass.routes.generated",
		metric.WithDescription("Route generations by vibe, shape and outcome"),
		metric.WithUnit("{route}"),
	)
	if err != nil {
		return nil, err
	}

	places, err := meter.Int64Histogram(
		"touchgrass.routes.places",
		metric.WithDescription("Curated places shown per generated route"),
		metric.WithUnit("{place}"),
	)
	if err != nil {
		return nil, err
	}

	return &RouteMetrics{generated: generated, places: places}, nil
}

// RecordGeneration records a generation attempt; places is ignored on failure.
func (m *RouteMetrics) RecordGeneration(ctx context.Context, vibe, shape string, places int, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("route.vibe", vibe),
		attribute.String("route.shape", shape),
		attribute.Bool("error", err != nil),
	)
	ctx = context.WithoutCancel(ctx)
	m.generated.Add(ctx, 1, attrs)
	if err == nil {
		m.places.Record(ctx, int64(places), attrs)
	}
}
