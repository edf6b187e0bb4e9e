package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// CacheMetrics records weather cache hits and remote fetches.
type CacheMetrics struct {
	provider      attribute.KeyValue
	fetchDuration metric.Float64Histogram
	fetchTotal    metric.Int64Counter
	cacheHits     metric.Int64Counter
	cacheMisses   metric.Int64Counter
}

// NewCacheMetrics creates the weather cache instruments on meter.
func NewCacheMetrics(meter metric.Meter, provider string) (*CacheMetrics, error) {
	fetchDuration, err := meter.Float64Histogram(
		"weather.fetch.duration",
		metric.WithDescription("Duration of remote weather fetches in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	fetchTotal, err := meter.Int64Counter(
		"weather.fetch.total",
		metric.WithDescription("Total number of remote weather fetches"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	cacheHits, err := meter.Int64Counter(
		"weather.cache.hit",
		metric.WithDescription("Number of requests served from the weather cache"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return nil, err
	}

	cacheMisses, err := meter.Int64Counter(
		"weather.cache.miss",
		metric.WithDescription("Number of requests that needed a remote fetch"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return nil, err
	}

	return &CacheMetrics{
		provider:      attribute.String("provider.name", provider),
		fetchDuration: fetchDuration,
		fetchTotal:    fetchTotal,
		cacheHits:     cacheHits,
		cacheMisses:   cacheMisses,
	}, nil
}

// RecordCacheHit counts a fresh cache read.
func (m *CacheMetrics) RecordCacheHit(ctx context.Context) {
	m.cacheHits.Add(ctx, 1, metric.WithAttributes(m.provider))
}

// RecordCacheMiss counts a read that fell through to the provider.
func (m *CacheMetrics) RecordCacheMiss(ctx context.Context) {
	m.cacheMisses.Add(ctx, 1, metric.WithAttributes(m.provider))
}

// RecordFetch records one remote fetch.
func (m *CacheMetrics) RecordFetch(ctx context.Context, duration time.Duration, err error) {
	attrs := metric.WithAttributes(m.provider, attribute.Bool("error", err != nil))
	m.fetchDuration.Record(ctx, duration.Seconds(), attrs)
	m.fetchTotal.Add(ctx, 1, attrs)
}
