// Package observe provides observability primitives for Futuresight:
// OpenTelemetry metrics, a Prometheus exporter bridge, and HTTP middleware
// that records per-request latency and logs completion.
//
// Metrics are recorded through the OpenTelemetry Metrics API and scraped via
// the standard /metrics endpoint. A package-level default [Metrics] instance
// ([DefaultMetrics]) is provided for convenience; tests should use
// [NewMetrics] with a custom [metric.MeterProvider] to avoid cross-test
// pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all Futuresight
// metrics.
const meterName = "github.com/letruong/futuresight"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// TextGenDuration tracks narrative text generation latency.
	TextGenDuration metric.Float64Histogram

	// SpeechGenDuration tracks speech synthesis latency.
	SpeechGenDuration metric.Float64Histogram

	// HTTPRequestDuration tracks HTTP request processing time. Use with
	// attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram

	// GenerationRequests counts generation attempts. Use with attributes:
	//   attribute.String("kind", "text"|"speech"), attribute.String("status", "ok"|"error"|"busy")
	GenerationRequests metric.Int64Counter

	// ProviderErrors counts upstream provider failures. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...)
	ProviderErrors metric.Int64Counter

	// DecodeErrors counts audio payloads that could not be decoded.
	DecodeErrors metric.Int64Counter

	// ActiveSessions tracks the number of live visualization sessions.
	ActiveSessions metric.Int64UpDownCounter

	// ActivePlaybacks tracks the number of audio streams currently playing.
	ActivePlaybacks metric.Int64UpDownCounter
}

// latencyBuckets defines histogram bucket boundaries (in seconds). Generation
// calls routinely take several seconds, so the buckets stretch further than
// typical HTTP latencies.
var latencyBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 40,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.TextGenDuration, err = m.Float64Histogram("futuresight.textgen.duration",
		metric.WithDescription("Latency of narrative text generation."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.SpeechGenDuration, err = m.Float64Histogram("futuresight.speechgen.duration",
		metric.WithDescription("Latency of speech synthesis."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("futuresight.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	if met.GenerationRequests, err = m.Int64Counter("futuresight.generation.requests",
		metric.WithDescription("Total generation attempts by kind and status."),
	); err != nil {
		return nil, err
	}
	if met.ProviderErrors, err = m.Int64Counter("futuresight.provider.errors",
		metric.WithDescription("Total upstream provider errors by provider and kind."),
	); err != nil {
		return nil, err
	}
	if met.DecodeErrors, err = m.Int64Counter("futuresight.audio.decode_errors",
		metric.WithDescription("Total audio payloads that failed to decode."),
	); err != nil {
		return nil, err
	}

	if met.ActiveSessions, err = m.Int64UpDownCounter("futuresight.active_sessions",
		metric.WithDescription("Number of live visualization sessions."),
	); err != nil {
		return nil, err
	}
	if met.ActivePlaybacks, err = m.Int64UpDownCounter("futuresight.active_playbacks",
		metric.WithDescription("Number of audio streams currently playing."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordGeneration records one generation attempt with the standard
// attribute set.
func (m *Metrics) RecordGeneration(ctx context.Context, kind, status string) {
	m.GenerationRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("kind", kind),
			attribute.String("status", status),
		),
	)
}

// RecordProviderError records one upstream provider failure.
func (m *Metrics) RecordProviderError(ctx context.Context, provider, kind string) {
	m.ProviderErrors.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
		),
	)
}
