// Package observe provides application-wide observability primitives for
// Vocap: OpenTelemetry metrics, distributed tracing, and structured logging
// helpers.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all Vocap metrics.
const meterName = "github.com/vocap/vocap"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms per pipeline stage ---

	// CaptureDuration tracks the wall-clock length of a recording session,
	// from device start to stop.
	CaptureDuration metric.Float64Histogram

	// STTDuration tracks speech-to-text transcription latency.
	STTDuration metric.Float64Histogram

	// --- Counters ---

	// CaptureStops counts finished recording sessions. Use with attribute:
	//   attribute.String("cause", ...)
	CaptureStops metric.Int64Counter

	// STTErrors counts failed transcription attempts.
	STTErrors metric.Int64Counter

	// --- Gauges ---

	// ActiveSessions tracks the number of live recording sessions.
	ActiveSessions metric.Int64UpDownCounter
}

// latencyBuckets defines histogram bucket boundaries (in seconds) optimised
// for voice-pipeline latencies.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// captureBuckets defines histogram bucket boundaries (in seconds) for full
// recording sessions, which run seconds rather than milliseconds.
var captureBuckets = []float64{
	0.5, 1, 2, 4, 8, 15, 30, 60,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.CaptureDuration, err = m.Float64Histogram("vocap.capture.duration",
		metric.WithDescription("Wall-clock length of a recording session."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(captureBuckets...),
	); err != nil {
		return nil, err
	}
	if met.STTDuration, err = m.Float64Histogram("vocap.stt.duration",
		metric.WithDescription("Latency of speech-to-text transcription."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.CaptureStops, err = m.Int64Counter("vocap.capture.stops",
		metric.WithDescription("Total finished recording sessions by stop cause."),
	); err != nil {
		return nil, err
	}
	if met.STTErrors, err = m.Int64Counter("vocap.stt.errors",
		metric.WithDescription("Total failed transcription attempts."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveSessions, err = m.Int64UpDownCounter("vocap.active_sessions",
		metric.WithDescription("Number of live recording sessions."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
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

// RecordStop is a convenience method that records a finished recording
// session: its wall-clock duration and a stop counter increment keyed by
// cause.
func (m *Metrics) RecordStop(ctx context.Context, cause string, seconds float64) {
	m.CaptureDuration.Record(ctx, seconds)
	m.CaptureStops.Add(ctx, 1,
		metric.WithAttributes(attribute.String("cause", cause)),
	)
}

// RecordSTT is a convenience method that records a transcription attempt.
// Failed attempts additionally increment the error counter.
func (m *Metrics) RecordSTT(ctx context.Context, seconds float64, err error) {
	m.STTDuration.Record(ctx, seconds)
	if err != nil {
		m.STTErrors.Add(ctx, 1)
	}
}
