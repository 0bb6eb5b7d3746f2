// Package observe provides application-wide observability primitives for
// guildmcp: OpenTelemetry metrics, distributed tracing, structured logging,
// and the HTTP/dispatch middleware that ties them together.
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

// meterName is the instrumentation scope name used for all guildmcp metrics.
const meterName = "github.com/MrWong99/guildmcp"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// DispatchDuration tracks how long a single JSON-RPC request or
	// notification takes to pass through the full middleware chain.
	// Use with attributes: attribute.String("method", ...), attribute.String("status", ...)
	DispatchDuration metric.Float64Histogram

	// DispatchCalls counts every request/notification dispatched, by
	// method and outcome.
	DispatchCalls metric.Int64Counter

	// ToolCalls counts tools/call invocations by tool name and status.
	ToolCalls metric.Int64Counter

	// RateLimitDenials counts requests rejected by the rate-limit
	// middleware, by manifest kind and key.
	RateLimitDenials metric.Int64Counter

	// CheckFailures counts requests rejected by a manifest's checks,
	// by manifest kind and key.
	CheckFailures metric.Int64Counter

	// ActiveSessions tracks the number of live MCP sessions (stdio: at
	// most one; streamable-HTTP: one per connected client).
	ActiveSessions metric.Int64UpDownCounter

	// HTTPRequestDuration tracks HTTP request processing time for the
	// auxiliary endpoints (streamable-HTTP transport, /healthz,
	// /metrics). Use with attributes: attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) for
// request/tool-call latencies.
var latencyBuckets = []float64{
	0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.DispatchDuration, err = m.Float64Histogram("guildmcp.dispatch.duration",
		metric.WithDescription("Latency of a JSON-RPC request or notification through the middleware chain."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	if met.DispatchCalls, err = m.Int64Counter("guildmcp.dispatch.calls",
		metric.WithDescription("Total requests/notifications dispatched, by method and status."),
	); err != nil {
		return nil, err
	}
	if met.ToolCalls, err = m.Int64Counter("guildmcp.tool.calls",
		metric.WithDescription("Total tools/call invocations by tool name and status."),
	); err != nil {
		return nil, err
	}
	if met.RateLimitDenials, err = m.Int64Counter("guildmcp.rate_limit.denials",
		metric.WithDescription("Total requests rejected by the rate-limit middleware."),
	); err != nil {
		return nil, err
	}
	if met.CheckFailures, err = m.Int64Counter("guildmcp.check.failures",
		metric.WithDescription("Total requests rejected by a manifest's checks."),
	); err != nil {
		return nil, err
	}

	if met.ActiveSessions, err = m.Int64UpDownCounter("guildmcp.active_sessions",
		metric.WithDescription("Number of live MCP sessions."),
	); err != nil {
		return nil, err
	}

	if met.HTTPRequestDuration, err = m.Float64Histogram("guildmcp.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
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

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordDispatch records one request/notification's duration and outcome.
func (m *Metrics) RecordDispatch(ctx context.Context, method, status string, duration float64) {
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("status", status),
	)
	m.DispatchCalls.Add(ctx, 1, attrs)
	m.DispatchDuration.Record(ctx, duration, attrs)
}

// RecordToolCall records a tools/call invocation outcome.
func (m *Metrics) RecordToolCall(ctx context.Context, tool, status string) {
	m.ToolCalls.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("tool", tool),
			attribute.String("status", status),
		),
	)
}

// RecordRateLimitDenial records a rate-limit rejection for a manifest.
func (m *Metrics) RecordRateLimitDenial(ctx context.Context, kind, key string) {
	m.RateLimitDenials.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("kind", kind),
			attribute.String("key", key),
		),
	)
}

// RecordCheckFailure records a check rejection for a manifest.
func (m *Metrics) RecordCheckFailure(ctx context.Context, kind, key string) {
	m.CheckFailures.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("kind", kind),
			attribute.String("key", key),
		),
	)
}
