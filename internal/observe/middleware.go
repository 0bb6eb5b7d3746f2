package observe

import (
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/MrWong99/guildmcp/internal/mcperr"
	"github.com/MrWong99/guildmcp/internal/middleware"
)

// DispatchMetrics wraps the JSON-RPC dispatch chain with span creation and
// [Metrics] recording: one span per request/notification, a dispatch
// duration/count sample on every outcome, and a dedicated counter bump when
// the error classifies as RateLimitExceeded or CheckFailure.
type DispatchMetrics struct {
	Metrics *Metrics
}

// NewDispatchMetrics returns a DispatchMetrics middleware backed by m, or
// [DefaultMetrics] if m is nil.
func NewDispatchMetrics(m *Metrics) *DispatchMetrics {
	if m == nil {
		m = DefaultMetrics()
	}
	return &DispatchMetrics{Metrics: m}
}

func (d *DispatchMetrics) Wrap(next middleware.Next) middleware.Next {
	return func(ctx *middleware.Context) (any, error) {
		spanCtx, span := StartSpan(ctx.Context, "mcp.dispatch "+ctx.Method,
			trace.WithAttributes(attribute.String("mcp.method", ctx.Method)),
		)
		ctx.Context = spanCtx
		start := time.Now()

		result, err := next(ctx)
		duration := time.Since(start).Seconds()

		status := "ok"
		if err != nil {
			classified := mcperr.Classify(err)
			status = classified.Kind.String()
			if ctx.HasManifest {
				switch classified.Kind {
				case mcperr.RateLimitExceeded:
					d.Metrics.RecordRateLimitDenial(ctx.Context, ctx.ManifestKind.String(), ctx.ManifestKey)
				case mcperr.CheckFailure:
					d.Metrics.RecordCheckFailure(ctx.Context, ctx.ManifestKind.String(), ctx.ManifestKey)
				}
			}
			span.RecordError(err)
		}
		d.Metrics.RecordDispatch(ctx.Context, ctx.Method, status, duration)
		if ctx.Method == "tools/call" && ctx.HasManifest {
			d.Metrics.RecordToolCall(ctx.Context, ctx.ManifestKey, status)
		}
		span.End()

		return result, err
	}
}

// statusRecorder wraps [http.ResponseWriter] to capture the status code
// written by the downstream handler.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

// WriteHeader captures the status code and delegates to the wrapped writer.
func (r *statusRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

// HTTPMiddleware returns an [http.Handler] wrapper for guildmcp's auxiliary
// HTTP surface (the streamable-HTTP endpoint, /healthz, /metrics). It:
//
//  1. Extracts W3C Trace Context from incoming request headers (or starts a
//     new trace).
//  2. Starts an OTel span for the HTTP request.
//  3. Sets the X-Correlation-ID response header from the trace ID.
//  4. Records request duration to [Metrics.HTTPRequestDuration].
//  5. Logs request completion with status code, duration, and trace info.
//  6. Ends the span on completion with status attributes.
func HTTPMiddleware(m *Metrics) func(http.Handler) http.Handler {
	prop := propagation.TraceContext{}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ctx := prop.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

			ctx, span := StartSpan(ctx, "HTTP "+r.Method+" "+r.URL.Path,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					semconv.HTTPRequestMethodKey.String(r.Method),
					semconv.URLPath(r.URL.Path),
				),
			)
			defer span.End()

			cid := CorrelationID(ctx)
			if cid != "" {
				w.Header().Set("X-Correlation-ID", cid)
			}

			prop.Inject(ctx, propagation.HeaderCarrier(w.Header()))

			r = r.WithContext(ctx)

			rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rec, r)

			duration := time.Since(start)
			m.HTTPRequestDuration.Record(ctx, duration.Seconds(),
				metric.WithAttributes(
					attribute.String("method", r.Method),
					attribute.String("path", r.URL.Path),
				),
			)

			span.SetAttributes(semconv.HTTPResponseStatusCode(rec.statusCode))

			slog.LogAttrs(ctx, slog.LevelInfo, "request completed",
				slog.String("trace_id", cid),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.statusCode),
				slog.Duration("duration", duration),
			)
		})
	}
}
