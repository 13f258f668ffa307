package observe

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// Middleware wraps HTTP handlers with tracing, metrics and logging.
//
// Contract:
//   - Concurrency: Wrap returns a handler safe for concurrent use.
//   - Context: the request context carries the server span.
//   - Ownership: requests and responses pass through unmodified.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a new Middleware with the given observability components.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	if tracer == nil {
		tracer = NoopTracer()
	}
	if metrics == nil {
		metrics = NoopMetrics()
	}
	if logger == nil {
		logger = NopLogger()
	}
	return &Middleware{tracer: tracer, metrics: metrics, logger: logger}
}

// MiddlewareFromObserver creates a Middleware from an Observer.
func MiddlewareFromObserver(obs Observer) *Middleware {
	return NewMiddleware(obs.Tracer(), obs.Metrics(), obs.Logger())
}

// Wrap instruments next under the given route name. It records
// http.requests, http.errors (status >= 500) and http.latency_ms.
func (m *Middleware) Wrap(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := m.tracer.StartSpan(r.Context(), "http."+route,
			attribute.String("http.method", r.Method),
			attribute.String("http.route", route),
		)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r.WithContext(ctx))
		elapsed := time.Since(start)

		span.SetAttributes(attribute.Int("http.status_code", rec.status))
		var err error
		if rec.status >= http.StatusInternalServerError {
			err = errHTTPStatus(rec.status)
		}
		m.tracer.EndSpan(span, err)

		ms := float64(elapsed.Microseconds()) / 1000
		m.metrics.Increment(ctx, "http.requests", 1)
		m.metrics.Observe(ctx, "http.latency_ms", ms)

		fields := []Field{
			F("route", route),
			F("method", r.Method),
			F("status", rec.status),
			F("duration_ms", ms),
		}
		if err != nil {
			m.metrics.Increment(ctx, "http.errors", 1)
			m.logger.Error(ctx, "http request failed", fields...)
			return
		}
		m.logger.Debug(ctx, "http request served", fields...)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	wrote  bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wrote {
		r.status = code
		r.wrote = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wrote = true
	return r.ResponseWriter.Write(b)
}

type errHTTPStatus int

func (e errHTTPStatus) Error() string {
	return "http status " + http.StatusText(int(e))
}
