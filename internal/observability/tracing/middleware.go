package tracing

import (
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// TraceHeader carries the trace ID of the server span back to the caller.
const TraceHeader = "X-Trace-Id"

type codeWriter struct {
	http.ResponseWriter
	code int
}

func (w *codeWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

// Middleware opens a server span per request, continuing an incoming W3C
// trace context. route maps the URL path to the span name so keys do not
// end up in span names; nil uses the raw path.
func Middleware(route func(path string) string) func(http.Handler) http.Handler {
	if route == nil {
		route = func(p string) string { return p }
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ctx, span := GetTracer().Start(ctx, r.Method+" "+route(r.URL.Path),
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.request.method", r.Method),
					attribute.String("url.path", r.URL.Path),
				))
			defer span.End()

			if sc := span.SpanContext(); sc.HasTraceID() {
				w.Header().Set(TraceHeader, sc.TraceID().String())
			}

			cw := &codeWriter{ResponseWriter: w, code: http.StatusOK}
			next.ServeHTTP(cw, r.WithContext(ctx))

			span.SetAttributes(attribute.Int("http.response.status_code", cw.code))
			if cw.code >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(cw.code))
			}
		})
	}
}
