// Package middleware provides HTTP middleware components for the API server.
package middleware

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
)

// Tracing wraps handlers in an OpenTelemetry server span named
// "METHOD /path" (e.g. "GET /venues"). otelhttp handles the span lifecycle
// and W3C traceparent/tracestate propagation. Place it after RequestID in
// the chain so the request ID is present in the span's context.
func Tracing(serviceName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, serviceName,
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	}
}

// GetTraceID returns the active trace ID for the request, or "" when the
// request carries no recording span.
func GetTraceID(r *http.Request) string {
	if spanCtx := trace.SpanContextFromContext(r.Context()); spanCtx.IsValid() {
		return spanCtx.TraceID().String()
	}
	return ""
}

// GetSpanID returns the active span ID for the request, or "".
func GetSpanID(r *http.Request) string {
	if spanCtx := trace.SpanContextFromContext(r.Context()); spanCtx.IsValid() {
		return spanCtx.SpanID().String()
	}
	return ""
}
