// Package middleware provides HTTP middleware components for the API server.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Routes that carry no dynamic segment; their paths label metrics as-is.
var staticRoutes = map[string]bool{
	"/":                true,
	"/venues":          true,
	"/recommendations": true,
	"/profile":         true,
	"/favorites":       true,
	"/visits":          true,
	"/submissions":     true,
	"/health":          true,
	"/ready":           true,
	"/metrics":         true,
}

// normalizePath collapses dynamic path segments into route patterns
// (/venues/abc -> /venues/{id}) so the path label stays low-cardinality.
// Unknown paths pass through unchanged.
func normalizePath(path string) string {
	if staticRoutes[path] {
		return path
	}

	parts := strings.Split(path, "/")

	switch {
	case strings.HasPrefix(path, "/venues/"):
		if len(parts) == 3 && parts[2] != "" {
			return "/venues/{id}"
		}
	case strings.HasPrefix(path, "/favorites/"):
		if len(parts) == 3 && parts[2] != "" {
			return "/favorites/{venue_id}"
		}
	case strings.HasPrefix(path, "/submissions/"):
		if len(parts) == 4 && (parts[3] == "approve" || parts[3] == "reject") {
			return "/submissions/{id}/" + parts[3]
		}
		if len(parts) == 3 && parts[2] != "" {
			return "/submissions/{id}"
		}
	}

	return path
}

// metricsResponseWriter records the status code and bytes written so the
// middleware can label and size the request after the handler returns.
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode  int
	size        int64
	wroteHeader bool
}

func (mrw *metricsResponseWriter) WriteHeader(code int) {
	if mrw.wroteHeader {
		return
	}
	mrw.statusCode = code
	mrw.wroteHeader = true
	mrw.ResponseWriter.WriteHeader(code)
}

func (mrw *metricsResponseWriter) Write(b []byte) (int, error) {
	n, err := mrw.ResponseWriter.Write(b)
	mrw.size += int64(n)
	return n, err
}

func newMetricsResponseWriter(w http.ResponseWriter) *metricsResponseWriter {
	return &metricsResponseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

// HTTPMetrics records duration, count, and request/response sizes for every
// request. Probe endpoints (/health, /ready) are skipped; they would drown
// out real traffic.
func HTTPMetrics(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" || r.URL.Path == "/ready" {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			mrw := newMetricsResponseWriter(w)

			var requestSize int64
			if contentLength := r.Header.Get("Content-Length"); contentLength != "" {
				if size, err := strconv.ParseInt(contentLength, 10, 64); err == nil {
					requestSize = size
				}
			}

			next.ServeHTTP(mrw, r)

			metrics.ObserveHTTPRequest(
				r.Method,
				normalizePath(r.URL.Path),
				strconv.Itoa(mrw.statusCode),
				time.Since(start).Seconds(),
				requestSize,
				mrw.size,
			)
		})
	}
}
