package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func BenchmarkHTTPMetrics(b *testing.B) {
	m := NewMetrics()
	reg := prometheus.NewRegistry()
	if err := m.Register(reg); err != nil {
		b.Fatalf("Register() failed: %v", err)
	}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"venues":[]}`))
	})
	wrapped := HTTPMetrics(m)(handler)
	req := httptest.NewRequest(http.MethodGet, "/venues", nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		wrapped.ServeHTTP(httptest.NewRecorder(), req)
	}
}

func BenchmarkNormalizePath(b *testing.B) {
	paths := []string{
		"/venues",
		"/venues/550e8400-e29b-41d4-a716-446655440000",
		"/submissions/sub-123/approve",
		"/recommendations",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		normalizePath(paths[i%len(paths)])
	}
}
