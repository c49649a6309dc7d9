package middleware_test

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lastcall-app/lastcall/internal/middleware"
)

func TestRequestID_GeneratedWhenAbsent(t *testing.T) {
	var seenID string
	handler := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = middleware.GetRequestID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/venues", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if seenID == "" {
		t.Error("handler should see a generated request ID")
	}
	if got := rr.Header().Get("X-Request-ID"); got != seenID {
		t.Errorf("X-Request-ID header = %q, want the ID from context %q", got, seenID)
	}
}

func TestRequestID_ClientIDValidation(t *testing.T) {
	tests := []struct {
		name       string
		incomingID string
		preserved  bool
	}{
		{"valid uuid", "550e8400-e29b-41d4-a716-446655440000", true},
		{"newline injection", "visit-1\nfake-log-line", false},
		{"special characters", "visit@#$%", false},
		{"too long", strings.Repeat("a", 200), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodPost, "/visits", nil)
			req.Header.Set("X-Request-ID", tt.incomingID)
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			got := rr.Header().Get("X-Request-ID")
			if got == "" {
				t.Fatal("response missing X-Request-ID")
			}
			if tt.preserved && got != tt.incomingID {
				t.Errorf("valid ID %q was replaced with %q", tt.incomingID, got)
			}
			if !tt.preserved && got == tt.incomingID {
				t.Errorf("invalid ID %q was not replaced", tt.incomingID)
			}
		})
	}
}

// The server chain in cmd/api is RequestID -> Logging -> CORS ->
// rate limiter -> mux. This exercises the pieces together the way the
// server assembles them.
func TestMiddlewareChain(t *testing.T) {
	var logBuf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logBuf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	store := middleware.NewInMemoryRateLimitStore()
	limit := middleware.RateLimitConfig{RequestsPerWindow: 2, WindowDuration: time.Minute}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if middleware.GetRequestID(r.Context()) == "" {
			t.Error("request ID not available in handler")
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`[]`))
	})

	chain := middleware.RequestID(
		middleware.Logging(logger)(
			middleware.CORS(middleware.CORSConfig{
				AllowedOrigins: []string{"https://app.lastcall.app"},
				AllowedMethods: []string{"GET", "POST"},
				AllowedHeaders: []string{"Content-Type", "Authorization"},
			})(
				middleware.RateLimiter(store, limit, middleware.IPKeyFunc(), nil)(handler),
			),
		),
	)

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/venues", nil)
		req.RemoteAddr = "203.0.113.7:44312"
		req.Header.Set("Origin", "https://app.lastcall.app")
		rr := httptest.NewRecorder()
		chain.ServeHTTP(rr, req)
		return rr
	}

	rr := send()
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}
	if rr.Header().Get("Access-Control-Allow-Origin") != "https://app.lastcall.app" {
		t.Error("missing CORS headers for allowed origin")
	}

	logOutput := logBuf.String()
	for _, field := range []string{"method=GET", "path=/venues", "status=200", "request_id="} {
		if !strings.Contains(logOutput, field) {
			t.Errorf("log missing %q: %s", field, logOutput)
		}
	}

	// Third request from the same IP trips the limiter, and the 429 is
	// logged with the request ID like any other response.
	send()
	logBuf.Reset()
	rr = send()
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429 after limit", rr.Code)
	}
	if !strings.Contains(logBuf.String(), "status=429") {
		t.Errorf("blocked request not logged: %s", logBuf.String())
	}
}

func BenchmarkRequestID(b *testing.B) {
	handler := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/venues", nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
	}
}
