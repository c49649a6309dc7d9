// Package middleware provides HTTP middleware for the API server.
package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/pprof"
	"strings"
)

// ProfilingConfig configures the pprof middleware.
type ProfilingConfig struct {
	// Enabled exposes /debug/pprof/* when true. Development only: the
	// profiles leak memory contents and runtime internals.
	Enabled bool

	// Environment gates a second check; "production" and "prod" always
	// refuse profiling even when Enabled is set.
	Environment string
}

// Profiling serves the net/http/pprof handlers under /debug/pprof when
// enabled. In production environments the flag is ignored and an error is
// logged, so a misconfigured deploy cannot expose profiles.
func Profiling(config ProfilingConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !config.Enabled {
			return next
		}

		if config.Environment == "production" || config.Environment == "prod" {
			slog.Error("refusing to enable profiling in production",
				"environment", config.Environment,
			)
			return next
		}

		slog.Warn("pprof endpoints enabled",
			"environment", config.Environment,
			"endpoints", "/debug/pprof/*",
		)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasPrefix(r.URL.Path, "/debug/pprof") {
				next.ServeHTTP(w, r)
				return
			}

			switch r.URL.Path {
			case "/debug/pprof/cmdline":
				pprof.Cmdline(w, r)
			case "/debug/pprof/profile":
				pprof.Profile(w, r)
			case "/debug/pprof/symbol":
				pprof.Symbol(w, r)
			case "/debug/pprof/trace":
				pprof.Trace(w, r)
			default:
				// Index also dispatches named profiles (heap, goroutine, ...).
				pprof.Index(w, r)
			}
		})
	}
}

// ProfilingStatus reports whether profiling is on, for operators checking a
// running instance's configuration.
func ProfilingStatus(config ProfilingConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "disabled"
		if config.Enabled {
			status = "enabled"
		}

		body := map[string]any{
			"profiling_enabled": config.Enabled,
			"environment":       config.Environment,
			"status":            status,
			"endpoints": []string{
				"/debug/pprof/",
				"/debug/pprof/profile",
				"/debug/pprof/heap",
				"/debug/pprof/goroutine",
				"/debug/pprof/block",
				"/debug/pprof/mutex",
				"/debug/pprof/threadcreate",
				"/debug/pprof/allocs",
				"/debug/pprof/cmdline",
				"/debug/pprof/symbol",
				"/debug/pprof/trace",
			},
			"security_warning": "Profiling should never be enabled in production",
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(body); err != nil {
			slog.Error("failed to write profiling status response", "error", err)
		}
	}
}
