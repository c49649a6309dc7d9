// Package main is the entry point for the API server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/lastcall-app/lastcall/internal/api"
	"github.com/lastcall-app/lastcall/internal/auth"
	"github.com/lastcall-app/lastcall/internal/config"
	"github.com/lastcall-app/lastcall/internal/db"
	"github.com/lastcall-app/lastcall/internal/health"
	"github.com/lastcall-app/lastcall/internal/idempotency"
	"github.com/lastcall-app/lastcall/internal/middleware"
	"github.com/lastcall-app/lastcall/internal/recs"
	"github.com/lastcall-app/lastcall/internal/submission"
	"github.com/lastcall-app/lastcall/internal/tracing"
	"github.com/lastcall-app/lastcall/internal/user"
	"github.com/lastcall-app/lastcall/internal/venue"
)

const serviceName = "lastcall-api"

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	help := flag.Bool("help", false, "display help message")
	flag.Parse()

	if *help {
		fmt.Println("LastCall API Server")
		fmt.Println()
		fmt.Println("Usage: api [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	cfg, errs := config.Load(*configPath)

	logger := middleware.NewLogger(cfg.Env)
	slog.SetDefault(logger)

	if len(errs) > 0 {
		for _, err := range errs {
			logger.Error("invalid configuration", "error", err)
		}
		os.Exit(1)
	}
	logger.Info("configuration loaded", "config", cfg.LogSummary())

	ctx := context.Background()

	// Storage: Postgres when DATABASE_URL is set, otherwise in-memory.
	var (
		venueRepo       venue.Repository
		profileRepo     user.ProfileRepository
		favoriteRepo    user.FavoriteRepository
		visitRepo       user.VisitRepository
		submissionRepo  submission.Repository
		idempotencyRepo idempotency.Repository
		dbChecker       api.HealthChecker
	)
	if cfg.DatabaseURL != "" {
		sqlDB, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer sqlDB.Close()

		venueRepo = venue.NewPostgresRepository(sqlDB, logger)
		profileRepo = user.NewPostgresProfileRepository(sqlDB, logger)
		favoriteRepo = user.NewPostgresFavoriteRepository(sqlDB, logger)
		visitRepo = user.NewPostgresVisitRepository(sqlDB, logger)
		submissionRepo = submission.NewPostgresRepository(sqlDB, logger)
		idempotencyRepo = idempotency.NewPostgresRepository(sqlDB, logger)
		dbChecker = health.NewDBChecker(sqlDB)
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory repositories")
		venueRepo = venue.NewInMemoryRepository()
		profileRepo = user.NewInMemoryProfileRepository()
		favoriteRepo = user.NewInMemoryFavoriteRepository()
		visitRepo = user.NewInMemoryVisitRepository()
		submissionRepo = submission.NewInMemoryRepository()
		idempotencyRepo = idempotency.NewInMemoryRepository()
	}

	metrics := middleware.NewMetrics()
	registry := prometheus.NewRegistry()
	if err := metrics.Register(registry); err != nil {
		logger.Error("failed to register metrics", "error", err)
		os.Exit(1)
	}

	// Rate limiting: Redis-backed when REDIS_URL is set, otherwise in-memory.
	var (
		rateLimitStore middleware.RateLimitStore
		redisChecker   api.HealthChecker
	)
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error("invalid REDIS_URL", "error", err)
			os.Exit(1)
		}
		client := redis.NewClient(opt)
		defer client.Close()

		rateLimitStore = middleware.NewRedisRateLimitStore(client, metrics)
		redisChecker = health.NewRedisChecker(client)
	} else {
		logger.Warn("REDIS_URL not set, using in-memory rate limiting")
		rateLimitStore = middleware.NewInMemoryRateLimitStore()
	}

	// Recommendation weights: calibration file overrides the defaults.
	var weights *recs.Weights
	if cfg.RecsCalibrationPath != "" {
		w, err := recs.LoadCalibration(cfg.RecsCalibrationPath)
		if err != nil {
			logger.Error("failed to load recommendation calibration", "path", cfg.RecsCalibrationPath, "error", err)
			os.Exit(1)
		}
		weights = w
		logger.Info("loaded recommendation calibration", "path", cfg.RecsCalibrationPath)
	}

	var jwtService *auth.JWTService
	if cfg.JWTPreviousSecret != "" {
		jwtService = auth.NewJWTServiceWithRotation(cfg.JWTSecret, cfg.JWTPreviousSecret)
		logger.Info("JWT key rotation active")
	} else {
		jwtService = auth.NewJWTService(cfg.JWTSecret)
	}

	if cfg.TracingEnabled {
		provider, err := tracing.NewProvider(tracing.Config{
			ServiceName:  serviceName,
			Enabled:      true,
			Environment:  cfg.Env,
			ExporterType: cfg.TracingExporterType,
			OTLPEndpoint: cfg.TracingOTLPEndpoint,
			SamplingRate: cfg.TracingSamplingRate,
			InsecureMode: cfg.Env != "production",
		})
		if err != nil {
			logger.Error("failed to initialize tracing", "error", err)
			os.Exit(1)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := provider.Shutdown(shutdownCtx); err != nil {
				logger.Error("failed to shut down tracing", "error", err)
			}
		}()
	}

	stopCleanup := make(chan struct{})
	defer close(stopCleanup)
	go idempotency.RunPeriodicCleanup(idempotencyRepo, time.Hour, 24*time.Hour, stopCleanup)

	healthHandlers := api.NewHealthHandlers(api.HealthHandlersConfig{
		DBChecker:    dbChecker,
		RedisChecker: redisChecker,
	})
	venueHandlers := api.NewVenueHandlers(venueRepo)
	recHandlers := api.NewRecommendationHandlers(venueRepo, profileRepo, favoriteRepo, visitRepo, weights, cfg.RecsMaxLimit)
	profileHandlers := api.NewProfileHandlers(profileRepo)
	favoriteHandlers := api.NewFavoriteHandlers(favoriteRepo, venueRepo)
	visitHandlers := api.NewVisitHandlers(visitRepo, venueRepo)
	submissionHandlers := api.NewSubmissionHandlers(submissionRepo, venueRepo)

	requireAuth := middleware.RequireAuth(jwtService)
	recsLimiter := middleware.RateLimiter(rateLimitStore, middleware.DefaultRecsLimit(), middleware.UserKeyFunc(), metrics)
	searchLimiter := middleware.RateLimiter(rateLimitStore, middleware.DefaultSearchLimit(), middleware.IPKeyFunc(), metrics)
	idempotent := middleware.IdempotencyMiddleware(idempotencyRepo, map[string]bool{"/visits": true})

	mux := http.NewServeMux()

	mux.HandleFunc("/health", healthHandlers.Health)
	mux.HandleFunc("/ready", healthHandlers.Ready)
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	mux.Handle("/venues", searchLimiter(methods(map[string]http.HandlerFunc{
		http.MethodGet: venueHandlers.ListVenues,
	})))
	mux.Handle("/venues/", methods(map[string]http.HandlerFunc{
		http.MethodGet: venueHandlers.GetVenue,
	}))

	mux.Handle("/recommendations", requireAuth(recsLimiter(methods(map[string]http.HandlerFunc{
		http.MethodGet: recHandlers.GetRecommendations,
	}))))

	mux.Handle("/profile", requireAuth(methods(map[string]http.HandlerFunc{
		http.MethodGet: profileHandlers.GetProfile,
		http.MethodPut: profileHandlers.UpsertProfile,
	})))

	mux.Handle("/favorites", requireAuth(methods(map[string]http.HandlerFunc{
		http.MethodGet:  favoriteHandlers.ListFavorites,
		http.MethodPost: favoriteHandlers.AddFavorite,
	})))
	mux.Handle("/favorites/", requireAuth(methods(map[string]http.HandlerFunc{
		http.MethodDelete: favoriteHandlers.RemoveFavorite,
	})))

	mux.Handle("/visits", requireAuth(idempotent(methods(map[string]http.HandlerFunc{
		http.MethodGet:  visitHandlers.ListVisits,
		http.MethodPost: visitHandlers.LogVisit,
	}))))

	mux.Handle("/submissions", requireAuth(methods(map[string]http.HandlerFunc{
		http.MethodGet:  submissionHandlers.ListSubmissions,
		http.MethodPost: submissionHandlers.CreateSubmission,
	})))
	mux.Handle("/submissions/", requireAuth(methods(map[string]http.HandlerFunc{
		http.MethodGet: submissionHandlers.GetSubmission,
		http.MethodPost: func(w http.ResponseWriter, r *http.Request) {
			switch {
			case strings.HasSuffix(r.URL.Path, "/approve"):
				submissionHandlers.ApproveSubmission(w, r)
			case strings.HasSuffix(r.URL.Path, "/reject"):
				submissionHandlers.RejectSubmission(w, r)
			default:
				ctx := middleware.SetErrorCode(r.Context(), api.ErrCodeNotFound)
				api.WriteError(w, ctx, http.StatusNotFound, api.ErrCodeNotFound, "The requested resource was not found")
			}
		},
	})))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			ctx := middleware.SetErrorCode(r.Context(), api.ErrCodeNotFound)
			api.WriteError(w, ctx, http.StatusNotFound, api.ErrCodeNotFound, "The requested resource was not found")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"service":"lastcall-api","version":"0.0.1"}`)); err != nil {
			slog.Error("failed to write response", "error", err)
		}
	})

	// Middleware chain: RequestID -> Profiling -> Tracing -> Logging -> CORS ->
	// global rate limit -> HTTP metrics -> mux.
	var handler http.Handler = mux
	handler = middleware.HTTPMetrics(metrics)(handler)
	handler = middleware.RateLimiter(rateLimitStore, middleware.DefaultGlobalLimit(), middleware.IPKeyFunc(), metrics)(handler)
	handler = middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowCredentials: true,
		MaxAge:           300,
	})(handler)
	handler = middleware.Logging(logger)(handler)
	if cfg.TracingEnabled {
		handler = middleware.Tracing(serviceName)(handler)
	}
	handler = middleware.Profiling(middleware.ProfilingConfig{
		Enabled:     cfg.Env == "development",
		Environment: cfg.Env,
	})(handler)
	handler = middleware.RequestID(handler)

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting server", "port", cfg.Port, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Create context with timeout for shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// methods dispatches a request to the handler registered for its method,
// returning 405 with an Allow header otherwise.
func methods(handlers map[string]http.HandlerFunc) http.Handler {
	allowed := make([]string, 0, len(handlers))
	for m := range handlers {
		allowed = append(allowed, m)
	}
	allow := strings.Join(allowed, ", ")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := handlers[r.Method]
		if !ok {
			w.Header().Set("Allow", allow)
			ctx := middleware.SetErrorCode(r.Context(), api.ErrCodeBadRequest)
			api.WriteError(w, ctx, http.StatusMethodNotAllowed, api.ErrCodeBadRequest, "Method not allowed")
			return
		}
		h(w, r)
	})
}
