// Package config provides configuration loading and validation for the API server.
// It uses koanf to merge environment variables with optional file overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration values for the API server.
type Config struct {
	// HTTP server
	Port int    `koanf:"port"`
	Env  string `koanf:"env"`

	// Database. Optional: when empty the server runs with in-memory
	// repositories (development and tests only).
	DatabaseURL string `koanf:"database_url"`

	// Redis. Optional: when empty rate limiting uses the in-memory store.
	RedisURL string `koanf:"redis_url"`

	// JWT signing keys
	JWTSecret         string `koanf:"jwt_secret"`
	JWTPreviousSecret string `koanf:"jwt_previous_secret"` // Set during key rotation

	// CORS
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`

	// Recommendation scoring
	RecsCalibrationPath string `koanf:"recs_calibration_path"` // JSON weight calibration file
	RecsMaxLimit        int    `koanf:"recs_max_limit"`        // Upper bound on the limit query param

	// Tracing
	TracingEnabled      bool    `koanf:"tracing_enabled"`
	TracingExporterType string  `koanf:"tracing_exporter_type"` // otlp-grpc or otlp-http
	TracingOTLPEndpoint string  `koanf:"tracing_otlp_endpoint"`
	TracingSamplingRate float64 `koanf:"tracing_sampling_rate"`
}

// Configuration validation errors.
var (
	ErrMissingJWTSecret      = errors.New("JWT_SECRET is required")
	ErrInvalidPort           = errors.New("PORT must be a valid integer")
	ErrInvalidRecsMaxLimit   = errors.New("RECS_MAX_LIMIT must be > 0")
	ErrInvalidSamplingRate   = errors.New("TRACING_SAMPLING_RATE must be between 0 and 1")
	ErrInvalidTracingExport  = errors.New("TRACING_EXPORTER_TYPE must be otlp-grpc or otlp-http")
	ErrMissingTracingAddress = errors.New("TRACING_OTLP_ENDPOINT is required when tracing is enabled")
)

// Default values for non-secret configuration.
const (
	DefaultPort                = 8080
	DefaultEnv                 = "development"
	DefaultRecsMaxLimit        = 50
	DefaultTracingExporterType = "otlp-grpc"
	DefaultTracingSamplingRate = 0.1
)

// Load builds the config from the environment, layered over an optional YAML
// file. Environment variables win. The returned slice holds every validation
// error found, so startup can report them all at once.
func Load(configFilePath string) (*Config, []error) {
	k := koanf.New(".")
	var loadErrs []error

	// YAML file loads first so the environment can override it.
	if configFilePath != "" {
		if err := k.Load(file.Provider(configFilePath), yaml.Parser()); err != nil {
			return nil, []error{fmt.Errorf("failed to load config file %s: %w", configFilePath, err)}
		}
	}

	port, portErr := getEnvIntOrDefault("PORT", k.Int("port"), DefaultPort)
	if portErr != nil {
		loadErrs = append(loadErrs, portErr)
	}

	recsMaxLimit, limitErr := getEnvIntOrDefault("RECS_MAX_LIMIT", k.Int("recs_max_limit"), DefaultRecsMaxLimit)
	if limitErr != nil {
		loadErrs = append(loadErrs, limitErr)
	}

	samplingRate, samplingErr := getEnvFloatOrDefault("TRACING_SAMPLING_RATE", k.Float64("tracing_sampling_rate"), DefaultTracingSamplingRate)
	if samplingErr != nil {
		loadErrs = append(loadErrs, samplingErr)
	}

	tracingEnabled := k.Bool("tracing_enabled")
	if val := os.Getenv("TRACING_ENABLED"); val != "" {
		tracingEnabled = val == "true" || val == "1"
	}

	corsOrigins := k.Strings("cors_allowed_origins")
	if val := os.Getenv("CORS_ALLOWED_ORIGINS"); val != "" {
		corsOrigins = nil
		for _, origin := range strings.Split(val, ",") {
			if trimmed := strings.TrimSpace(origin); trimmed != "" {
				corsOrigins = append(corsOrigins, trimmed)
			}
		}
	}

	cfg := &Config{
		Port:                port,
		Env:                 getEnvOrDefault("ENV", k.String("env"), DefaultEnv),
		DatabaseURL:         getEnvOrKoanf("DATABASE_URL", k, "database_url"),
		RedisURL:            getEnvOrKoanf("REDIS_URL", k, "redis_url"),
		JWTSecret:           getEnvOrKoanf("JWT_SECRET", k, "jwt_secret"),
		JWTPreviousSecret:   getEnvOrKoanf("JWT_PREVIOUS_SECRET", k, "jwt_previous_secret"),
		CORSAllowedOrigins:  corsOrigins,
		RecsCalibrationPath: getEnvOrKoanf("RECS_CALIBRATION_PATH", k, "recs_calibration_path"),
		RecsMaxLimit:        recsMaxLimit,
		TracingEnabled:      tracingEnabled,
		TracingExporterType: getEnvOrDefault("TRACING_EXPORTER_TYPE", k.String("tracing_exporter_type"), DefaultTracingExporterType),
		TracingOTLPEndpoint: getEnvOrKoanf("TRACING_OTLP_ENDPOINT", k, "tracing_otlp_endpoint"),
		TracingSamplingRate: samplingRate,
	}

	errs := cfg.Validate()
	errs = append(loadErrs, errs...)

	return cfg, errs
}

// getEnvOrKoanf prefers the environment variable over the file value.
func getEnvOrKoanf(envKey string, k *koanf.Koanf, koanfKey string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	return k.String(koanfKey)
}

// getEnvOrDefault prefers the environment, then the file, then the default.
func getEnvOrDefault(envKey string, koanfVal string, defaultVal string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	if koanfVal != "" {
		return koanfVal
	}
	return defaultVal
}

// getEnvIntOrDefault is getEnvOrDefault for integers. A set-but-unparseable
// environment value is an error rather than a silent fallback.
func getEnvIntOrDefault(envKey string, koanfVal int, defaultVal int) (int, error) {
	if val := os.Getenv(envKey); val != "" {
		i, err := strconv.Atoi(val)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", envKey, ErrInvalidPort)
		}
		return i, nil
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

// getEnvFloatOrDefault is getEnvOrDefault for floats.
func getEnvFloatOrDefault(envKey string, koanfVal float64, defaultVal float64) (float64, error) {
	if val := os.Getenv(envKey); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0, fmt.Errorf("%s must be a valid float: %w", envKey, err)
		}
		return f, nil
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

// Validate returns every constraint violation in the config, or an empty
// slice when it is usable.
func (c *Config) Validate() []error {
	var errs []error

	if c.JWTSecret == "" {
		errs = append(errs, ErrMissingJWTSecret)
	}
	if c.RecsMaxLimit <= 0 {
		errs = append(errs, ErrInvalidRecsMaxLimit)
	}
	if c.TracingSamplingRate < 0 || c.TracingSamplingRate > 1 {
		errs = append(errs, ErrInvalidSamplingRate)
	}
	if c.TracingEnabled {
		if c.TracingExporterType != "otlp-grpc" && c.TracingExporterType != "otlp-http" {
			errs = append(errs, ErrInvalidTracingExport)
		}
		if c.TracingOTLPEndpoint == "" {
			errs = append(errs, ErrMissingTracingAddress)
		}
	}

	return errs
}

// LogSummary renders the config for the startup log with secrets masked.
func (c *Config) LogSummary() map[string]string {
	return map[string]string{
		"port":                  fmt.Sprintf("%d", c.Port),
		"env":                   c.Env,
		"database_url":          maskConnectionURL(c.DatabaseURL),
		"redis_url":             maskConnectionURL(c.RedisURL),
		"jwt_secret":            maskSecret(c.JWTSecret),
		"jwt_previous_secret":   maskSecret(c.JWTPreviousSecret),
		"cors_allowed_origins":  strings.Join(c.CORSAllowedOrigins, ","),
		"recs_calibration_path": c.RecsCalibrationPath,
		"recs_max_limit":        fmt.Sprintf("%d", c.RecsMaxLimit),
		"tracing_enabled":       fmt.Sprintf("%t", c.TracingEnabled),
		"tracing_exporter_type": c.TracingExporterType,
		"tracing_otlp_endpoint": c.TracingOTLPEndpoint,
		"tracing_sampling_rate": fmt.Sprintf("%.2f", c.TracingSamplingRate),
	}
}

// maskSecret keeps the first four characters of long secrets and hides short
// ones entirely.
func maskSecret(s string) string {
	if s == "" {
		return "<not set>"
	}
	if len(s) < 8 {
		return "****"
	}
	return s[:4] + "****"
}

// maskConnectionURL hides the password portion of postgres:// and redis://
// style URLs.
func maskConnectionURL(s string) string {
	if s == "" {
		return "<not set>"
	}

	schemeEnd := strings.Index(s, "://")
	if schemeEnd == -1 {
		return maskSecret(s)
	}

	rest := s[schemeEnd+3:]
	atIndex := strings.Index(rest, "@")
	if atIndex == -1 {
		return s // no credentials present
	}

	colonIndex := strings.Index(rest[:atIndex], ":")
	if colonIndex == -1 {
		return s // username only, nothing to mask
	}

	scheme := s[:schemeEnd+3]
	user := rest[:colonIndex]
	hostAndPath := rest[atIndex:]

	return scheme + user + ":****" + hostAndPath
}
