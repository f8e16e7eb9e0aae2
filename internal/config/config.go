// Package config loads service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends.
const (
	BackendLocal  = "local"
	BackendSQLite = "sqlite"
)

// Config holds all application configuration
type Config struct {
	Port         string
	DataDir      string
	StoreBackend string
	SQLitePath   string

	HITRANBaseURL string
	HITRANAPIKey  string
	HITRANTimeout time.Duration
	HITRANRate    float64 // Outbound requests per second.

	// TableName forces every fetch into one table when set.
	TableName string

	LogLevel           string
	LogFormat          string
	CORSAllowedOrigins []string

	RateLimitRPS   float64
	RateLimitBurst int64

	IsotopologuesPath string
	PartitionSumsPath string
}

// LoadDotEnv reads .env files into the environment without overriding
// variables that are already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// Load loads and validates configuration from environment variables
func Load() (*Config, error) {
	dataDir := getEnvWithDefault("DATA_DIR", "./data")
	cfg := &Config{
		Port:               getEnvWithDefault("PORT", "8080"),
		DataDir:            dataDir,
		StoreBackend:       strings.ToLower(getEnvWithDefault("STORE_BACKEND", BackendLocal)),
		SQLitePath:         getEnvWithDefault("SQLITE_PATH", filepath.Join(dataDir, "lines.db")),
		HITRANBaseURL:      getEnvWithDefault("HITRAN_BASE_URL", "https://hitran.org"),
		HITRANAPIKey:       os.Getenv("HITRAN_API_KEY"),
		HITRANTimeout:      getDurationEnvWithDefault("HITRAN_TIMEOUT", 2*time.Minute),
		HITRANRate:         getFloatEnvWithDefault("HITRAN_RATE", 1),
		TableName:          os.Getenv("XSEC_TABLE"),
		LogLevel:           getEnvWithDefault("LOG_LEVEL", "info"),
		LogFormat:          strings.ToLower(getEnvWithDefault("LOG_FORMAT", "text")),
		CORSAllowedOrigins: splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		RateLimitRPS:       getFloatEnvWithDefault("RATE_LIMIT_RPS", 5),
		RateLimitBurst:     getInt64EnvWithDefault("RATE_LIMIT_BURST", 20),
		IsotopologuesPath:  os.Getenv("ISOTOPOLOGUES_PATH"),
		PartitionSumsPath:  os.Getenv("PARTITION_SUMS_PATH"),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// validateConfig validates all configuration values
func validateConfig(cfg *Config) error {
	if err := validatePort(cfg.Port); err != nil {
		return fmt.Errorf("invalid PORT: %w", err)
	}

	if cfg.DataDir == "" {
		return fmt.Errorf("invalid DATA_DIR: cannot be empty")
	}

	switch cfg.StoreBackend {
	case BackendLocal:
	case BackendSQLite:
		if cfg.SQLitePath == "" {
			return fmt.Errorf("invalid SQLITE_PATH: cannot be empty with the sqlite backend")
		}
	default:
		return fmt.Errorf("invalid STORE_BACKEND: must be one of [%s %s], got: %s", BackendLocal, BackendSQLite, cfg.StoreBackend)
	}

	if err := validateBaseURL(cfg.HITRANBaseURL); err != nil {
		return fmt.Errorf("invalid HITRAN_BASE_URL: %w", err)
	}

	if cfg.HITRANTimeout <= 0 {
		return fmt.Errorf("invalid HITRAN_TIMEOUT: must be positive, got: %s", cfg.HITRANTimeout)
	}

	if cfg.HITRANRate <= 0 {
		return fmt.Errorf("invalid HITRAN_RATE: must be positive, got: %g", cfg.HITRANRate)
	}

	if err := validateLogLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return fmt.Errorf("invalid LOG_FORMAT: must be text or json, got: %s", cfg.LogFormat)
	}

	// Zero disables inbound rate limiting.
	if cfg.RateLimitRPS < 0 {
		return fmt.Errorf("invalid RATE_LIMIT_RPS: must not be negative, got: %g", cfg.RateLimitRPS)
	}

	if cfg.RateLimitBurst < 1 {
		return fmt.Errorf("invalid RATE_LIMIT_BURST: must be at least 1, got: %d", cfg.RateLimitBurst)
	}

	return nil
}

// validatePort validates the PORT environment variable
func validatePort(port string) error {
	if port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}

	portNum, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("PORT must be a valid number: %w", err)
	}

	if portNum < 1 || portNum > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}

	return nil
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got: %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("host cannot be empty")
	}
	return nil
}

// validateLogLevel validates the LOG_LEVEL environment variable
func validateLogLevel(logLevel string) error {
	if logLevel == "" {
		return fmt.Errorf("LOG_LEVEL cannot be empty")
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	logLevel = strings.ToLower(logLevel)

	for _, level := range validLevels {
		if logLevel == level {
			return nil
		}
	}

	return fmt.Errorf("LOG_LEVEL must be one of: %v, got: %s", validLevels, logLevel)
}

// getEnvWithDefault gets an environment variable with a default value
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getInt64EnvWithDefault gets an environment variable as int64 with a default value
func getInt64EnvWithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getFloatEnvWithDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getDurationEnvWithDefault accepts Go durations ("90s") or plain seconds.
func getDurationEnvWithDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.ParseFloat(value, 64); err == nil {
		return time.Duration(secs * float64(time.Second))
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// GetEnvVars returns a list of all expected environment variables
func GetEnvVars() []string {
	return []string{
		"PORT",
		"DATA_DIR",
		"STORE_BACKEND",
		"SQLITE_PATH",
		"HITRAN_BASE_URL",
		"HITRAN_API_KEY",
		"HITRAN_TIMEOUT",
		"HITRAN_RATE",
		"XSEC_TABLE",
		"LOG_LEVEL",
		"LOG_FORMAT",
		"CORS_ALLOWED_ORIGINS",
		"RATE_LIMIT_RPS",
		"RATE_LIMIT_BURST",
		"ISOTOPOLOGUES_PATH",
		"PARTITION_SUMS_PATH",
	}
}
