// Package config loads server configuration from the environment.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config is the application configuration.
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	MemDB    MemDBConfig
	Metrics  MetricsConfig
}

// AppConfig holds process-level settings.
type AppConfig struct {
	Port     string
	Env      string
	LogLevel string
}

// IsDevelopment reports whether the development logger should be used.
func (c AppConfig) IsDevelopment() bool {
	return c.Env == "development"
}

// DatabaseConfig configures the PostgreSQL backend. An empty URL selects
// the in-memory backend.
type DatabaseConfig struct {
	URL              string
	MaxConns         int32
	MinConns         int32
	StatementTimeout time.Duration
}

// Enabled reports whether PostgreSQL is configured.
func (c DatabaseConfig) Enabled() bool {
	return c.URL != ""
}

// MemDBConfig configures the in-memory backend.
type MemDBConfig struct {
	MaxConns       int
	AcquireTimeout time.Duration
}

// MetricsConfig toggles the /metrics endpoint.
type MetricsConfig struct {
	Enabled bool
}

// Load reads the configuration from environment variables, falling back to
// defaults for anything unset or malformed.
func Load() *Config {
	return &Config{
		App: AppConfig{
			Port:     getEnv("APP_PORT", "8080"),
			Env:      getEnv("APP_ENV", "development"),
			LogLevel: getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			URL:              getEnv("DATABASE_URL", ""),
			MaxConns:         int32(getEnvInt("DB_MAX_CONNS", 25)),
			MinConns:         int32(getEnvInt("DB_MIN_CONNS", 5)),
			StatementTimeout: getEnvDuration("DB_STATEMENT_TIMEOUT", 30*time.Second),
		},
		MemDB: MemDBConfig{
			MaxConns:       getEnvInt("MEMDB_MAX_CONNS", 10),
			AcquireTimeout: getEnvDuration("MEMDB_ACQUIRE_TIMEOUT", 5*time.Second),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBool("METRICS_ENABLED", true),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
