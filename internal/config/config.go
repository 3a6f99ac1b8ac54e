// Package config handles application configuration loading from environment
// variables. It provides a centralized Config struct used across the application.
package config

import (
	"fmt"
	"os"
	"time"
)

// Backend names accepted by PRESSROOM_BACKEND.
const (
	BackendMemory   = "memory"
	BackendDir      = "dir"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendS3       = "s3"
)

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host string
	Port string
	Env  string // "development", "production", "testing"

	// Template backend: "memory", "dir", "postgres", "sqlite", "s3"
	Backend     string
	TemplateDir string // root directory for the "dir" backend
	SQLitePath  string // database file for the "sqlite" backend

	// PostgreSQL connection
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Valkey (Redis-compatible rendered-output cache)
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string

	// S3-compatible object storage backend
	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3Prefix    string

	// Admin API authentication
	TOTPSecret string

	// Cache tuning. CacheTTL bounds the lifetime of compiled pages
	// (zero keeps them until invalidated); OutputTTL bounds rendered
	// output in Valkey (zero uses the rendercache default).
	CacheTTL  time.Duration
	OutputTTL time.Duration
}

// Load reads configuration from environment variables, applying defaults
// for development where appropriate. Returns an error if critical values
// are missing in production mode or a value fails to parse.
func Load() (*Config, error) {
	cfg := &Config{
		Host: envOrDefault("APP_HOST", "0.0.0.0"),
		Port: envOrDefault("APP_PORT", "8080"),
		Env:  envOrDefault("APP_ENV", "development"),

		Backend:     envOrDefault("PRESSROOM_BACKEND", BackendPostgres),
		TemplateDir: envOrDefault("PRESSROOM_TEMPLATE_DIR", "./templates"),
		SQLitePath:  envOrDefault("PRESSROOM_SQLITE_PATH", "pressroom.db"),

		DBHost:     envOrDefault("POSTGRES_HOST", "localhost"),
		DBPort:     envOrDefault("POSTGRES_PORT", "5432"),
		DBUser:     envOrDefault("POSTGRES_USER", "pressroom"),
		DBPassword: envOrDefault("POSTGRES_PASSWORD", "changeme"),
		DBName:     envOrDefault("POSTGRES_DB", "pressroom"),

		ValkeyHost:     envOrDefault("VALKEY_HOST", "localhost"),
		ValkeyPort:     envOrDefault("VALKEY_PORT", "6379"),
		ValkeyPassword: os.Getenv("VALKEY_PASSWORD"),

		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3Region:    envOrDefault("S3_REGION", "fsn1"),
		S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("S3_SECRET_KEY"),
		S3Bucket:    os.Getenv("S3_BUCKET"),
		S3Prefix:    envOrDefault("S3_PREFIX", "templates"),

		TOTPSecret: os.Getenv("PRESSROOM_TOTP_SECRET"),
	}

	switch cfg.Backend {
	case BackendMemory, BackendDir, BackendPostgres, BackendSQLite, BackendS3:
	default:
		return nil, fmt.Errorf("PRESSROOM_BACKEND %q is not one of memory, dir, postgres, sqlite, s3", cfg.Backend)
	}

	var err error
	if cfg.CacheTTL, err = durationOrDefault("PRESSROOM_CACHE_TTL", 0); err != nil {
		return nil, err
	}
	if cfg.OutputTTL, err = durationOrDefault("PRESSROOM_OUTPUT_TTL", 0); err != nil {
		return nil, err
	}

	if cfg.Env == "production" {
		if cfg.Backend == BackendPostgres && cfg.DBPassword == "changeme" {
			return nil, fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
		if cfg.TOTPSecret == "" {
			return nil, fmt.Errorf("PRESSROOM_TOTP_SECRET must be set in production")
		}
	}

	return cfg, nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// durationOrDefault parses an environment variable as a time.Duration,
// returning a fallback if unset or empty.
func durationOrDefault(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative", key)
	}
	return d, nil
}
