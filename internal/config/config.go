// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Grid     GridConfig
	Seed     SeedConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" envAlt:"PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 0 for SSE)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// GridConfig holds data grid limits and presentation settings.
type GridConfig struct {
	// PageSize is the number of rows per table page (default: 20)
	PageSize int `env:"GRID_PAGE_SIZE" default:"20"`

	// MaxRows is the row capacity of each table (default: 1000)
	MaxRows int `env:"GRID_MAX_ROWS" default:"1000"`

	// MaxCustomColumns is the number of user-added columns allowed per table (default: 10)
	MaxCustomColumns int `env:"GRID_MAX_CUSTOM_COLUMNS" default:"10"`

	// MaxColumnNameLength is the longest custom column name accepted (default: 30)
	MaxColumnNameLength int `env:"GRID_MAX_COLUMN_NAME_LENGTH" default:"30"`

	// MessageTTL is how long confirmation banners stay visible (default: 4s)
	MessageTTL time.Duration `env:"GRID_MESSAGE_TTL" default:"4s"`

	// Language is the BCP 47 tag used for collation (default: en)
	Language string `env:"GRID_LANGUAGE" default:"en"`

	// PagesDir is an optional directory of YAML page definitions
	PagesDir string `env:"SCHEMA_DIR" envAlt:"GRID_PAGES_DIR"`

	// LowStockThreshold is the stock level below which items are flagged (default: 10)
	LowStockThreshold float64 `env:"GRID_LOW_STOCK_THRESHOLD" default:"10"`
}

// SeedConfig holds the optional Postgres seed source.
type SeedConfig struct {
	// DatabaseURL enables seeding from PostgreSQL when set
	DatabaseURL string `env:"SEED_DATABASE_URL"`

	// Tables is a comma-separated list of page:table pairs
	Tables []string `env:"SEED_TABLES"`

	// MaxConns is the maximum number of pool connections (default: 4)
	MaxConns int `env:"SEED_MAX_CONNS" default:"4"`

	// Timeout bounds each table read (default: 10s)
	Timeout time.Duration `env:"SEED_TIMEOUT" default:"10s"`
}

// Enabled reports whether a seed database is configured.
func (c *SeedConfig) Enabled() bool {
	return c.DatabaseURL != ""
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// MutationLimit is requests per minute for endpoints that change a table (default: 60)
	MutationLimit int `env:"RATE_LIMIT_MUTATIONS" default:"60"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// AuditConfig holds activity log settings.
type AuditConfig struct {
	// MaxEntries caps the in-memory activity log (default: 1000)
	MaxEntries int `env:"AUDIT_MAX_ENTRIES" default:"1000"`

	// Retention is how long entries are kept (default: 24h)
	Retention time.Duration `env:"AUDIT_RETENTION" default:"24h"`

	// PruneInterval is how often expired entries are removed (default: 1h)
	PruneInterval time.Duration `env:"AUDIT_PRUNE_INTERVAL" default:"1h"`
}

// MetricsConfig holds Prometheus exposition settings.
type MetricsConfig struct {
	// Enabled serves the metrics endpoint (default: true)
	Enabled bool `env:"METRICS_ENABLED" default:"true"`

	// Path is the metrics endpoint path (default: /metrics)
	Path string `env:"METRICS_PATH" default:"/metrics"`

	// Namespace prefixes every metric name (default: carpetgrid)
	Namespace string `env:"METRICS_NAMESPACE" default:"carpetgrid"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
