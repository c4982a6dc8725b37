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
	Database DatabaseConfig
	Redis    RedisConfig
	Import   ImportConfig
	Sweep    SweepConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 30s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`

	// WriteTimeout is the maximum duration for writing a response (default: 3m)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"3m"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 3m)
	// It must leave room for a commit: IMPORT_MAX_WAIT_TIME + IMPORT_COMMIT_TIMEOUT.
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"3m"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string (required)
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL" required:"true"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 2)
	MinConns int `env:"DB_MIN_CONNS" default:"2"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`

	// Migrate applies the schema on startup (default: true)
	Migrate bool `env:"DB_MIGRATE" default:"true"`
}

// RedisConfig holds the optional Redis connection used for import wizard sessions.
// When URL is empty, sessions are kept in process memory.
type RedisConfig struct {
	// URL is a redis:// connection string (optional)
	URL string `env:"REDIS_URL"`

	// Prefix is prepended to every session key (default: gear-import:)
	Prefix string `env:"REDIS_SESSION_PREFIX" default:"gear-import:"`
}

// ImportConfig holds spreadsheet import wizard settings.
type ImportConfig struct {
	// UploadDir is where uploaded spreadsheets are kept between wizard steps (default: tmp/imports)
	UploadDir string `env:"IMPORT_UPLOAD_DIR" default:"tmp/imports"`

	// MaxFileSize is the maximum allowed file size in bytes (default: 10MB)
	MaxFileSize int64 `env:"IMPORT_MAX_FILE_SIZE" default:"10485760"`

	// HeaderScanRows is how many leading rows are scanned for the header (default: 10)
	HeaderScanRows int `env:"IMPORT_HEADER_SCAN_ROWS" default:"10"`

	// SessionTTL is how long an idle wizard session survives (default: 1h)
	SessionTTL time.Duration `env:"IMPORT_SESSION_TTL" default:"1h"`

	// MaxConcurrent is the maximum number of commits processed in parallel (default: 4)
	MaxConcurrent int `env:"IMPORT_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long a commit waits for a free slot (default: 15s)
	MaxWaitTime time.Duration `env:"IMPORT_MAX_WAIT_TIME" default:"15s"`

	// CommitTimeout bounds a single commit transaction (default: 2m)
	CommitTimeout time.Duration `env:"IMPORT_COMMIT_TIMEOUT" default:"2m"`
}

// SweepConfig controls removal of upload files left behind by abandoned wizards.
type SweepConfig struct {
	// Enabled controls whether the sweeper runs (default: true)
	Enabled bool `env:"SWEEP_ENABLED" default:"true"`

	// Interval is how often the upload directory is swept (default: 30m)
	Interval time.Duration `env:"SWEEP_INTERVAL" default:"30m"`

	// MaxAge is the age after which an upload file is considered orphaned (default: 6h)
	MaxAge time.Duration `env:"SWEEP_MAX_AGE" default:"6h"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// UserHeader carries the authenticated user id set by the upstream auth layer
	UserHeader string `env:"USER_HEADER" default:"X-User-ID"`

	// RequireAPIKey enables X-API-Key checking on /api routes (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted API keys
	APIKeys []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
