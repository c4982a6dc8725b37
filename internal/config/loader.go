package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Load reads configuration from the process environment, applies defaults
// and validates the result.
func Load() (*Config, error) {
	return LoadFrom(os.LookupEnv)
}

// LoadFrom is Load with an explicit variable source. Every unset required
// variable and unparsable value is reported, not only the first.
func LoadFrom(lookup func(string) (string, bool)) (*Config, error) {
	cfg := &Config{}

	l := envLoader{lookup: lookup}
	l.fill(reflect.ValueOf(cfg).Elem())
	if err := errors.Join(l.errs...); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

type envLoader struct {
	lookup func(string) (string, bool)
	errs   []error
}

var durationType = reflect.TypeOf(time.Duration(0))

// fill walks the struct, descending into nested sections, and sets every
// field carrying an env tag.
func (l *envLoader) fill(v reflect.Value) {
	t := v.Type()
	for i := range t.NumField() {
		field, fv := t.Field(i), v.Field(i)
		if !fv.CanSet() {
			continue
		}
		if field.Type.Kind() == reflect.Struct {
			l.fill(fv)
			continue
		}

		name := field.Tag.Get("env")
		if name == "" {
			continue
		}

		value, ok := l.value(name, field.Tag.Get("envAlt"))
		if !ok {
			if field.Tag.Get("required") == "true" {
				l.errs = append(l.errs, fmt.Errorf("required environment variable %s is not set", name))
				continue
			}
			value = field.Tag.Get("default")
		}
		if value == "" {
			continue
		}

		if err := parseInto(fv, value); err != nil {
			l.errs = append(l.errs, fmt.Errorf("invalid value for %s=%q: %w", name, value, err))
		}
	}
}

// value returns the first non-blank of the primary and alternate variables.
func (l *envLoader) value(names ...string) (string, bool) {
	for _, n := range names {
		if n == "" {
			continue
		}
		if v, ok := l.lookup(n); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), true
		}
	}
	return "", false
}

// parseInto sets fv from its string form. Durations use time.ParseDuration
// and string slices are comma separated with blanks dropped.
func parseInto(fv reflect.Value, value string) error {
	switch {
	case fv.Type() == durationType:
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration: %w", err)
		}
		fv.SetInt(int64(d))

	case fv.CanInt():
		n, err := strconv.ParseInt(value, 10, fv.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid integer: %w", err)
		}
		fv.SetInt(n)

	case fv.Kind() == reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		fv.SetBool(b)

	case fv.Kind() == reflect.String:
		fv.SetString(value)

	case fv.Kind() == reflect.Slice && fv.Type().Elem().Kind() == reflect.String:
		var items []string
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				items = append(items, part)
			}
		}
		fv.Set(reflect.ValueOf(items))

	default:
		return fmt.Errorf("unsupported field type %s", fv.Type())
	}
	return nil
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	// Database validation
	if c.Database.URL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}
	if c.Database.MaxConns < c.Database.MinConns {
		errs = append(errs, fmt.Sprintf("DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)",
			c.Database.MaxConns, c.Database.MinConns))
	}
	if c.Database.MaxConns <= 0 {
		errs = append(errs, "DB_MAX_CONNS must be positive")
	}
	if c.Database.MinConns < 0 {
		errs = append(errs, "DB_MIN_CONNS must be non-negative")
	}

	// Redis validation
	if c.Redis.URL != "" && !strings.HasPrefix(c.Redis.URL, "redis://") && !strings.HasPrefix(c.Redis.URL, "rediss://") {
		errs = append(errs, "REDIS_URL must start with redis:// or rediss://")
	}

	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", c.Server.Port))
	}
	if c.Server.ReadTimeout < 0 {
		errs = append(errs, "SERVER_READ_TIMEOUT must be non-negative")
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}

	// Import validation
	if c.Import.UploadDir == "" {
		errs = append(errs, "IMPORT_UPLOAD_DIR is required")
	}
	if c.Import.MaxFileSize <= 0 {
		errs = append(errs, "IMPORT_MAX_FILE_SIZE must be positive")
	}
	if c.Import.HeaderScanRows <= 0 {
		errs = append(errs, "IMPORT_HEADER_SCAN_ROWS must be positive")
	}
	if c.Import.SessionTTL <= 0 {
		errs = append(errs, "IMPORT_SESSION_TTL must be positive")
	}
	if c.Import.MaxConcurrent <= 0 {
		errs = append(errs, "IMPORT_MAX_CONCURRENT must be positive")
	}
	if c.Import.MaxWaitTime <= 0 {
		errs = append(errs, "IMPORT_MAX_WAIT_TIME must be positive")
	}
	if c.Import.CommitTimeout <= 0 {
		errs = append(errs, "IMPORT_COMMIT_TIMEOUT must be positive")
	}
	commitBudget := c.Import.MaxWaitTime + c.Import.CommitTimeout
	if c.Server.RequestTimeout > 0 && c.Server.RequestTimeout < commitBudget {
		errs = append(errs, fmt.Sprintf("SERVER_REQUEST_TIMEOUT (%s) must be >= IMPORT_MAX_WAIT_TIME + IMPORT_COMMIT_TIMEOUT (%s)",
			c.Server.RequestTimeout, commitBudget))
	}
	if c.Server.WriteTimeout > 0 && c.Server.WriteTimeout < commitBudget {
		errs = append(errs, fmt.Sprintf("SERVER_WRITE_TIMEOUT (%s) must be >= IMPORT_MAX_WAIT_TIME + IMPORT_COMMIT_TIMEOUT (%s)",
			c.Server.WriteTimeout, commitBudget))
	}

	// Sweep validation
	if c.Sweep.Enabled {
		if c.Sweep.Interval <= 0 {
			errs = append(errs, "SWEEP_INTERVAL must be positive when sweeping is enabled")
		}
		if c.Sweep.MaxAge < c.Import.SessionTTL {
			errs = append(errs, fmt.Sprintf("SWEEP_MAX_AGE (%s) must be >= IMPORT_SESSION_TTL (%s)",
				c.Sweep.MaxAge, c.Import.SessionTTL))
		}
	}

	// Rate limit validation
	if c.Rate.Enabled && c.Rate.RequestsPerMinute <= 0 {
		errs = append(errs, "RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")
	}

	// Security validation
	if strings.TrimSpace(c.Security.UserHeader) == "" {
		errs = append(errs, "USER_HEADER must not be empty")
	}
	if c.Security.RequireAPIKey && len(c.Security.APIKeys) == 0 {
		errs = append(errs, "REQUIRE_API_KEY is true but API_KEYS is empty; configure at least one API key or disable auth")
	}

	// Logging validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// String returns a safe string representation of the config for logging.
// Connection strings are masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	b.WriteString(fmt.Sprintf("Server: {Host: %q, Port: %d}, ", c.Server.Host, c.Server.Port))
	b.WriteString(fmt.Sprintf("Database: {URL: [MASKED], MaxConns: %d, MinConns: %d}, ",
		c.Database.MaxConns, c.Database.MinConns))
	b.WriteString(fmt.Sprintf("Redis: {Enabled: %v}, ", c.Redis.URL != ""))
	b.WriteString(fmt.Sprintf("Import: {UploadDir: %q, MaxFileSize: %d, SessionTTL: %s, MaxConcurrent: %d}, ",
		c.Import.UploadDir, c.Import.MaxFileSize, c.Import.SessionTTL, c.Import.MaxConcurrent))
	b.WriteString(fmt.Sprintf("Rate: {Enabled: %v, RequestsPerMinute: %d}, ",
		c.Rate.Enabled, c.Rate.RequestsPerMinute))
	b.WriteString(fmt.Sprintf("Logging: {Level: %q, Format: %q}",
		c.Logging.Level, c.Logging.Format))
	b.WriteString("}")
	return b.String()
}
