// Package config handles application configuration and environment loading.
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"duck-adapter/internal/engine"
)

// Access modes accepted by DUCKDB_ACCESS_MODE.
const (
	AccessAutomatic = "automatic"
	AccessReadOnly  = "read_only"
	AccessReadWrite = "read_write"
)

// Config holds the DuckDB engine and adapter settings.
type Config struct {
	DBPath       string // DuckDB file; empty means in-memory
	AccessMode   string // automatic, read_only or read_write (default "automatic")
	Threads      int    // engine worker threads; 0 leaves the engine default
	MemoryLimit  string // e.g. "4GB"; empty leaves the engine default
	MaxOpenConns int    // pool cap; 0 means unbounded

	SchemaCacheSize int           // cached table descriptors (default 256); 0 disables
	SchemaCacheTTL  time.Duration // descriptor lifetime (default 5m); 0 keeps until invalidated

	LogLevel string // log level: debug, info, warn, error (default "info")

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// EngineOptions returns the engine settings.
func (c *Config) EngineOptions() engine.Options {
	mode := c.AccessMode
	if mode == AccessAutomatic {
		mode = ""
	}
	return engine.Options{
		Path:         c.DBPath,
		AccessMode:   mode,
		Threads:      c.Threads,
		MemoryLimit:  c.MemoryLimit,
		MaxOpenConns: c.MaxOpenConns,
	}
}

// DSN returns the duckdb-go data source name for the configured engine.
func (c *Config) DSN() string {
	return c.EngineOptions().DSN()
}

// LoadFromEnv loads configuration from environment variables.
// All variables are optional.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		DBPath:          os.Getenv("DUCKDB_PATH"),
		AccessMode:      strings.ToLower(strings.TrimSpace(os.Getenv("DUCKDB_ACCESS_MODE"))),
		MemoryLimit:     strings.TrimSpace(os.Getenv("DUCKDB_MEMORY_LIMIT")),
		LogLevel:        os.Getenv("LOG_LEVEL"),
		SchemaCacheSize: 256,
		SchemaCacheTTL:  5 * time.Minute,
	}

	var err error
	if cfg.Threads, err = parseIntEnv("DUCKDB_THREADS"); err != nil {
		return nil, err
	}
	if cfg.MaxOpenConns, err = parseIntEnv("DUCKDB_MAX_OPEN_CONNS"); err != nil {
		return nil, err
	}
	if v := os.Getenv("SCHEMA_CACHE_SIZE"); v != "" {
		if cfg.SchemaCacheSize, err = parseIntEnv("SCHEMA_CACHE_SIZE"); err != nil {
			return nil, err
		}
	}
	if v := os.Getenv("SCHEMA_CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("SCHEMA_CACHE_TTL: %w", err)
		}
		if d < 0 {
			return nil, fmt.Errorf("SCHEMA_CACHE_TTL must not be negative")
		}
		cfg.SchemaCacheTTL = d
	}

	// Defaults
	if cfg.AccessMode == "" {
		cfg.AccessMode = AccessAutomatic
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	switch cfg.AccessMode {
	case AccessAutomatic, AccessReadWrite:
	case AccessReadOnly:
		if cfg.DBPath == "" {
			return nil, fmt.Errorf("DUCKDB_ACCESS_MODE=read_only requires DUCKDB_PATH")
		}
	default:
		return nil, fmt.Errorf("DUCKDB_ACCESS_MODE must be one of automatic, read_only, read_write; got %q", cfg.AccessMode)
	}

	if cfg.DBPath == "" {
		cfg.Warnings = append(cfg.Warnings, "DUCKDB_PATH not set, using an in-memory database (data is lost on exit)")
	}
	if cfg.SchemaCacheSize == 0 {
		cfg.Warnings = append(cfg.Warnings, "SCHEMA_CACHE_SIZE=0: every query without a select list re-reads the table schema")
	}

	return cfg, nil
}

// parseIntEnv reads a non-negative integer; an unset variable is 0.
func parseIntEnv(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("%s must not be negative", key)
	}
	return n, nil
}

// LoadDotEnv reads a .env file and sets any variables not already in the environment.
// Lines must be in KEY=VALUE format. Comments (#) and blank lines are skipped.
func LoadDotEnv(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil // .env not found is not an error
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(strings.TrimPrefix(key, "export "))
		value = stripQuotes(strings.TrimSpace(value))
		// Only set if not already in the environment (env vars take precedence)
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("setenv %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}

// stripQuotes removes surrounding double or single quotes from a value.
// Only strips if both the first and last characters are matching quotes.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
