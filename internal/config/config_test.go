package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"DUCKDB_PATH", "DUCKDB_ACCESS_MODE", "DUCKDB_THREADS", "DUCKDB_MEMORY_LIMIT",
		"DUCKDB_MAX_OPEN_CONNS", "SCHEMA_CACHE_SIZE", "SCHEMA_CACHE_TTL", "LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadFromEnv_AllVarsSet(t *testing.T) {
	clearEnv(t)
	t.Setenv("DUCKDB_PATH", "/tmp/test.duckdb")
	t.Setenv("DUCKDB_ACCESS_MODE", "READ_ONLY")
	t.Setenv("DUCKDB_THREADS", "4")
	t.Setenv("DUCKDB_MEMORY_LIMIT", "2GB")
	t.Setenv("DUCKDB_MAX_OPEN_CONNS", "8")
	t.Setenv("SCHEMA_CACHE_SIZE", "32")
	t.Setenv("SCHEMA_CACHE_TTL", "30s")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/test.duckdb", cfg.DBPath)
	assert.Equal(t, AccessReadOnly, cfg.AccessMode)
	assert.Equal(t, 4, cfg.Threads)
	assert.Equal(t, "2GB", cfg.MemoryLimit)
	assert.Equal(t, 8, cfg.MaxOpenConns)
	assert.Equal(t, 32, cfg.SchemaCacheSize)
	assert.Equal(t, 30*time.Second, cfg.SchemaCacheTTL)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	assert.Empty(t, cfg.Warnings)
	assert.Equal(t, "/tmp/test.duckdb?access_mode=read_only&max_memory=2GB&threads=4", cfg.DSN())
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "", cfg.DBPath)
	assert.Equal(t, AccessAutomatic, cfg.AccessMode)
	assert.Equal(t, 0, cfg.Threads)
	assert.Equal(t, 256, cfg.SchemaCacheSize)
	assert.Equal(t, 5*time.Minute, cfg.SchemaCacheTTL)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
	assert.Equal(t, "", cfg.DSN())
	require.Len(t, cfg.Warnings, 1)
	assert.Contains(t, cfg.Warnings[0], "in-memory")
}

func TestLoadFromEnv_CacheDisabled(t *testing.T) {
	clearEnv(t)
	t.Setenv("DUCKDB_PATH", "/tmp/x.duckdb")
	t.Setenv("SCHEMA_CACHE_SIZE", "0")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.SchemaCacheSize)
	require.Len(t, cfg.Warnings, 1)
	assert.Contains(t, cfg.Warnings[0], "SCHEMA_CACHE_SIZE=0")
}

func TestLoadFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{name: "threads_not_a_number", env: map[string]string{"DUCKDB_THREADS": "many"}, wantErr: "DUCKDB_THREADS"},
		{name: "negative_conns", env: map[string]string{"DUCKDB_MAX_OPEN_CONNS": "-1"}, wantErr: "must not be negative"},
		{name: "bad_ttl", env: map[string]string{"SCHEMA_CACHE_TTL": "soon"}, wantErr: "SCHEMA_CACHE_TTL"},
		{name: "negative_ttl", env: map[string]string{"SCHEMA_CACHE_TTL": "-1s"}, wantErr: "must not be negative"},
		{name: "bad_access_mode", env: map[string]string{"DUCKDB_ACCESS_MODE": "sometimes"}, wantErr: "must be one of"},
		{name: "read_only_in_memory", env: map[string]string{"DUCKDB_ACCESS_MODE": "read_only"}, wantErr: "requires DUCKDB_PATH"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadFromEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEngineOptions(t *testing.T) {
	cfg := &Config{DBPath: "a.duckdb", AccessMode: AccessAutomatic, Threads: 2, MaxOpenConns: 3}
	opts := cfg.EngineOptions()
	assert.Equal(t, "a.duckdb", opts.Path)
	assert.Empty(t, opts.AccessMode, "automatic is the engine default")
	assert.Equal(t, 2, opts.Threads)
	assert.Equal(t, 3, opts.MaxOpenConns)

	cfg.AccessMode = AccessReadWrite
	assert.Equal(t, AccessReadWrite, cfg.EngineOptions().AccessMode)
}

func TestSlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		cfg := &Config{LogLevel: in}
		assert.Equal(t, want, cfg.SlogLevel(), in)
	}
}

func TestLoadDotEnv_FileNotFound(t *testing.T) {
	err := LoadDotEnv("/nonexistent/.env")
	if err != nil {
		t.Errorf("expected no error for missing .env, got: %v", err)
	}
}

func TestLoadDotEnv_ParsesKeyValue(t *testing.T) {
	tmpDir := t.TempDir()
	envFile := filepath.Join(tmpDir, ".env")

	err := os.WriteFile(envFile, []byte("TEST_KEY=test_value\nexport TEST_EXPORTED=\"quoted\"\n"), 0644)
	if err != nil {
		t.Fatalf("write .env: %v", err)
	}

	if err := LoadDotEnv(envFile); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}

	if val := os.Getenv("TEST_KEY"); val != "test_value" {
		t.Errorf("TEST_KEY = %q, want %q", val, "test_value")
	}
	if val := os.Getenv("TEST_EXPORTED"); val != "quoted" {
		t.Errorf("TEST_EXPORTED = %q, want %q", val, "quoted")
	}
	_ = os.Unsetenv("TEST_KEY")
	_ = os.Unsetenv("TEST_EXPORTED")
}

func TestLoadDotEnv_SkipsComments(t *testing.T) {
	tmpDir := t.TempDir()
	envFile := filepath.Join(tmpDir, ".env")

	err := os.WriteFile(envFile, []byte("# comment\nTEST_COMMENT_KEY=value\nnot a pair\n"), 0644)
	if err != nil {
		t.Fatalf("write .env: %v", err)
	}

	if err := LoadDotEnv(envFile); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}

	if val := os.Getenv("TEST_COMMENT_KEY"); val != "value" {
		t.Errorf("TEST_COMMENT_KEY = %q, want %q", val, "value")
	}
	_ = os.Unsetenv("TEST_COMMENT_KEY")
}

func TestLoadDotEnv_EnvVarPrecedence(t *testing.T) {
	t.Setenv("TEST_PRECEDENCE_KEY", "from_env")

	tmpDir := t.TempDir()
	envFile := filepath.Join(tmpDir, ".env")

	err := os.WriteFile(envFile, []byte("TEST_PRECEDENCE_KEY=from_file\n"), 0644)
	if err != nil {
		t.Fatalf("write .env: %v", err)
	}

	if err := LoadDotEnv(envFile); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}

	if val := os.Getenv("TEST_PRECEDENCE_KEY"); val != "from_env" {
		t.Errorf("TEST_PRECEDENCE_KEY = %q, want %q (env precedence)", val, "from_env")
	}
}

func TestStripQuotes(t *testing.T) {
	assert.Equal(t, "a", stripQuotes(`"a"`))
	assert.Equal(t, "a", stripQuotes(`'a'`))
	assert.Equal(t, `"a'`, stripQuotes(`"a'`))
	assert.Equal(t, `"`, stripQuotes(`"`))
}
