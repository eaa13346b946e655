// Package testutil provides shared helpers for tests across the codebase.
package testutil

import (
	"path/filepath"
	"testing"

	"duck-adapter/internal/engine"
)

// OpenTestEngine opens a file-backed DuckDB engine in t.TempDir() and
// registers cleanup.
func OpenTestEngine(t *testing.T) *engine.Engine {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.duckdb")
	e := engine.New(engine.Options{Path: path, MaxOpenConns: 4}, nil)
	t.Cleanup(func() {
		if err := e.Close(); err != nil {
			t.Errorf("close test engine: %v", err)
		}
	})
	if _, err := e.DB(); err != nil {
		t.Fatalf("open test duckdb: %v", err)
	}
	return e
}
