// Package engine owns the embedded DuckDB instance and hands out connections
// to it.
package engine

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"sync"

	_ "github.com/duckdb/duckdb-go/v2" // registers the "duckdb" driver
	"github.com/google/uuid"

	"duck-adapter/internal/domain"
)

// DriverName is the database/sql driver the engine opens.
const DriverName = "duckdb"

// Options configure the shared DuckDB instance.
type Options struct {
	// Path is the database file. Empty opens an in-memory database.
	Path string
	// AccessMode is "automatic", "read_only" or "read_write". Empty leaves
	// the engine default.
	AccessMode  string
	Threads     int
	MemoryLimit string
	// MaxOpenConns caps the pool. Zero leaves it unbounded.
	MaxOpenConns int
}

// DSN renders the options as a duckdb-go data source name: the path followed
// by engine settings as query parameters.
func (o Options) DSN() string {
	q := url.Values{}
	if o.AccessMode != "" {
		q.Set("access_mode", o.AccessMode)
	}
	if o.Threads > 0 {
		q.Set("threads", strconv.Itoa(o.Threads))
	}
	if o.MemoryLimit != "" {
		q.Set("max_memory", o.MemoryLimit)
	}
	if len(q) == 0 {
		return o.Path
	}
	return o.Path + "?" + q.Encode()
}

// Engine is the single owner of one native DuckDB instance. The instance is
// opened on first use and shared by every Conn the engine hands out.
type Engine struct {
	opts   Options
	logger *slog.Logger

	once sync.Once
	db   *sql.DB
	err  error
}

// New creates an Engine. Nothing is opened until the first Connect.
func New(opts Options, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{opts: opts, logger: logger}
}

func (e *Engine) instance() (*sql.DB, error) {
	e.once.Do(func() {
		db, err := sql.Open(DriverName, e.opts.DSN())
		if err != nil {
			e.err = fmt.Errorf("open duckdb: %w", err)
			return
		}
		if e.opts.MaxOpenConns > 0 {
			db.SetMaxOpenConns(e.opts.MaxOpenConns)
		}
		e.db = db
		e.logger.Info("duckdb opened", "path", displayPath(e.opts.Path), "max_open_conns", e.opts.MaxOpenConns)
	})
	return e.db, e.err
}

func displayPath(p string) string {
	if p == "" {
		return ":memory:"
	}
	return p
}

// DB returns the shared pool, opening it if needed.
func (e *Engine) DB() (*sql.DB, error) {
	return e.instance()
}

// Connect checks out an independent connection tagged with the logical
// server name tag. The caller must Close it.
func (e *Engine) Connect(ctx context.Context, tag string) (*Conn, error) {
	db, err := e.instance()
	if err != nil {
		return nil, err
	}
	raw, err := db.Conn(ctx)
	if err != nil {
		return nil, domain.NewDatabaseError(fmt.Errorf("connect: %w", err), "")
	}
	c := &Conn{
		ID:     uuid.NewString(),
		Tag:    tag,
		raw:    raw,
		logger: e.logger,
	}
	c.logger.Debug("connection opened", "conn_id", c.ID, "tag", tag)
	return c, nil
}

// Version returns the engine version string.
func (e *Engine) Version(ctx context.Context) (string, error) {
	db, err := e.instance()
	if err != nil {
		return "", err
	}
	var v string
	if err := db.QueryRowContext(ctx, "SELECT version()").Scan(&v); err != nil {
		return "", domain.NewDatabaseError(err, "SELECT version()")
	}
	return v, nil
}

// Close releases the native instance. Connections still checked out are
// closed when returned.
func (e *Engine) Close() error {
	// Completing the once here keeps a later Connect from reopening.
	e.once.Do(func() { e.err = fmt.Errorf("engine closed") })
	if e.db == nil {
		return nil
	}
	e.logger.Info("duckdb closed", "path", displayPath(e.opts.Path))
	return e.db.Close()
}
