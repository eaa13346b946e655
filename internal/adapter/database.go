// Package adapter binds the dataset builder to DuckDB: it translates table
// lifecycle statements, introspects schemas, classifies engine errors and
// materializes named rows.
package adapter

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"time"

	"duck-adapter/internal/dataset"
	"duck-adapter/internal/ddl"
	"duck-adapter/internal/domain"
	"duck-adapter/internal/engine"
)

// DefaultTag is the logical server tag for connections when none is configured.
const DefaultTag = "default"

// Options configure a Database.
type Options struct {
	Logger *slog.Logger
	// Tag is the logical server or shard name attached to each connection.
	Tag string
	// SchemaCacheSize bounds the number of cached table descriptors. Zero
	// disables the cache.
	SchemaCacheSize int
	SchemaCacheTTL  time.Duration
}

// Database runs datasets against an Engine.
type Database struct {
	engine  *engine.Engine
	dialect DuckDBDialect
	schemas *dataset.SchemaCache
	logger  *slog.Logger
	tag     string
}

// New creates a Database over eng. The Database does not own eng.
func New(eng *engine.Engine, opts Options) *Database {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	tag := opts.Tag
	if tag == "" {
		tag = DefaultTag
	}
	return &Database{
		engine:  eng,
		schemas: dataset.NewSchemaCache(opts.SchemaCacheSize, opts.SchemaCacheTTL),
		logger:  logger,
		tag:     tag,
	}
}

// Dialect returns the dialect datasets are rendered with.
func (db *Database) Dialect() dataset.Dialect { return db.dialect }

// From starts a dataset over tables.
func (db *Database) From(tables ...string) *dataset.Dataset {
	return dataset.From(tables...)
}

func (db *Database) withConn(ctx context.Context, fn func(*engine.Conn) error) error {
	conn, err := db.engine.Connect(ctx, db.tag)
	if err != nil {
		return err
	}
	err = fn(conn)
	if cerr := conn.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// translate classifies err and logs constraint violations.
func (db *Database) translate(err error) error {
	err = TranslateError(err)
	var dbErr *domain.DatabaseError
	if errors.As(err, &dbErr) && dbErr.Kind != domain.KindDatabase {
		db.logger.Warn("constraint violation", "kind", dbErr.Kind.String(), "sql", dbErr.SQL)
	}
	return err
}

// schemaChangeRe matches raw SQL that may alter a table's columns.
var schemaChangeRe = regexp.MustCompile(`(?i)(^|;)\s*(CREATE|ALTER|DROP)\b`)

// noteSchemaChange purges cached descriptors after raw DDL, which names its
// tables in ways the cache cannot key on.
func (db *Database) noteSchemaChange(query string) {
	if schemaChangeRe.MatchString(query) {
		db.schemas.Purge()
		db.logger.Debug("schema cache purged", "sql", query)
	}
}

// Execute runs query. fn, when non-nil, receives each row positionally.
func (db *Database) Execute(ctx context.Context, query string, fn func(row []any) error, args ...any) error {
	err := db.withConn(ctx, func(conn *engine.Conn) error {
		return conn.Execute(ctx, query, fn, args...)
	})
	db.noteSchemaChange(query)
	return db.translate(err)
}

// Exec runs a statement and returns the number of rows affected.
func (db *Database) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	var n int64
	err := db.withConn(ctx, func(conn *engine.Conn) error {
		var err error
		n, err = conn.Exec(ctx, query, args...)
		return err
	})
	db.noteSchemaChange(query)
	if err != nil {
		return 0, db.translate(err)
	}
	return n, nil
}

// runDDL applies stmts atomically, so a failed CREATE TABLE never leaves its
// sequence behind. The whole schema cache is purged: the same table may be
// cached under a bare and a schema-qualified name.
func (db *Database) runDDL(ctx context.Context, conn *engine.Conn, table string, stmts []string) error {
	db.schemas.Purge()
	if err := conn.ExecInTx(ctx, stmts); err != nil {
		return db.translate(err)
	}
	db.schemas.Purge()
	db.logger.Info("ddl", "table", table, "sql", ddl.JoinStatements(stmts))
	return nil
}

// CreateTable creates def.Name.
func (db *Database) CreateTable(ctx context.Context, def ddl.TableDef) error {
	stmts, err := CreateTableSQL(def)
	if err != nil {
		return domain.ErrValidation("create table %s: %v", def.Name, err)
	}
	return db.withConn(ctx, func(conn *engine.Conn) error {
		return db.runDDL(ctx, conn, def.Name, stmts)
	})
}

// CreateTableIfNotExists creates def.Name unless it already exists.
func (db *Database) CreateTableIfNotExists(ctx context.Context, def ddl.TableDef) error {
	def.IfNotExists = true
	return db.CreateTable(ctx, def)
}

// CreateTableBang drops def.Name if it exists and creates it afresh.
func (db *Database) CreateTableBang(ctx context.Context, def ddl.TableDef) error {
	if err := db.DropTableIfExists(ctx, def.Name); err != nil {
		return err
	}
	def.IfNotExists = false
	return db.CreateTable(ctx, def)
}

func (db *Database) dropTable(ctx context.Context, name string, opts DropOptions) error {
	return db.withConn(ctx, func(conn *engine.Conn) error {
		stmts, err := DropTableSQL(ctx, conn, name, opts)
		if err != nil {
			return err
		}
		return db.runDDL(ctx, conn, name, stmts)
	})
}

// DropTable drops name and its sequence. It fails when the table is absent.
func (db *Database) DropTable(ctx context.Context, name string) error {
	return db.dropTable(ctx, name, DropOptions{})
}

// DropTableIfExists drops name and its sequence when the table exists.
func (db *Database) DropTableIfExists(ctx context.Context, name string) error {
	return db.dropTable(ctx, name, DropOptions{IfExists: true})
}

// Version returns the engine version.
func (db *Database) Version(ctx context.Context) (string, error) {
	return db.engine.Version(ctx)
}
