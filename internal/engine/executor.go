package engine

import (
	"context"
	"database/sql"
	"log/slog"

	"duck-adapter/internal/domain"
)

// Conn is one checked-out DuckDB connection. It is not safe for concurrent use.
type Conn struct {
	ID  string
	Tag string

	raw    *sql.Conn
	logger *slog.Logger
}

// Raw exposes the underlying connection.
func (c *Conn) Raw() *sql.Conn { return c.raw }

// Query runs query and returns a forward-only iterator over its rows.
func (c *Conn) Query(ctx context.Context, query string, args ...any) (*RowIterator, error) {
	c.logger.Debug("query", "sql", query, "conn_id", c.ID, "tag", c.Tag)
	rows, err := c.raw.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, domain.NewDatabaseError(err, query)
	}
	cols, err := rows.Columns()
	if err != nil {
		_ = rows.Close()
		return nil, domain.NewDatabaseError(err, query)
	}
	return &RowIterator{rows: rows, cols: cols, sql: query}, nil
}

// Execute runs query. When fn is non-nil it is called with each row in order
// and a non-nil return stops iteration. When fn is nil the statement runs for
// its side effects only.
func (c *Conn) Execute(ctx context.Context, query string, fn func(row []any) error, args ...any) error {
	if fn == nil {
		_, err := c.Exec(ctx, query, args...)
		return err
	}
	it, err := c.Query(ctx, query, args...)
	if err != nil {
		return err
	}
	defer it.Close()
	for it.Next() {
		if err := fn(it.Values()); err != nil {
			return err
		}
	}
	return it.Err()
}

// Exec runs a statement and returns the number of rows it affected.
func (c *Conn) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	c.logger.Debug("exec", "sql", query, "conn_id", c.ID, "tag", c.Tag)
	res, err := c.raw.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, domain.NewDatabaseError(err, query)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, domain.NewDatabaseError(err, query)
	}
	return n, nil
}

// ExecInTx runs stmts in order inside one transaction. Nothing is applied
// unless every statement succeeds.
func (c *Conn) ExecInTx(ctx context.Context, stmts []string) error {
	tx, err := c.raw.BeginTx(ctx, nil)
	if err != nil {
		return domain.NewDatabaseError(err, "BEGIN TRANSACTION")
	}
	for _, stmt := range stmts {
		c.logger.Debug("exec", "sql", stmt, "conn_id", c.ID, "tag", c.Tag, "tx", true)
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return domain.NewDatabaseError(err, stmt)
		}
	}
	if err := tx.Commit(); err != nil {
		return domain.NewDatabaseError(err, "COMMIT")
	}
	return nil
}

// Close returns the connection to the pool.
func (c *Conn) Close() error {
	c.logger.Debug("connection closed", "conn_id", c.ID, "tag", c.Tag)
	return c.raw.Close()
}

// RowIterator walks a result set positionally.
type RowIterator struct {
	rows *sql.Rows
	cols []string
	vals []any
	sql  string
	err  error
}

// Columns returns the column names the engine reported, in result order.
func (it *RowIterator) Columns() []string { return it.cols }

// Next advances to the next row. It returns false at the end of the result
// set or on error; check Err afterwards.
func (it *RowIterator) Next() bool {
	if it.err != nil || !it.rows.Next() {
		return false
	}
	vals := make([]any, len(it.cols))
	ptrs := make([]any, len(it.cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := it.rows.Scan(ptrs...); err != nil {
		it.err = domain.NewDatabaseError(err, it.sql)
		return false
	}
	it.vals = vals
	return true
}

// Values returns the current row. The slice is not reused by later calls.
func (it *RowIterator) Values() []any { return it.vals }

func (it *RowIterator) Err() error {
	if it.err != nil {
		return it.err
	}
	if err := it.rows.Err(); err != nil {
		return domain.NewDatabaseError(err, it.sql)
	}
	return nil
}

func (it *RowIterator) Close() error { return it.rows.Close() }
