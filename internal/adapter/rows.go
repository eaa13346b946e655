package adapter

import (
	"context"
	"errors"
	"fmt"

	"duck-adapter/internal/dataset"
	"duck-adapter/internal/domain"
	"duck-adapter/internal/engine"
)

// Records is a single-pass cursor over named rows. It holds a connection
// until Close, and cannot be rewound: reading the rows again means fetching
// again.
type Records struct {
	conn    *engine.Conn
	it      *engine.RowIterator
	columns []string
	rec     domain.Record
	err     error
	closed  bool
	db      *Database
}

// Columns returns the resolved column names.
func (r *Records) Columns() []string { return r.columns }

// Next advances to the next record.
func (r *Records) Next() bool {
	if r.closed || r.err != nil {
		return false
	}
	if !r.it.Next() {
		return false
	}
	vals := r.it.Values()
	if len(vals) != len(r.columns) {
		r.err = fmt.Errorf("row has %d values for %d columns", len(vals), len(r.columns))
		return false
	}
	r.rec = domain.NewRecord(r.columns, vals)
	return true
}

// Record returns the current record.
func (r *Records) Record() domain.Record { return r.rec }

// Err returns the error that stopped iteration, if any.
func (r *Records) Err() error {
	if r.err != nil {
		return r.err
	}
	return r.db.translate(r.it.Err())
}

// Close releases the result set and its connection. Calling it again is a no-op.
func (r *Records) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return errors.Join(r.it.Close(), r.conn.Close())
}

// FetchRows runs ds and returns its rows keyed by column name.
//
// Names come from the select list when there is one: an alias, or the column
// of an identifier. Other expressions take the name the engine reports. A
// star, or no select list, expands to the source table's columns in schema
// order. Row lock requests are dropped.
func (db *Database) FetchRows(ctx context.Context, ds *dataset.Dataset) (*Records, error) {
	table, err := singleSource(ds)
	if err != nil {
		return nil, err
	}
	query, args, err := ds.SelectSQL(db.dialect)
	if err != nil {
		return nil, domain.ErrValidation("%v", err)
	}
	if ds.Lock() != dataset.LockNone {
		db.logger.Debug("row lock ignored", "table", table)
	}

	conn, err := db.engine.Connect(ctx, db.tag)
	if err != nil {
		return nil, err
	}

	// The schema lookup runs before the query so the two never share the
	// connection concurrently.
	var schema []string
	if needsSchema(ds) {
		cols, err := db.schemaOn(ctx, conn, table)
		if err != nil {
			_ = conn.Close()
			return nil, err
		}
		schema = domain.ColumnNames(cols)
	}

	it, err := conn.Query(ctx, query, args...)
	if err != nil {
		_ = conn.Close()
		return nil, db.translate(err)
	}

	names := resolveColumns(ds, schema, it.Columns())
	if len(names) != len(it.Columns()) {
		_ = it.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("resolved %d column names for %d result columns", len(names), len(it.Columns()))
	}
	return &Records{conn: conn, it: it, columns: names, db: db}, nil
}

// Query runs raw SQL and returns its rows keyed by the names the engine
// reports.
func (db *Database) Query(ctx context.Context, query string, args ...any) (*Records, error) {
	conn, err := db.engine.Connect(ctx, db.tag)
	if err != nil {
		return nil, err
	}
	it, err := conn.Query(ctx, query, args...)
	if err != nil {
		_ = conn.Close()
		return nil, db.translate(err)
	}
	return &Records{conn: conn, it: it, columns: it.Columns(), db: db}, nil
}

func needsSchema(ds *dataset.Dataset) bool {
	if ds.SelectsAll() {
		return true
	}
	for _, e := range ds.Selects() {
		if _, ok := e.(dataset.Star); ok {
			return true
		}
	}
	return false
}

// resolveColumns names each result column. schema holds the source table's
// columns when the select list contains a star.
func resolveColumns(ds *dataset.Dataset, schema, engineCols []string) []string {
	if ds.SelectsAll() {
		return schema
	}
	var names []string
	for _, e := range ds.Selects() {
		if _, ok := e.(dataset.Star); ok {
			names = append(names, schema...)
			continue
		}
		if name, ok := dataset.ResultColumnName(e); ok {
			names = append(names, name)
			continue
		}
		if i := len(names); i < len(engineCols) {
			names = append(names, engineCols[i])
		}
	}
	return names
}

// Each calls fn for every record of ds. A non-nil return from fn stops
// iteration and is returned.
func (db *Database) Each(ctx context.Context, ds *dataset.Dataset, fn func(domain.Record) error) error {
	rs, err := db.FetchRows(ctx, ds)
	if err != nil {
		return err
	}
	defer rs.Close()
	for rs.Next() {
		if err := fn(rs.Record()); err != nil {
			return err
		}
	}
	return rs.Err()
}

// All returns every record of ds.
func (db *Database) All(ctx context.Context, ds *dataset.Dataset) ([]domain.Record, error) {
	var out []domain.Record
	err := db.Each(ctx, ds, func(r domain.Record) error {
		out = append(out, r)
		return nil
	})
	return out, err
}

// First returns the first record of ds. ok is false when ds is empty.
func (db *Database) First(ctx context.Context, ds *dataset.Dataset) (rec domain.Record, ok bool, err error) {
	rs, err := db.FetchRows(ctx, ds.Limit(1))
	if err != nil {
		return domain.Record{}, false, err
	}
	defer rs.Close()
	if rs.Next() {
		return rs.Record(), true, nil
	}
	return domain.Record{}, false, rs.Err()
}

// Pluck returns the values of one column across ds.
func (db *Database) Pluck(ctx context.Context, ds *dataset.Dataset, column string) ([]any, error) {
	var out []any
	err := db.Each(ctx, ds.Select(dataset.Ident(column)), func(r domain.Record) error {
		out = append(out, r.Values[0])
		return nil
	})
	return out, err
}

// Insert adds one row to the table of ds. Empty values insert a row of
// defaults. For a table with a single integer primary key the new key is
// returned; otherwise the result is 0.
func (db *Database) Insert(ctx context.Context, ds *dataset.Dataset, values dataset.Values) (int64, error) {
	table, err := singleSource(ds)
	if err != nil {
		return 0, err
	}

	var id int64
	err = db.withConn(ctx, func(conn *engine.Conn) error {
		cols, err := db.schemaOn(ctx, conn, table)
		if err != nil {
			return err
		}
		var returning []string
		if pk := domain.PrimaryKeyColumns(cols); len(pk) == 1 && pk[0].Type == domain.TypeInteger {
			returning = []string{pk[0].Name}
		}

		query, args, err := ds.InsertSQL(db.dialect, values, returning...)
		if err != nil {
			return domain.ErrValidation("%v", err)
		}
		if len(returning) == 0 {
			_, err = conn.Exec(ctx, query, args...)
			return err
		}
		return conn.Execute(ctx, query, func(row []any) error {
			id, err = toInt64(row[0])
			return err
		}, args...)
	})
	if err != nil {
		return 0, db.translate(err)
	}
	return id, nil
}

// Update sets values on the rows of ds and returns the number changed.
func (db *Database) Update(ctx context.Context, ds *dataset.Dataset, values dataset.Values) (int64, error) {
	query, args, err := ds.UpdateSQL(db.dialect, values)
	if err != nil {
		return 0, domain.ErrValidation("%v", err)
	}
	return db.Exec(ctx, query, args...)
}

// Delete removes the rows of ds and returns the number removed.
func (db *Database) Delete(ctx context.Context, ds *dataset.Dataset) (int64, error) {
	query, args, err := ds.DeleteSQL(db.dialect)
	if err != nil {
		return 0, domain.ErrValidation("%v", err)
	}
	return db.Exec(ctx, query, args...)
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("primary key has non-integer type %T", v)
	}
}
