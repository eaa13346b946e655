package dataset

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Dialect holds the engine-specific parts of SQL generation.
type Dialect interface {
	// QuoteIdentifier quotes one identifier part.
	QuoteIdentifier(name string) string
	// Placeholder returns the bind marker for the n-th parameter, 1-based.
	Placeholder(n int) string
	// SelectLockSQL returns the clause appended to a SELECT for lock, including
	// its leading space, or "" when the engine cannot lock rows.
	SelectLockSQL(lock Lock) string
}

// StandardDialect is ANSI quoting with "?" placeholders.
type StandardDialect struct{}

func (StandardDialect) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (StandardDialect) Placeholder(int) string { return "?" }

func (StandardDialect) SelectLockSQL(lock Lock) string {
	switch lock {
	case LockForUpdate:
		return " FOR UPDATE"
	case LockForShare:
		return " FOR SHARE"
	default:
		return ""
	}
}

type sqlBuilder struct {
	strings.Builder
	dialect Dialect
	args    []any
}

func newBuilder(d Dialect) *sqlBuilder {
	if d == nil {
		d = StandardDialect{}
	}
	return &sqlBuilder{dialect: d}
}

func (b *sqlBuilder) bind(v any) {
	b.args = append(b.args, v)
	b.WriteString(b.dialect.Placeholder(len(b.args)))
}

func (b *sqlBuilder) quoteTable(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = b.dialect.QuoteIdentifier(p)
	}
	return strings.Join(parts, ".")
}

func (b *sqlBuilder) list(exprs []Expression) error {
	for i, e := range exprs {
		if i > 0 {
			b.WriteString(", ")
		}
		if e == nil {
			return fmt.Errorf("nil expression at position %d", i)
		}
		if err := e.appendSQL(b); err != nil {
			return err
		}
	}
	return nil
}

func (b *sqlBuilder) whereClause(cond Expression) error {
	if cond == nil {
		return nil
	}
	b.WriteString(" WHERE ")
	return cond.appendSQL(b)
}

// SelectSQL renders the dataset as a SELECT statement.
func (d *Dataset) SelectSQL(dialect Dialect) (string, []any, error) {
	if len(d.from) == 0 {
		return "", nil, fmt.Errorf("select: dataset has no source table")
	}
	b := newBuilder(dialect)
	b.WriteString("SELECT ")
	if len(d.selects) == 0 {
		b.WriteByte('*')
	} else if err := b.list(d.selects); err != nil {
		return "", nil, fmt.Errorf("select list: %w", err)
	}

	b.WriteString(" FROM ")
	for i, t := range d.from {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(b.quoteTable(t))
	}
	for _, j := range d.joins {
		b.WriteByte(' ')
		b.WriteString(string(j.Kind))
		b.WriteByte(' ')
		b.WriteString(b.quoteTable(j.Table))
		if j.On != nil {
			b.WriteString(" ON ")
			if err := j.On.appendSQL(b); err != nil {
				return "", nil, fmt.Errorf("join %s: %w", j.Table, err)
			}
		}
	}

	if err := b.whereClause(d.where); err != nil {
		return "", nil, fmt.Errorf("where: %w", err)
	}
	if len(d.order) > 0 {
		b.WriteString(" ORDER BY ")
		if err := b.list(d.order); err != nil {
			return "", nil, fmt.Errorf("order: %w", err)
		}
	}
	if d.limit >= 0 {
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.Itoa(d.limit))
	}
	if d.offset >= 0 {
		b.WriteString(" OFFSET ")
		b.WriteString(strconv.Itoa(d.offset))
	}
	b.WriteString(b.dialect.SelectLockSQL(d.lock))
	return b.String(), b.args, nil
}

func (d *Dataset) writeTarget(op string) (string, error) {
	if len(d.from) != 1 || len(d.joins) > 0 {
		return "", fmt.Errorf("%s: exactly one source table is required", op)
	}
	return d.from[0], nil
}

// InsertSQL renders an INSERT of values into the dataset's table. Columns are
// written in sorted order. Empty values insert a row of defaults. When
// returning is non-empty those columns are read back with RETURNING.
func (d *Dataset) InsertSQL(dialect Dialect, values Values, returning ...string) (string, []any, error) {
	table, err := d.writeTarget("insert")
	if err != nil {
		return "", nil, err
	}
	b := newBuilder(dialect)
	b.WriteString("INSERT INTO ")
	b.WriteString(b.quoteTable(table))

	if len(values) == 0 {
		b.WriteString(" DEFAULT VALUES")
	} else {
		cols := sortedKeys(values)
		b.WriteString(" (")
		for i, c := range cols {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(b.dialect.QuoteIdentifier(c))
		}
		b.WriteString(") VALUES (")
		for i, c := range cols {
			if i > 0 {
				b.WriteString(", ")
			}
			if err := operand(values[c]).appendSQL(b); err != nil {
				return "", nil, fmt.Errorf("insert %s: %w", c, err)
			}
		}
		b.WriteByte(')')
	}

	if len(returning) > 0 {
		b.WriteString(" RETURNING ")
		for i, c := range returning {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(b.dialect.QuoteIdentifier(c))
		}
	}
	return b.String(), b.args, nil
}

// UpdateSQL renders an UPDATE of the dataset's table restricted by its WHERE.
func (d *Dataset) UpdateSQL(dialect Dialect, values Values) (string, []any, error) {
	table, err := d.writeTarget("update")
	if err != nil {
		return "", nil, err
	}
	if len(values) == 0 {
		return "", nil, fmt.Errorf("update: no values to set")
	}
	b := newBuilder(dialect)
	b.WriteString("UPDATE ")
	b.WriteString(b.quoteTable(table))
	b.WriteString(" SET ")
	for i, c := range sortedKeys(values) {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(b.dialect.QuoteIdentifier(c))
		b.WriteString(" = ")
		if err := operand(values[c]).appendSQL(b); err != nil {
			return "", nil, fmt.Errorf("update %s: %w", c, err)
		}
	}
	if err := b.whereClause(d.where); err != nil {
		return "", nil, fmt.Errorf("where: %w", err)
	}
	return b.String(), b.args, nil
}

// DeleteSQL renders a DELETE from the dataset's table restricted by its WHERE.
func (d *Dataset) DeleteSQL(dialect Dialect) (string, []any, error) {
	table, err := d.writeTarget("delete")
	if err != nil {
		return "", nil, err
	}
	b := newBuilder(dialect)
	b.WriteString("DELETE FROM ")
	b.WriteString(b.quoteTable(table))
	if err := b.whereClause(d.where); err != nil {
		return "", nil, fmt.Errorf("where: %w", err)
	}
	return b.String(), b.args, nil
}

func sortedKeys(v Values) []string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
