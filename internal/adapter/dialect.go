package adapter

import (
	"context"
	"fmt"
	"strings"

	"duck-adapter/internal/dataset"
	"duck-adapter/internal/ddl"
	"duck-adapter/internal/domain"
	"duck-adapter/internal/engine"
)

// DuckDBDialect renders datasets for DuckDB. DuckDB has no row locks, so
// FOR UPDATE and FOR SHARE are dropped.
type DuckDBDialect struct {
	dataset.StandardDialect
}

func (DuckDBDialect) SelectLockSQL(dataset.Lock) string { return "" }

// SequenceName returns the sequence backing the auto-increment column of
// table. The sequence lives in the table's schema: "s.items" gets
// "s.seq_items_id", a bare "items" the connection's current schema.
func SequenceName(table, column string) string {
	name := "seq_" + ddl.UnqualifiedName(table) + "_" + column
	if schema, _, ok := strings.Cut(table, "."); ok {
		return schema + "." + name
	}
	return name
}

// autoIncrementColumn returns the index of the single integer primary-key
// column flagged AutoIncrement, or -1 when there is none, several, or the key
// is composite.
func autoIncrementColumn(def ddl.TableDef) int {
	if len(def.PrimaryKeyColumns()) != 1 {
		return -1
	}
	found := -1
	for i, c := range def.Columns {
		if !c.PrimaryKey || !c.AutoIncrement {
			continue
		}
		if found >= 0 {
			return -1
		}
		found = i
	}
	if found < 0 || dataset.GenericTypeOf(def.Columns[found].Type) != domain.TypeInteger {
		return -1
	}
	return found
}

// CreateTableSQL returns the statements creating def. A single auto-increment
// integer primary key gets a sequence, created first, and a nextval default.
func CreateTableSQL(def ddl.TableDef) ([]string, error) {
	var stmts []string
	if i := autoIncrementColumn(def); i >= 0 {
		seq := SequenceName(def.Name, def.Columns[i].Name)
		create, err := ddl.CreateSequence(seq, def.IfNotExists)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, create)

		cols := make([]ddl.ColumnDef, len(def.Columns))
		copy(cols, def.Columns)
		cols[i].Default = ddl.NextVal(seq)
		def.Columns = cols
	}

	table, err := ddl.CreateTable(def)
	if err != nil {
		return nil, err
	}
	return append(stmts, table), nil
}

// DropOptions modify DropTableSQL.
type DropOptions struct {
	IfExists bool
}

// DropTableSQL returns the statements dropping name. The table's columns
// are read live on conn, bypassing the schema cache.
func DropTableSQL(ctx context.Context, conn *engine.Conn, name string, opts DropOptions) ([]string, error) {
	if err := ddl.ValidateTableName(name); err != nil {
		return nil, domain.ErrValidation("invalid table name: %v", err)
	}
	exists, err := tableExists(ctx, conn, name)
	if err != nil {
		return nil, err
	}
	var cols []domain.Column
	if exists {
		if cols, err = describeTable(ctx, conn, name); err != nil {
			return nil, err
		}
	}
	return DropTableStatements(name, opts, cols)
}

// DropTableStatements composes the drop of name from its columns; cols is
// empty when the table does not exist. A table with exactly one integer
// primary key also drops that key's sequence, after the table since the
// column default depends on it. IF EXISTS on the sequence tolerates tables
// created without one.
func DropTableStatements(name string, opts DropOptions, cols []domain.Column) ([]string, error) {
	drop, err := ddl.DropTable(name, opts.IfExists)
	if err != nil {
		return nil, err
	}
	stmts := []string{drop}

	pk := domain.PrimaryKeyColumns(cols)
	if len(pk) != 1 || pk[0].Type != domain.TypeInteger {
		return stmts, nil
	}
	seq, err := ddl.DropSequence(SequenceName(name, pk[0].Name), true)
	if err != nil {
		return nil, fmt.Errorf("sequence for %s: %w", name, err)
	}
	return append(stmts, seq), nil
}
