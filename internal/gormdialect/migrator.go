package gormdialect

import (
	"database/sql"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/migrator"
	"gorm.io/gorm/schema"

	"duck-adapter/internal/adapter"
	"duck-adapter/internal/ddl"
	"duck-adapter/internal/domain"
)

// Migrator adds DuckDB sequences and catalog queries to gorm's generic migrator.
type Migrator struct {
	migrator.Migrator
}

func (m Migrator) CurrentDatabase() (name string) {
	_ = m.DB.Raw("SELECT current_database()").Row().Scan(&name)
	return name
}

// FullDataTypeOf gives the auto-increment primary key a nextval default.
func (m Migrator) FullDataTypeOf(field *schema.Field) clause.Expr {
	expr := m.Migrator.FullDataTypeOf(field)
	if seq, ok := sequenceOf(field); ok {
		expr.SQL += nextValDefault(seq)
	}
	return expr
}

// CreateTable creates each table's key sequence before the table itself,
// since the column default refers to it. Both run in one transaction so a
// failed CREATE TABLE leaves no sequence behind.
func (m Migrator) CreateTable(values ...interface{}) error {
	for _, value := range values {
		err := m.DB.Transaction(func(tx *gorm.DB) error {
			return tx.Migrator().(Migrator).createTable(value)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (m Migrator) createTable(value interface{}) error {
	err := m.RunWithValue(value, func(stmt *gorm.Statement) error {
		if stmt.Schema == nil {
			return nil
		}
		for _, field := range stmt.Schema.PrimaryFields {
			seq, ok := sequenceOf(field)
			if !ok {
				continue
			}
			create, err := ddl.CreateSequence(seq, false)
			if err != nil {
				return err
			}
			return m.DB.Exec(create).Error
		}
		return nil
	})
	if err != nil {
		return err
	}
	return m.Migrator.CreateTable(value)
}

// DropTable drops tables in reverse order, each with its key sequence.
// Absent tables are skipped.
func (m Migrator) DropTable(values ...interface{}) error {
	for i := len(values) - 1; i >= 0; i-- {
		err := m.RunWithValue(values[i], func(stmt *gorm.Statement) error {
			var cols []domain.Column
			if m.hasTable(stmt.Table) {
				var err error
				if cols, err = m.describe(stmt.Table); err != nil {
					return err
				}
			}
			stmts, err := adapter.DropTableStatements(stmt.Table, adapter.DropOptions{IfExists: true}, cols)
			if err != nil {
				return err
			}
			for _, s := range stmts {
				if err := m.DB.Exec(s).Error; err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (m Migrator) HasTable(value interface{}) bool {
	var found bool
	_ = m.RunWithValue(value, func(stmt *gorm.Statement) error {
		found = m.hasTable(stmt.Table)
		return nil
	})
	return found
}

func (m Migrator) hasTable(table string) bool {
	var count int64
	_ = m.DB.Raw(
		"SELECT count(*) FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = ?",
		table,
	).Row().Scan(&count)
	return count > 0
}

func (m Migrator) GetTables() (tables []string, err error) {
	err = m.DB.Raw(
		"SELECT table_name FROM information_schema.tables WHERE table_schema = current_schema() AND table_type = 'BASE TABLE' ORDER BY table_name",
	).Scan(&tables).Error
	return tables, err
}

func (m Migrator) HasColumn(value interface{}, name string) bool {
	var count int64
	_ = m.RunWithValue(value, func(stmt *gorm.Statement) error {
		if stmt.Schema != nil {
			if field := stmt.Schema.LookUpField(name); field != nil {
				name = field.DBName
			}
		}
		return m.DB.Raw(
			"SELECT count(*) FROM information_schema.columns WHERE table_schema = current_schema() AND table_name = ? AND column_name = ?",
			stmt.Table, name,
		).Row().Scan(&count)
	})
	return count > 0
}

func (m Migrator) HasIndex(value interface{}, name string) bool {
	var count int64
	_ = m.RunWithValue(value, func(stmt *gorm.Statement) error {
		if stmt.Schema != nil {
			if idx := stmt.Schema.LookIndex(name); idx != nil {
				name = idx.Name
			}
		}
		return m.DB.Raw(
			"SELECT count(*) FROM duckdb_indexes() WHERE table_name = ? AND index_name = ?",
			stmt.Table, name,
		).Row().Scan(&count)
	})
	return count > 0
}

// ColumnTypes reports the live columns of value's table from DESCRIBE.
func (m Migrator) ColumnTypes(value interface{}) ([]gorm.ColumnType, error) {
	var types []gorm.ColumnType
	err := m.RunWithValue(value, func(stmt *gorm.Statement) error {
		cols, err := m.describe(stmt.Table)
		if err != nil {
			return err
		}
		for _, c := range cols {
			types = append(types, columnType(c))
		}
		return nil
	})
	return types, err
}

func (m Migrator) describe(table string) ([]domain.Column, error) {
	query, err := ddl.Describe(table)
	if err != nil {
		return nil, err
	}
	rows, err := m.DB.Raw(query).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	names, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var cols []domain.Column
	for rows.Next() {
		vals := make([]any, len(names))
		ptrs := make([]any, len(names))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan describe %s: %w", table, err)
		}
		col, err := adapter.ParseDescribeRow(vals)
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}
	return cols, rows.Err()
}

func columnType(c domain.Column) migrator.ColumnType {
	ct := migrator.ColumnType{
		NameValue:          sql.NullString{String: c.Name, Valid: true},
		DataTypeValue:      sql.NullString{String: c.DBType, Valid: true},
		ColumnTypeValue:    sql.NullString{String: c.DBType, Valid: true},
		PrimaryKeyValue:    sql.NullBool{Bool: c.PrimaryKey, Valid: true},
		AutoIncrementValue: sql.NullBool{Bool: c.AutoIncrement, Valid: true},
		NullableValue:      sql.NullBool{Bool: c.AllowNull, Valid: true},
	}
	if c.Default != nil {
		ct.DefaultValueValue = sql.NullString{String: *c.Default, Valid: true}
	}
	return ct
}
