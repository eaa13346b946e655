package adapter

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"duck-adapter/internal/dataset"
	"duck-adapter/internal/ddl"
	"duck-adapter/internal/domain"
	"duck-adapter/internal/engine"
)

var unsignedIntRe = regexp.MustCompile(`^\d+$`)

// Columns of a DESCRIBE result, in order.
const (
	describeName = iota
	describeType
	describeNull
	describeKey
	describeDefault
	describeMinColumns
)

// DeriveDefault turns the raw default literal of a column into a typed value.
// literal is nil when the column has no default.
func DeriveDefault(t domain.GenericType, literal *string) domain.DefaultValue {
	if literal == nil {
		return domain.DefaultValue{}
	}
	lit := *literal
	switch t {
	case domain.TypeInteger:
		if unsignedIntRe.MatchString(lit) {
			if n, err := strconv.ParseInt(lit, 10, 64); err == nil {
				return domain.DefaultValue{Kind: domain.DefaultInteger, Int: n}
			}
		}
	case domain.TypeDatetime:
		if lit == "CURRENT_TIMESTAMP" {
			return domain.DefaultValue{Kind: domain.DefaultCurrentTimestamp}
		}
	case domain.TypeDate:
		if lit == "CURRENT_DATE" {
			return domain.DefaultValue{Kind: domain.DefaultCurrentDate}
		}
	case domain.TypeString:
		lit = strings.TrimPrefix(lit, "'")
		lit = strings.TrimSuffix(lit, "'")
		return domain.DefaultValue{Kind: domain.DefaultString, Str: lit}
	case domain.TypeUnknown, domain.TypeBoolean, domain.TypeFloat, domain.TypeDecimal,
		domain.TypeTime, domain.TypeInterval, domain.TypeBlob, domain.TypeUUID:
	}
	return domain.DefaultValue{}
}

// ParseDescribeRow converts one DESCRIBE row into a column descriptor.
func ParseDescribeRow(row []any) (domain.Column, error) {
	if len(row) < describeMinColumns {
		return domain.Column{}, fmt.Errorf("describe row has %d columns, want at least %d", len(row), describeMinColumns)
	}
	name, ok := row[describeName].(string)
	if !ok || name == "" {
		return domain.Column{}, fmt.Errorf("describe row has no column name")
	}
	dbType, _ := row[describeType].(string)
	null, _ := row[describeNull].(string)
	key, _ := row[describeKey].(string)

	col := domain.Column{
		Name:       strings.ToLower(name),
		DBType:     dbType,
		Type:       dataset.GenericTypeOf(dbType),
		AllowNull:  null == "YES",
		PrimaryKey: key == "PRI",
	}
	if def, ok := row[describeDefault].(string); ok {
		col.Default = &def
		col.AutoIncrement = strings.HasPrefix(def, "nextval(")
	}
	col.ParsedDefault = DeriveDefault(col.Type, col.Default)
	return col, nil
}

func describeTable(ctx context.Context, conn *engine.Conn, table string) ([]domain.Column, error) {
	query, err := ddl.Describe(table)
	if err != nil {
		return nil, err
	}
	var cols []domain.Column
	err = conn.Execute(ctx, query, func(row []any) error {
		col, err := ParseDescribeRow(row)
		if err != nil {
			return err
		}
		cols = append(cols, col)
		return nil
	})
	if err != nil {
		return nil, TranslateError(err)
	}
	return cols, nil
}

func splitTableName(name string) (schema, table string) {
	if s, t, ok := strings.Cut(name, "."); ok {
		return s, t
	}
	return "", name
}

func tableExists(ctx context.Context, conn *engine.Conn, name string) (bool, error) {
	if err := ddl.ValidateTableName(name); err != nil {
		return false, domain.ErrValidation("invalid table name: %v", err)
	}
	schema, table := splitTableName(name)
	query := `SELECT count(*) FROM information_schema.tables WHERE table_name = ? AND table_schema = current_schema()`
	args := []any{table}
	if schema != "" {
		query = `SELECT count(*) FROM information_schema.tables WHERE table_name = ? AND table_schema = ?`
		args = append(args, schema)
	}

	var n int64
	err := conn.Execute(ctx, query, func(row []any) error {
		v, ok := row[0].(int64)
		if !ok {
			return fmt.Errorf("count has unexpected type %T", row[0])
		}
		n = v
		return nil
	}, args...)
	if err != nil {
		return false, TranslateError(err)
	}
	return n > 0, nil
}

func (db *Database) schemaOn(ctx context.Context, conn *engine.Conn, table string) ([]domain.Column, error) {
	return db.schemas.Get(ctx, table, func(ctx context.Context, table string) ([]domain.Column, error) {
		return describeTable(ctx, conn, table)
	})
}

// SchemaParseTable returns the columns of table in declaration order.
func (db *Database) SchemaParseTable(ctx context.Context, table string) ([]domain.Column, error) {
	var cols []domain.Column
	err := db.withConn(ctx, func(conn *engine.Conn) error {
		var err error
		cols, err = db.schemaOn(ctx, conn, table)
		return err
	})
	return cols, err
}

// Schema returns the columns of the single table ds reads.
func (db *Database) Schema(ctx context.Context, ds *dataset.Dataset) ([]domain.Column, error) {
	table, err := singleSource(ds)
	if err != nil {
		return nil, err
	}
	return db.SchemaParseTable(ctx, table)
}

func singleSource(ds *dataset.Dataset) (string, error) {
	sources := ds.Sources()
	switch len(sources) {
	case 0:
		return "", domain.ErrValidation("dataset has no source table")
	case 1:
		return sources[0], nil
	default:
		return "", domain.ErrNotImplemented("multiple tables unsupported: %s", strings.Join(sources, ", "))
	}
}

// TableExists reports whether name is a table or view in the current
// schema, or in the schema it is qualified with.
func (db *Database) TableExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := db.withConn(ctx, func(conn *engine.Conn) error {
		var err error
		exists, err = tableExists(ctx, conn, name)
		return err
	})
	return exists, err
}

// Tables lists the base tables of the current schema by name.
func (db *Database) Tables(ctx context.Context) ([]string, error) {
	const query = `SELECT table_name FROM information_schema.tables ` +
		`WHERE table_schema = current_schema() AND table_type = 'BASE TABLE' ORDER BY table_name`
	var names []string
	err := db.withConn(ctx, func(conn *engine.Conn) error {
		return conn.Execute(ctx, query, func(row []any) error {
			if s, ok := row[0].(string); ok {
				names = append(names, s)
			}
			return nil
		})
	})
	if err != nil {
		return nil, TranslateError(err)
	}
	return names, nil
}
