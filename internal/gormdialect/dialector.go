// Package gormdialect is a gorm dialector for DuckDB. It shares the adapter's
// sequence naming, drop logic and error classification.
package gormdialect

import (
	"database/sql"
	"strconv"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2" // registers the "duckdb" driver

	"gorm.io/gorm"
	"gorm.io/gorm/callbacks"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/migrator"
	"gorm.io/gorm/schema"

	"duck-adapter/internal/adapter"
	"duck-adapter/internal/ddl"
	"duck-adapter/internal/domain"
	"duck-adapter/internal/engine"
)

// Config configures the dialector. Conn, when set, is used instead of
// opening DSN.
type Config struct {
	DriverName string
	DSN        string
	Conn       gorm.ConnPool
}

// Dialector implements gorm.Dialector and gorm.ErrorTranslator.
type Dialector struct {
	*Config
}

// Open returns a dialector opening dsn with the duckdb driver.
func Open(dsn string) gorm.Dialector {
	return &Dialector{Config: &Config{DSN: dsn}}
}

// New returns a dialector for config.
func New(config Config) gorm.Dialector {
	return &Dialector{Config: &config}
}

func (Dialector) Name() string { return engine.DriverName }

var (
	createClauses = []string{"INSERT", "VALUES", "ON CONFLICT", "RETURNING"}
	updateClauses = []string{"UPDATE", "SET", "FROM", "WHERE", "RETURNING"}
	deleteClauses = []string{"DELETE", "FROM", "WHERE", "RETURNING"}
)

func (d Dialector) Initialize(db *gorm.DB) error {
	callbacks.RegisterDefaultCallbacks(db, &callbacks.Config{
		CreateClauses: createClauses,
		UpdateClauses: updateClauses,
		DeleteClauses: deleteClauses,
	})

	if d.Conn != nil {
		db.ConnPool = d.Conn
	} else {
		driver := d.DriverName
		if driver == "" {
			driver = engine.DriverName
		}
		sqlDB, err := sql.Open(driver, d.DSN)
		if err != nil {
			return err
		}
		db.ConnPool = sqlDB
	}

	if db.ClauseBuilders == nil {
		db.ClauseBuilders = map[string]clause.ClauseBuilder{}
	}
	for name, builder := range clauseBuilders {
		db.ClauseBuilders[name] = builder
	}
	return nil
}

// clauseBuilders override gorm's defaults. DuckDB has no row locks, so the
// FOR clause renders nothing.
var clauseBuilders = map[string]clause.ClauseBuilder{
	"FOR": func(clause.Clause, clause.Builder) {},
}

func (d Dialector) Migrator(db *gorm.DB) gorm.Migrator {
	return Migrator{
		Migrator: migrator.Migrator{
			Config: migrator.Config{
				DB:                          db,
				Dialector:                   d,
				CreateIndexAfterCreateTable: true,
			},
		},
	}
}

func (Dialector) DataTypeOf(field *schema.Field) string {
	switch field.DataType {
	case schema.Bool:
		return "BOOLEAN"
	case schema.Int:
		return intType(field.Size)
	case schema.Uint:
		return "U" + intType(field.Size)
	case schema.Float:
		if field.Precision > 0 {
			return "DECIMAL(" + strconv.Itoa(field.Precision) + "," + strconv.Itoa(field.Scale) + ")"
		}
		if field.Size > 0 && field.Size <= 32 {
			return "FLOAT"
		}
		return "DOUBLE"
	case schema.String:
		return "VARCHAR"
	case schema.Time:
		return "TIMESTAMP"
	case schema.Bytes:
		return "BLOB"
	}
	return string(field.DataType)
}

func intType(size int) string {
	switch {
	case size > 0 && size <= 8:
		return "TINYINT"
	case size > 0 && size <= 16:
		return "SMALLINT"
	case size > 0 && size <= 32:
		return "INTEGER"
	default:
		return "BIGINT"
	}
}

func (Dialector) DefaultValueOf(*schema.Field) clause.Expression {
	return clause.Expr{SQL: "DEFAULT"}
}

func (Dialector) BindVarTo(writer clause.Writer, _ *gorm.Statement, _ interface{}) {
	_ = writer.WriteByte('?')
}

// QuoteTo double-quotes each dot-separated part of str.
func (Dialector) QuoteTo(writer clause.Writer, str string) {
	for i, part := range strings.Split(str, ".") {
		if i > 0 {
			_ = writer.WriteByte('.')
		}
		_ = writer.WriteByte('"')
		_, _ = writer.WriteString(strings.ReplaceAll(part, `"`, `""`))
		_ = writer.WriteByte('"')
	}
}

func (Dialector) Explain(sql string, vars ...interface{}) string {
	return logger.ExplainSQL(sql, nil, `'`, vars...)
}

// Translate maps engine failures onto gorm's sentinel errors where gorm has
// one. Other constraint failures come back as *domain.DatabaseError.
func (Dialector) Translate(err error) error {
	translated := adapter.TranslateError(err)
	switch domain.KindOf(translated) {
	case domain.KindUniqueConstraint:
		return gorm.ErrDuplicatedKey
	case domain.KindForeignKeyConstraint:
		return gorm.ErrForeignKeyViolated
	}
	return translated
}

// sequenceOf returns the sequence backing field when it is the single
// auto-increment integer primary key of its schema.
func sequenceOf(field *schema.Field) (string, bool) {
	if field == nil || field.Schema == nil || !field.PrimaryKey || !field.AutoIncrement {
		return "", false
	}
	if len(field.Schema.PrimaryFields) != 1 {
		return "", false
	}
	if field.DataType != schema.Int && field.DataType != schema.Uint {
		return "", false
	}
	return adapter.SequenceName(field.Schema.Table, field.DBName), true
}

func nextValDefault(seq string) string {
	return " DEFAULT " + ddl.NextVal(seq)
}
