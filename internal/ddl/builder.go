// Package ddl builds DuckDB DDL statements for tables, sequences and introspection.
package ddl

import (
	"fmt"
	"strings"
)

// StatementSeparator joins statements that are sent in a single round trip.
const StatementSeparator = "; "

// Reference describes a column-level foreign key.
type Reference struct {
	Table  string `yaml:"table"`
	Column string `yaml:"column"`
}

// ColumnDef describes a column for CREATE TABLE.
//
// Default and Check are raw SQL expressions and are emitted verbatim.
type ColumnDef struct {
	Name          string     `yaml:"name"`
	Type          string     `yaml:"type"`
	PrimaryKey    bool       `yaml:"primary_key,omitempty"`
	AutoIncrement bool       `yaml:"auto_increment,omitempty"`
	NotNull       bool       `yaml:"not_null,omitempty"`
	Unique        bool       `yaml:"unique,omitempty"`
	Default       string     `yaml:"default,omitempty"`
	Check         string     `yaml:"check,omitempty"`
	References    *Reference `yaml:"references,omitempty"`
}

// TableDef describes a table for CREATE TABLE.
type TableDef struct {
	Name    string      `yaml:"name"`
	Columns []ColumnDef `yaml:"columns"`
	// PrimaryKey lists the columns of a composite key. Leave it empty when a
	// single column carries PrimaryKey.
	PrimaryKey  []string `yaml:"primary_key,omitempty"`
	IfNotExists bool     `yaml:"if_not_exists,omitempty"`
}

// PrimaryKeyColumns returns the names of every column participating in the
// primary key, from either the table-level list or column flags.
func (t TableDef) PrimaryKeyColumns() []string {
	if len(t.PrimaryKey) > 0 {
		return t.PrimaryKey
	}
	var names []string
	for _, c := range t.Columns {
		if c.PrimaryKey {
			names = append(names, c.Name)
		}
	}
	return names
}

// CreateTable returns a DuckDB DDL statement:
// CREATE TABLE [IF NOT EXISTS] "<table>" ("<col>" TYPE [constraints], ...).
func CreateTable(def TableDef) (string, error) {
	if err := ValidateTableName(def.Name); err != nil {
		return "", fmt.Errorf("invalid table name: %w", err)
	}
	if len(def.Columns) == 0 {
		return "", fmt.Errorf("at least one column is required")
	}

	pk := def.PrimaryKeyColumns()
	inlinePK := len(def.PrimaryKey) == 0 && len(pk) == 1

	known := make(map[string]bool, len(def.Columns))
	var parts []string
	for _, c := range def.Columns {
		if err := ValidateIdentifier(c.Name); err != nil {
			return "", fmt.Errorf("invalid column name %q: %w", c.Name, err)
		}
		if err := ValidateColumnType(c.Type); err != nil {
			return "", fmt.Errorf("invalid column type for %q: %w", c.Name, err)
		}
		if known[c.Name] {
			return "", fmt.Errorf("duplicate column %q", c.Name)
		}
		known[c.Name] = true
		parts = append(parts, columnSQL(c, inlinePK))
	}

	if !inlinePK && len(pk) > 0 {
		quoted := make([]string, len(pk))
		for i, name := range pk {
			if !known[name] {
				return "", fmt.Errorf("primary key column %q is not defined", name)
			}
			quoted[i] = QuoteIdentifier(name)
		}
		parts = append(parts, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(quoted, ", ")))
	}

	stmt := "CREATE TABLE "
	if def.IfNotExists {
		stmt += "IF NOT EXISTS "
	}
	return stmt + fmt.Sprintf("%s (%s)", QuoteTableName(def.Name), strings.Join(parts, ", ")), nil
}

func columnSQL(c ColumnDef, inlinePK bool) string {
	var b strings.Builder
	b.WriteString(QuoteIdentifier(c.Name))
	b.WriteByte(' ')
	b.WriteString(c.Type)
	if c.Default != "" {
		b.WriteString(" DEFAULT ")
		b.WriteString(c.Default)
	}
	if c.PrimaryKey && inlinePK {
		b.WriteString(" PRIMARY KEY")
	} else if c.NotNull {
		b.WriteString(" NOT NULL")
	}
	if c.Unique {
		b.WriteString(" UNIQUE")
	}
	if c.Check != "" {
		b.WriteString(" CHECK (")
		b.WriteString(c.Check)
		b.WriteByte(')')
	}
	if c.References != nil {
		b.WriteString(" REFERENCES ")
		b.WriteString(QuoteTableName(c.References.Table))
		if c.References.Column != "" {
			b.WriteString(" (")
			b.WriteString(QuoteIdentifier(c.References.Column))
			b.WriteByte(')')
		}
	}
	return b.String()
}

// DropTable returns a DuckDB DDL statement: DROP TABLE [IF EXISTS] "<table>".
func DropTable(name string, ifExists bool) (string, error) {
	if err := ValidateTableName(name); err != nil {
		return "", fmt.Errorf("invalid table name: %w", err)
	}
	if ifExists {
		return "DROP TABLE IF EXISTS " + QuoteTableName(name), nil
	}
	return "DROP TABLE " + QuoteTableName(name), nil
}

// CreateSequence returns a DuckDB DDL statement: CREATE SEQUENCE [IF NOT EXISTS] "<name>".
// name may be qualified by a schema.
func CreateSequence(name string, ifNotExists bool) (string, error) {
	if err := ValidateTableName(name); err != nil {
		return "", fmt.Errorf("invalid sequence name: %w", err)
	}
	if ifNotExists {
		return "CREATE SEQUENCE IF NOT EXISTS " + QuoteTableName(name), nil
	}
	return "CREATE SEQUENCE " + QuoteTableName(name), nil
}

// DropSequence returns a DuckDB DDL statement: DROP SEQUENCE [IF EXISTS] "<name>".
func DropSequence(name string, ifExists bool) (string, error) {
	if err := ValidateTableName(name); err != nil {
		return "", fmt.Errorf("invalid sequence name: %w", err)
	}
	if ifExists {
		return "DROP SEQUENCE IF EXISTS " + QuoteTableName(name), nil
	}
	return "DROP SEQUENCE " + QuoteTableName(name), nil
}

// NextVal returns the column default expression drawing from a sequence.
func NextVal(sequence string) string {
	return "nextval(" + QuoteLiteral(sequence) + ")"
}

// Describe returns the introspection statement: DESCRIBE "<table>".
func Describe(table string) (string, error) {
	if err := ValidateTableName(table); err != nil {
		return "", fmt.Errorf("invalid table name: %w", err)
	}
	return "DESCRIBE " + QuoteTableName(table), nil
}

// JoinStatements joins statements with StatementSeparator for one round trip.
func JoinStatements(stmts []string) string {
	return strings.Join(stmts, StatementSeparator)
}
