package dataset

import (
	"fmt"
	"strings"
)

// Expression is a fragment of SQL that can appear in a select list, a WHERE
// clause or an ORDER BY.
type Expression interface {
	appendSQL(b *sqlBuilder) error
}

// Identifier is an unqualified column reference.
type Identifier struct {
	Name string
}

// QualifiedIdentifier is a column reference qualified by its table.
type QualifiedIdentifier struct {
	Table  string
	Column string
}

// AliasedExpression renames an expression in the result set.
type AliasedExpression struct {
	Expr  Expression
	Alias string
}

// Literal is a bound parameter.
type Literal struct {
	Value any
}

// RawExpression is SQL emitted verbatim. Each "?" in SQL is bound to the
// next element of Args.
type RawExpression struct {
	SQL  string
	Args []any
}

// Star selects every column, optionally of a single table.
type Star struct {
	Table string
}

// BinaryExpression is Left Op Right.
type BinaryExpression struct {
	Op    string
	Left  Expression
	Right Expression
}

// BooleanExpression joins conditions with AND or OR.
type BooleanExpression struct {
	Op    string
	Terms []Expression
}

// OrderedExpression is an ORDER BY term.
type OrderedExpression struct {
	Expr       Expression
	Descending bool
}

// Ident returns a column reference. A dotted name ("items.id") becomes a
// QualifiedIdentifier.
func Ident(name string) Expression {
	if table, col, ok := strings.Cut(name, "."); ok {
		return QualifiedIdentifier{Table: table, Column: col}
	}
	return Identifier{Name: name}
}

// Qualify returns table.column.
func Qualify(table, column string) QualifiedIdentifier {
	return QualifiedIdentifier{Table: table, Column: column}
}

// As aliases e.
func As(e Expression, alias string) AliasedExpression {
	return AliasedExpression{Expr: e, Alias: alias}
}

// Lit binds v as a parameter.
func Lit(v any) Literal { return Literal{Value: v} }

// Raw embeds sql verbatim.
func Raw(sql string, args ...any) RawExpression {
	return RawExpression{SQL: sql, Args: args}
}

// AllColumns is SELECT *.
func AllColumns() Star { return Star{} }

// Desc orders e descending.
func Desc(e Expression) OrderedExpression {
	return OrderedExpression{Expr: e, Descending: true}
}

// Asc orders e ascending.
func Asc(e Expression) OrderedExpression {
	return OrderedExpression{Expr: e}
}

// Eq compares column with v. A nil v renders IS NULL.
func Eq(column string, v any) Expression {
	if v == nil {
		return BinaryExpression{Op: "IS", Left: Ident(column), Right: Raw("NULL")}
	}
	return BinaryExpression{Op: "=", Left: Ident(column), Right: operand(v)}
}

// Neq is the negation of Eq.
func Neq(column string, v any) Expression {
	if v == nil {
		return BinaryExpression{Op: "IS NOT", Left: Ident(column), Right: Raw("NULL")}
	}
	return BinaryExpression{Op: "<>", Left: Ident(column), Right: operand(v)}
}

func Gt(column string, v any) Expression {
	return BinaryExpression{Op: ">", Left: Ident(column), Right: operand(v)}
}

func Gte(column string, v any) Expression {
	return BinaryExpression{Op: ">=", Left: Ident(column), Right: operand(v)}
}

func Lt(column string, v any) Expression {
	return BinaryExpression{Op: "<", Left: Ident(column), Right: operand(v)}
}

func Lte(column string, v any) Expression {
	return BinaryExpression{Op: "<=", Left: Ident(column), Right: operand(v)}
}

// And requires every term.
func And(terms ...Expression) Expression {
	return BooleanExpression{Op: "AND", Terms: terms}
}

// Or requires any term.
func Or(terms ...Expression) Expression {
	return BooleanExpression{Op: "OR", Terms: terms}
}

func operand(v any) Expression {
	if e, ok := v.(Expression); ok {
		return e
	}
	return Lit(v)
}

// ResultColumnName returns the name the engine gives e in a result set, when
// it can be known without running the query: the alias of an aliased
// expression, or the column of an (optionally qualified) identifier.
func ResultColumnName(e Expression) (string, bool) {
	switch x := e.(type) {
	case AliasedExpression:
		return x.Alias, true
	case Identifier:
		return x.Name, true
	case QualifiedIdentifier:
		return x.Column, true
	default:
		return "", false
	}
}

func (e Identifier) appendSQL(b *sqlBuilder) error {
	if e.Name == "" {
		return fmt.Errorf("empty identifier")
	}
	b.WriteString(b.dialect.QuoteIdentifier(e.Name))
	return nil
}

func (e QualifiedIdentifier) appendSQL(b *sqlBuilder) error {
	if e.Table == "" || e.Column == "" {
		return fmt.Errorf("qualified identifier needs table and column")
	}
	b.WriteString(b.quoteTable(e.Table))
	b.WriteByte('.')
	b.WriteString(b.dialect.QuoteIdentifier(e.Column))
	return nil
}

func (e AliasedExpression) appendSQL(b *sqlBuilder) error {
	if e.Expr == nil {
		return fmt.Errorf("alias %q has no expression", e.Alias)
	}
	if e.Alias == "" {
		return fmt.Errorf("empty alias")
	}
	if err := e.Expr.appendSQL(b); err != nil {
		return err
	}
	b.WriteString(" AS ")
	b.WriteString(b.dialect.QuoteIdentifier(e.Alias))
	return nil
}

func (e Literal) appendSQL(b *sqlBuilder) error {
	b.bind(e.Value)
	return nil
}

func (e RawExpression) appendSQL(b *sqlBuilder) error {
	if want := strings.Count(e.SQL, "?"); want != len(e.Args) {
		return fmt.Errorf("raw SQL %q has %d placeholders but %d args", e.SQL, want, len(e.Args))
	}
	rest := e.SQL
	for _, arg := range e.Args {
		i := strings.IndexByte(rest, '?')
		b.WriteString(rest[:i])
		b.bind(arg)
		rest = rest[i+1:]
	}
	b.WriteString(rest)
	return nil
}

func (e Star) appendSQL(b *sqlBuilder) error {
	if e.Table != "" {
		b.WriteString(b.quoteTable(e.Table))
		b.WriteByte('.')
	}
	b.WriteByte('*')
	return nil
}

func (e BinaryExpression) appendSQL(b *sqlBuilder) error {
	if e.Left == nil || e.Right == nil {
		return fmt.Errorf("operator %s needs two operands", e.Op)
	}
	b.WriteByte('(')
	if err := e.Left.appendSQL(b); err != nil {
		return err
	}
	b.WriteByte(' ')
	b.WriteString(e.Op)
	b.WriteByte(' ')
	if err := e.Right.appendSQL(b); err != nil {
		return err
	}
	b.WriteByte(')')
	return nil
}

func (e BooleanExpression) appendSQL(b *sqlBuilder) error {
	switch len(e.Terms) {
	case 0:
		return fmt.Errorf("%s with no terms", e.Op)
	case 1:
		return e.Terms[0].appendSQL(b)
	}
	b.WriteByte('(')
	for i, t := range e.Terms {
		if i > 0 {
			b.WriteByte(' ')
			b.WriteString(e.Op)
			b.WriteByte(' ')
		}
		if err := t.appendSQL(b); err != nil {
			return err
		}
	}
	b.WriteByte(')')
	return nil
}

func (e OrderedExpression) appendSQL(b *sqlBuilder) error {
	if err := e.Expr.appendSQL(b); err != nil {
		return err
	}
	if e.Descending {
		b.WriteString(" DESC")
	} else {
		b.WriteString(" ASC")
	}
	return nil
}
