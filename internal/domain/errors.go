// Package domain defines the engine-neutral types and errors shared by the
// dataset framework and the DuckDB adapter.
package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a database failure. Kinds implement error so callers
// can match them with errors.Is:
//
//	if errors.Is(err, domain.KindNotNullConstraint) { ... }
type ErrorKind int

const (
	// KindDatabase is the catch-all for failures no rule recognised.
	KindDatabase ErrorKind = iota
	KindUniqueConstraint
	KindCheckConstraint
	KindNotNullConstraint
	KindForeignKeyConstraint
)

func (k ErrorKind) String() string {
	switch k {
	case KindUniqueConstraint:
		return "unique constraint violation"
	case KindCheckConstraint:
		return "check constraint violation"
	case KindNotNullConstraint:
		return "not null constraint violation"
	case KindForeignKeyConstraint:
		return "foreign key constraint violation"
	default:
		return "database error"
	}
}

func (k ErrorKind) Error() string { return k.String() }

// DatabaseError wraps a failure reported by the engine. Message keeps the
// native error text verbatim; classification only ever reads it.
type DatabaseError struct {
	Kind    ErrorKind
	Message string
	SQL     string
	Err     error
}

func (e *DatabaseError) Error() string {
	if e.Kind == KindDatabase {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *DatabaseError) Unwrap() error { return e.Err }

// Is reports whether target is the ErrorKind of e.
func (e *DatabaseError) Is(target error) bool {
	k, ok := target.(ErrorKind)
	return ok && k == e.Kind
}

// NewDatabaseError wraps a native engine error raised while running sql.
// The result is unclassified (KindDatabase).
func NewDatabaseError(err error, sql string) *DatabaseError {
	return &DatabaseError{Kind: KindDatabase, Message: err.Error(), SQL: sql, Err: err}
}

// KindOf returns the kind carried by err, or KindDatabase when err holds no
// *DatabaseError.
func KindOf(err error) ErrorKind {
	var dbErr *DatabaseError
	if errors.As(err, &dbErr) {
		return dbErr.Kind
	}
	return KindDatabase
}

// NotImplementedError indicates an operation the adapter deliberately does not support.
type NotImplementedError struct {
	Message string
}

func (e *NotImplementedError) Error() string { return e.Message }

// ValidationError indicates invalid input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ErrNotImplemented creates a NotImplementedError with a formatted message.
func ErrNotImplemented(format string, args ...interface{}) *NotImplementedError {
	return &NotImplementedError{Message: fmt.Sprintf(format, args...)}
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}
