package adapter

import (
	"errors"
	"regexp"

	"github.com/duckdb/duckdb-go/v2"

	"duck-adapter/internal/domain"
)

type errorRule struct {
	re   *regexp.Regexp
	kind domain.ErrorKind
}

// errorRules match DuckDB's human-readable error text; the first match wins.
// The driver reports only a coarse error type (every violation is a
// constraint error), so which constraint failed is only in the message.
// A change in the engine's wording silently falls through to KindDatabase.
var errorRules = []errorRule{
	{regexp.MustCompile(`Duplicate key.*violates.*constraint`), domain.KindUniqueConstraint},
	{regexp.MustCompile(`CHECK constraint failed`), domain.KindCheckConstraint},
	{regexp.MustCompile(`NOT NULL constraint failed`), domain.KindNotNullConstraint},
	{regexp.MustCompile(`Violates foreign key constraint`), domain.KindForeignKeyConstraint},
}

// Classify returns the error kind for a native error message.
func Classify(message string) domain.ErrorKind {
	for _, r := range errorRules {
		if r.re.MatchString(message) {
			return r.kind
		}
	}
	return domain.KindDatabase
}

// nativeMessage returns the engine's own text for err.
func nativeMessage(err error) string {
	var duckErr *duckdb.Error
	if errors.As(err, &duckErr) {
		return duckErr.Msg
	}
	var dbErr *domain.DatabaseError
	if errors.As(err, &dbErr) {
		return dbErr.Message
	}
	return err.Error()
}

// TranslateError reclassifies an engine failure into a typed
// *domain.DatabaseError. Errors that did not come from the engine, and
// errors already classified, are returned unchanged.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}
	var dbErr *domain.DatabaseError
	isEngine := errors.As(err, &dbErr)
	var duckErr *duckdb.Error
	if !isEngine && !errors.As(err, &duckErr) {
		return err
	}
	if isEngine && dbErr.Kind != domain.KindDatabase {
		return err
	}

	msg := nativeMessage(err)
	kind := Classify(msg)
	if isEngine {
		return &domain.DatabaseError{Kind: kind, Message: dbErr.Message, SQL: dbErr.SQL, Err: dbErr.Err}
	}
	return &domain.DatabaseError{Kind: kind, Message: msg, Err: err}
}
