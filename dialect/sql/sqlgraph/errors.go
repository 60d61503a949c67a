package sqlgraph

import (
	"errors"
	"strings"
)

// errorCoder matches driver errors that expose their SQLSTATE through a
// Code() method.
type errorCoder interface {
	Code() string
}

// sqlStateError is implemented by drivers that expose a SQLSTATE
// directly, independent of their own error type.
type sqlStateError interface {
	SQLState() string
}

// PostgreSQL SQLSTATE codes for constraint violations (Class 23).
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgNotNullViolation    = "23502"
)

// IsConstraintError reports whether err resulted from a database
// constraint violation, classified independently of which of the two
// wired drivers (lib/pq or pgx/v5/stdlib) produced it.
func IsConstraintError(err error) bool {
	return IsUniqueConstraintError(err) ||
		IsForeignKeyConstraintError(err) ||
		IsCheckConstraintError(err) ||
		IsNotNullConstraintError(err)
}

// IsUniqueConstraintError reports whether err is a uniqueness violation.
func IsUniqueConstraintError(err error) bool {
	return matchesSQLState(err, pgUniqueViolation) ||
		containsAny(errString(err), "violates unique constraint")
}

// IsForeignKeyConstraintError reports whether err is a foreign-key
// violation (e.g. the referenced parent row does not exist).
func IsForeignKeyConstraintError(err error) bool {
	return matchesSQLState(err, pgForeignKeyViolation) ||
		containsAny(errString(err), "violates foreign key constraint")
}

// IsCheckConstraintError reports whether err is a CHECK violation.
func IsCheckConstraintError(err error) bool {
	return matchesSQLState(err, pgCheckViolation) ||
		containsAny(errString(err), "violates check constraint")
}

// IsNotNullConstraintError reports whether err is a NOT NULL violation.
func IsNotNullConstraintError(err error) bool {
	return matchesSQLState(err, pgNotNullViolation) ||
		containsAny(errString(err), "violates not-null constraint")
}

func matchesSQLState(err error, code string) bool {
	if err == nil {
		return false
	}
	if e, ok := asError[sqlStateError](err); ok && e.SQLState() == code {
		return true
	}
	if e, ok := asError[errorCoder](err); ok && e.Code() == code {
		return true
	}
	return false
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// asError attempts to extract an error implementing interface T from the
// error chain.
func asError[T any](err error) (T, bool) {
	var target T
	for err != nil {
		if e, ok := err.(T); ok {
			return e, true
		}
		err = errors.Unwrap(err)
	}
	return target, false
}

// containsAny returns true if s contains any of the substrings.
func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
