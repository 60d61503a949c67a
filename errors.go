// Package reliq implements a relational query-expression engine: relation
// instances reflected from a live catalog, constrained per-field, joined
// through foreign keys, combined under set algebra, and lowered to a single
// parameterized SQL statement by dialect/sql/sqlgraph.
package reliq

import (
	"errors"
	"fmt"
)

// Sentinel errors for conditions that carry no useful per-call payload.
var (
	// ErrMissingWhere is returned when update() or delete() is attempted
	// with no field/join constraint and without the all=true escape hatch.
	ErrMissingWhere = errors.New("reliq: update/delete refused: no where constraint (pass WithAll(true) to override)")

	// ErrMissingConfig is returned when a required connection key is absent
	// from the environment and from the key=value file.
	ErrMissingConfig = errors.New("reliq: missing required configuration key")

	// ErrMalformedConfig is returned when a key=value configuration file
	// cannot be parsed.
	ErrMalformedConfig = errors.New("reliq: malformed configuration file")

	// ErrTxStarted is returned by Tx.Begin when the nested-transaction
	// counter cannot be incremented (e.g. the underlying connection is
	// already closed).
	ErrTxStarted = errors.New("reliq: transaction already started")
)

// UnknownAttributeError is returned when a field-name kwarg passed to Set,
// Insert, or Update does not exist on the relation's class.
type UnknownAttributeError struct {
	FQRN string
	Name string
}

func (e *UnknownAttributeError) Error() string {
	return fmt.Sprintf("reliq: %s has no attribute %q", e.FQRN, e.Name)
}

// NewUnknownAttributeError returns a new UnknownAttributeError.
func NewUnknownAttributeError(fqrn, name string) *UnknownAttributeError {
	return &UnknownAttributeError{FQRN: fqrn, Name: name}
}

// IsUnknownAttribute reports whether err is an UnknownAttributeError.
func IsUnknownAttribute(err error) bool {
	var e *UnknownAttributeError
	return errors.As(err, &e)
}

// UnknownRelationError is returned when an FQRN is not present in the
// catalog at the time a relation instance is requested.
type UnknownRelationError struct {
	FQRN string
}

func (e *UnknownRelationError) Error() string {
	return fmt.Sprintf("reliq: unknown relation %s", e.FQRN)
}

// NewUnknownRelationError returns a new UnknownRelationError.
func NewUnknownRelationError(fqrn string) *UnknownRelationError {
	return &UnknownRelationError{FQRN: fqrn}
}

// IsUnknownRelation reports whether err is an UnknownRelationError.
func IsUnknownRelation(err error) bool {
	var e *UnknownRelationError
	return errors.As(err, &e)
}

// InvalidComparatorError is returned when a Field is set with a null value
// and a comparator other than Is/IsNot, or with a comparator token the
// engine does not recognize.
type InvalidComparatorError struct {
	Field string
	Comp  Comparator
	Value any
}

func (e *InvalidComparatorError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("reliq: field %q: comparator %q is not valid for a null value (use is/is not)", e.Field, e.Comp)
	}
	return fmt.Sprintf("reliq: field %q: %q is not a recognized comparator", e.Field, e.Comp)
}

// NewInvalidComparatorError returns a new InvalidComparatorError.
func NewInvalidComparatorError(field string, comp Comparator, value any) *InvalidComparatorError {
	return &InvalidComparatorError{Field: field, Comp: comp, Value: value}
}

// IsInvalidComparator reports whether err is an InvalidComparatorError.
func IsInvalidComparator(err error) bool {
	var e *InvalidComparatorError
	return errors.As(err, &e)
}

// NotSingularError is returned by GetOne when the result set's cardinality
// is not exactly one.
type NotSingularError struct {
	FQRN  string
	Count int
}

func (e *NotSingularError) Error() string {
	return fmt.Sprintf("reliq: %s: expected exactly one row, got %d", e.FQRN, e.Count)
}

// NewNotSingularError returns a new NotSingularError.
func NewNotSingularError(fqrn string, count int) *NotSingularError {
	return &NotSingularError{FQRN: fqrn, Count: count}
}

// IsNotSingular reports whether err is a NotSingularError.
func IsNotSingular(err error) bool {
	var e *NotSingularError
	return errors.As(err, &e)
}

// ExpectedOneElementError describes a group-by directive that conflicts
// with the shape of the rows it is asked to fold (e.g. a leaf directive
// applied to a column that does not actually group down to one value).
// groupby.Group does not return it: a single-object directive that sees
// differing values across rows keeps the value from the last row.
type ExpectedOneElementError struct {
	Path string
	Got  int
}

func (e *ExpectedOneElementError) Error() string {
	return fmt.Sprintf("reliq: group_by %s: expected one element, got %d", e.Path, e.Got)
}

// NewExpectedOneElementError returns a new ExpectedOneElementError.
func NewExpectedOneElementError(path string, got int) *ExpectedOneElementError {
	return &ExpectedOneElementError{Path: path, Got: got}
}

// IsExpectedOneElement reports whether err is an ExpectedOneElementError.
func IsExpectedOneElement(err error) bool {
	var e *ExpectedOneElementError
	return errors.As(err, &e)
}

// DriverError wraps an error returned by the executor adapter. The
// compiled SQL and its bindings are attached so the diagnostic stream can
// print them before the error propagates: driver errors are surfaced
// verbatim, but only after the failing statement has been logged.
type DriverError struct {
	SQL        string
	Args       []any
	Err        error
	Constraint bool // true if the driver classified this as a constraint violation
}

func (e *DriverError) Error() string {
	return fmt.Sprintf("reliq: driver error: %v (sql: %s)", e.Err, e.SQL)
}

func (e *DriverError) Unwrap() error {
	return e.Err
}

// NewDriverError returns a new DriverError.
func NewDriverError(sql string, args []any, err error, constraint bool) *DriverError {
	return &DriverError{SQL: sql, Args: args, Err: err, Constraint: constraint}
}

// IsDriverError reports whether err is a DriverError.
func IsDriverError(err error) bool {
	var e *DriverError
	return errors.As(err, &e)
}

// IsConstraintError reports whether err is a DriverError classified as a
// constraint violation (unique/foreign-key/check/not-null).
func IsConstraintError(err error) bool {
	var e *DriverError
	return errors.As(err, &e) && e.Constraint
}
