// Package failure classifies the errors that terminate an ingest run.
package failure

import (
	"errors"
	"fmt"
)

// Kind identifies one class of run-terminating failure.
type Kind int

const (
	// Unknown is returned by KindOf for errors that carry no classification.
	Unknown Kind = iota
	// SchemaMismatch means the input file lacks required columns or holds
	// values that cannot be coerced to their column type.
	SchemaMismatch
	// ConstraintViolation means the store rejected a row on a unique,
	// primary-key, not-null or foreign-key constraint.
	ConstraintViolation
	// IOFailure means the input or the store could not be reached.
	IOFailure
)

// String returns the kind name used in logs.
func (k Kind) String() string {
	switch k {
	case SchemaMismatch:
		return "schema_mismatch"
	case ConstraintViolation:
		return "constraint_violation"
	case IOFailure:
		return "io_failure"
	default:
		return "unknown"
	}
}

// Error wraps an underlying error with its Kind.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New classifies err as kind. A nil err yields nil.
func New(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// Newf builds a classified error from a format string.
func Newf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of the outermost classified error in err's chain.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return Unknown
}

// Is reports whether err (or any error it wraps) is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
