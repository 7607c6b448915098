// Package domainerror defines the typed errors shared by the claim and payment components.
package domainerror

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyBatch is returned when a payment file would contain no payments.
	ErrEmptyBatch = errors.New("no pending payments to include in batch file")

	// ErrSequenceExhausted is returned when a day-scoped sequence overflows its field width.
	ErrSequenceExhausted = errors.New("daily sequence exhausted")

	// ErrConflict is returned when a conditional state transition lost a race.
	ErrConflict = errors.New("state changed concurrently")
)

// NotFoundError reports a missing (or soft-deleted) entity.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

// StatusError reports an entity that is not in the status an operation requires.
type StatusError struct {
	Entity   string
	ID       string
	Actual   string
	Expected string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s not in %s status (status: %s)", e.Entity, e.ID, e.Expected, e.Actual)
}

// ValidationError represents an input that failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ConflictError wraps ErrConflict with the entity that could not be transitioned.
type ConflictError struct {
	Entity string
	ID     string
	Want   string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %s is no longer %s", e.Entity, e.ID, e.Want)
}

func (e *ConflictError) Unwrap() error {
	return ErrConflict
}

// IsNotFound reports whether err (or anything it wraps) is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
