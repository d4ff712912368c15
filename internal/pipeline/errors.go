// Package pipeline contains the creation-time operations and guard
// clauses of the pipeline state machines.
package pipeline

import (
	"errors"
	"fmt"
)

// ValidationError marks malformed or missing required input. It is
// rejected before any state transition: no record is created.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

// Validationf builds a ValidationError.
func Validationf(format string, args ...any) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// PreconditionError marks a dependency that is not in its required
// state at creation time, e.g. a dataset version that is not READY.
type PreconditionError struct {
	msg string
}

func (e *PreconditionError) Error() string { return e.msg }

// Preconditionf builds a PreconditionError.
func Preconditionf(format string, args ...any) error {
	return &PreconditionError{msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsPrecondition reports whether err is a PreconditionError.
func IsPrecondition(err error) bool {
	var p *PreconditionError
	return errors.As(err, &p)
}
