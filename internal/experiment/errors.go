package experiment

import (
	"errors"
	"fmt"
)

// Sentinel errors. Match with errors.Is.
var (
	// ErrPrecondition is returned when a measurement is requested before a
	// material has been selected.
	ErrPrecondition = errors.New("precondition failed")

	// ErrInvalidParameter is returned when a parameter is out of range.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrBusy is returned when a measurement is triggered while another one
	// is still running.
	ErrBusy = errors.New("measurement already in progress")
)

// PreconditionError reports an operation that cannot start in the current
// session state. No sampling has happened when it is returned.
type PreconditionError struct {
	Op     string
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

// Unwrap returns ErrPrecondition.
func (e *PreconditionError) Unwrap() error { return ErrPrecondition }

// ParameterError reports one rejected parameter value.
type ParameterError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

// Unwrap returns ErrInvalidParameter.
func (e *ParameterError) Unwrap() error { return ErrInvalidParameter }

// InvalidParameterError is the error kind for rejected parameters.
type InvalidParameterError = ParameterError

func noMaterial(op string) error {
	return &PreconditionError{Op: op, Reason: "no material selected"}
}
