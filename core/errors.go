package core

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidArgument marks local precondition failures (zero activity count, unknown column...).
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrResourceExhausted is informational: fewer students were available than requested.
	ErrResourceExhausted = errors.New("resource exhausted")
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

func (err ValidationError) Unwrap() error { return err.Err }

// ArgumentError is an ErrInvalidArgument carrying a message.
type ArgumentError struct {
	msg string
}

func NewArgumentError(msg string) error {
	return &ArgumentError{msg}
}

func (err *ArgumentError) Error() string {
	return ErrInvalidArgument.Error() + ": " + err.msg
}

func (err *ArgumentError) Is(target error) bool { return target == ErrInvalidArgument }

// SinkError wraps a TableSink failure with the unit being emitted.
// The sink error itself is left untouched: errors.Is/As reach it through Unwrap.
type SinkError struct {
	Course    string
	Archetype string
	Err       error
}

func (err *SinkError) Error() string {
	return fmt.Sprintf("emitting %s/%s: %v", err.Course, err.Archetype, err.Err)
}

func (err *SinkError) Unwrap() error { return err.Err }

func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}
