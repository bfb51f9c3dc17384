package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors used across all layers.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrValidation    = errors.New("validation error")
	ErrConflict      = errors.New("conflict")
	ErrTransient     = errors.New("transient error")
)

// FieldError describes a validation error for a specific field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError contains a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation: %s — %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	return fmt.Sprintf("validation: %d errors", len(e.Errors))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Errors: []FieldError{{Field: field, Message: message}},
	}
}

// NewValidationErrors creates a ValidationError from multiple field errors.
func NewValidationErrors(errs []FieldError) *ValidationError {
	return &ValidationError{Errors: errs}
}

// Execution error codes recorded on failed messages.
const (
	ErrCodeMissingData = "MISSING_ACTION_DATA"
	ErrCodeNotFound    = "SUBJECT_NOT_FOUND"
	ErrCodeTransient   = "TRANSIENT"
	ErrCodeInternal    = "INTERNAL"
)

// ExecutionError is an action-execution failure carrying the code and
// retryability the job substrate needs for its retry policy.
type ExecutionError struct {
	Code      string
	Message   string
	Retryable bool
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execute: %s: %s", e.Code, e.Message)
}

func (e *ExecutionError) Unwrap() error {
	switch e.Code {
	case ErrCodeMissingData:
		return ErrValidation
	case ErrCodeNotFound:
		return ErrNotFound
	default:
		return ErrTransient
	}
}

// NewExecutionError creates an ExecutionError.
func NewExecutionError(code, message string, retryable bool) *ExecutionError {
	return &ExecutionError{Code: code, Message: message, Retryable: retryable}
}

// ClassifyExecutionError normalizes any error raised during action
// execution into an ExecutionError. Validation and not-found errors are
// non-retryable (retrying cannot supply the missing data); everything
// else is retryable by default.
func ClassifyExecutionError(err error) *ExecutionError {
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return execErr
	}
	switch {
	case errors.Is(err, ErrValidation):
		return NewExecutionError(ErrCodeMissingData, err.Error(), false)
	case errors.Is(err, ErrNotFound):
		return NewExecutionError(ErrCodeNotFound, err.Error(), false)
	default:
		return NewExecutionError(ErrCodeTransient, err.Error(), true)
	}
}
