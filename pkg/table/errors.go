package table

import (
	"errors"
	"fmt"
)

// ErrorClass represents the classification of an error for retry and recovery logic.
type ErrorClass string

const (
	// ErrorClassTransient indicates a temporary failure that may succeed on retry.
	ErrorClassTransient ErrorClass = "transient"

	// ErrorClassConflict indicates a resource state conflict.
	// Example: admitting a philosopher to a full table.
	ErrorClassConflict ErrorClass = "conflict"

	// ErrorClassPermanent indicates a non-recoverable error.
	// Examples: invalid requested state, unknown philosopher id.
	ErrorClassPermanent ErrorClass = "permanent"
)

// TableError represents a classified error with context.
// nolint:revive // TableError is intentionally named to distinguish from standard errors
type TableError struct {
	// Class is the error classification for retry logic.
	Class ErrorClass `json:"class"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// Code is an optional error code for programmatic handling.
	Code string `json:"code,omitempty"`

	// PhilosopherID is the philosopher that caused the error, if applicable.
	PhilosopherID int `json:"philosopher_id,omitempty"`

	// Operation is the operation being performed when the error occurred.
	Operation string `json:"operation,omitempty"`

	// Err is the underlying error that caused this error.
	Err error `json:"-"`

	// Details contains additional context-specific information.
	Details map[string]interface{} `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *TableError) Error() string {
	if e.PhilosopherID != 0 && e.Operation != "" {
		return fmt.Sprintf("[%s] %s (philosopher=%d, operation=%s): %s",
			e.Class, e.Message, e.PhilosopherID, e.Operation, e.unwrapMessage())
	}
	if e.PhilosopherID != 0 {
		return fmt.Sprintf("[%s] %s (philosopher=%d): %s",
			e.Class, e.Message, e.PhilosopherID, e.unwrapMessage())
	}
	return fmt.Sprintf("[%s] %s: %s", e.Class, e.Message, e.unwrapMessage())
}

// Unwrap returns the underlying error for error chain inspection.
func (e *TableError) Unwrap() error {
	return e.Err
}

// unwrapMessage returns the error message from the underlying error chain.
func (e *TableError) unwrapMessage() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return ""
}

// Is implements error equality checking for errors.Is.
func (e *TableError) Is(target error) bool {
	t, ok := target.(*TableError)
	if !ok {
		return false
	}
	return e.Class == t.Class && e.Code == t.Code
}

// NewTransientError creates a new transient error.
func NewTransientError(message string, err error) *TableError {
	return &TableError{
		Class:   ErrorClassTransient,
		Message: message,
		Err:     err,
	}
}

// NewConflictError creates a new conflict error.
func NewConflictError(message string, err error) *TableError {
	return &TableError{
		Class:   ErrorClassConflict,
		Message: message,
		Err:     err,
	}
}

// NewPermanentError creates a new permanent error.
func NewPermanentError(message string, err error) *TableError {
	return &TableError{
		Class:   ErrorClassPermanent,
		Message: message,
		Err:     err,
	}
}

// WithPhilosopher adds philosopher context to an error.
func (e *TableError) WithPhilosopher(id int) *TableError {
	e.PhilosopherID = id
	return e
}

// WithOperation adds operation context to an error.
func (e *TableError) WithOperation(operation string) *TableError {
	e.Operation = operation
	return e
}

// WithCode adds an error code to an error.
func (e *TableError) WithCode(code string) *TableError {
	e.Code = code
	return e
}

// WithDetail adds a detail field to the error context.
func (e *TableError) WithDetail(key string, value interface{}) *TableError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsTransient returns true if the error is classified as transient.
func IsTransient(err error) bool {
	var e *TableError
	if errors.As(err, &e) {
		return e.Class == ErrorClassTransient
	}
	return false
}

// IsConflict returns true if the error is classified as a conflict.
func IsConflict(err error) bool {
	var e *TableError
	if errors.As(err, &e) {
		return e.Class == ErrorClassConflict
	}
	return false
}

// IsPermanent returns true if the error is classified as permanent.
func IsPermanent(err error) bool {
	var e *TableError
	if errors.As(err, &e) {
		return e.Class == ErrorClassPermanent
	}
	return false
}

// IsRetryable returns true if the error can be retried.
// Transient and conflict errors are retryable.
func IsRetryable(err error) bool {
	return IsTransient(err) || IsConflict(err)
}

// IsNotFound returns true if the error names an unknown philosopher.
func IsNotFound(err error) bool {
	var e *TableError
	if errors.As(err, &e) {
		return e.Code == ErrCodeNotFound
	}
	return false
}

// IsCapacityExhausted returns true if the error is a full-table rejection.
func IsCapacityExhausted(err error) bool {
	var e *TableError
	if errors.As(err, &e) {
		return e.Code == ErrCodeCapacityExhausted
	}
	return false
}

// ErrorCode extracts the code from a classified error, or INTERNAL_ERROR
// for anything else.
func ErrorCode(err error) string {
	var e *TableError
	if errors.As(err, &e) && e.Code != "" {
		return e.Code
	}
	return ErrCodeInternal
}

// Common error codes.
const (
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeCapacityExhausted = "CAPACITY_EXHAUSTED"
	ErrCodeInternal          = "INTERNAL_ERROR"
)
