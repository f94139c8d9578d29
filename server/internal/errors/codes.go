// Package errors provides typed errors for the note graph engine.
// Callers use the code to drive control flow; the HTTP layer maps
// codes to status codes.
package errors

import (
	"fmt"
)

// ErrorCode represents a specific error type for graph operations.
type ErrorCode string

const (
	// ErrCodeValidation indicates malformed input, e.g. an out-of-range limit.
	ErrCodeValidation ErrorCode = "VALIDATION_ERROR"
	// ErrCodeNotFound indicates a missing note or edge, or that a subset of
	// explicitly requested note ids is absent.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeForbidden indicates the entity exists but belongs to a different owner.
	ErrCodeForbidden ErrorCode = "FORBIDDEN"
	// ErrCodeConflict indicates a unique-constraint collision on a single,
	// non-bulk create path.
	ErrCodeConflict ErrorCode = "CONFLICT"
	// ErrCodeInternal indicates an unexpected storage or runtime failure.
	ErrCodeInternal ErrorCode = "INTERNAL"
)

// GraphError represents a structured error for graph operations.
type GraphError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *GraphError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *GraphError) Unwrap() error {
	return e.Cause
}

// GetCode returns the error code.
func (e *GraphError) GetCode() ErrorCode {
	return e.Code
}

// Validation creates a validation error.
func Validation(format string, args ...any) *GraphError {
	return &GraphError{Code: ErrCodeValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFound creates a not found error.
func NotFound(format string, args ...any) *GraphError {
	return &GraphError{Code: ErrCodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Forbidden creates a forbidden error.
func Forbidden(format string, args ...any) *GraphError {
	return &GraphError{Code: ErrCodeForbidden, Message: fmt.Sprintf(format, args...)}
}

// Conflict creates a conflict error.
func Conflict(format string, args ...any) *GraphError {
	return &GraphError{Code: ErrCodeConflict, Message: fmt.Sprintf(format, args...)}
}

// Internal wraps an unexpected failure.
func Internal(cause error, msg string) *GraphError {
	return &GraphError{Code: ErrCodeInternal, Message: msg, Cause: cause}
}

// Wrap wraps an existing error with a code.
func Wrap(cause error, code ErrorCode, msg string) *GraphError {
	return &GraphError{Code: code, Message: msg, Cause: cause}
}

// IsCode checks if an error is of a specific code.
func IsCode(err error, code ErrorCode) bool {
	if gErr, ok := err.(*GraphError); ok {
		return gErr.Code == code
	}
	return false
}

// GetCodeFromError extracts the error code from any error.
// Returns the provided default code if the error is not a GraphError.
func GetCodeFromError(err error, defaultCode ErrorCode) ErrorCode {
	if gErr, ok := err.(*GraphError); ok {
		return gErr.Code
	}
	return defaultCode
}
