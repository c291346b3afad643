// Package apperror provides structured error handling for the domain.
// Business errors use AppError so callers can branch on machine-readable
// codes instead of matching message strings.
package apperror

import (
	"errors"
	"fmt"
)

// Error codes.
const (
	// Infrastructure errors
	CodeInternal = "INTERNAL_ERROR"
	CodeStorage  = "STORAGE_ERROR"

	// Validation errors
	CodeValidation = "VALIDATION_ERROR"

	// Business rule violations
	CodeBusinessRule = "BUSINESS_RULE_VIOLATION"

	// Not found
	CodeNotFound = "NOT_FOUND"

	// Conflict
	CodeConflict = "CONFLICT"
)

// AppError is the standard error type for the application.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (field names, quantities, etc.)
	Details map[string]any `json:"details,omitempty"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error.
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions ---

// NewValidation creates a validation error.
func NewValidation(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

// NewNotFound creates a not found error.
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found", entity),
		Details: map[string]any{"entity": entity, "id": id},
	}
}

// NewBusinessRule creates a business rule violation error.
func NewBusinessRule(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// NewConflict creates a conflict error.
func NewConflict(message string) *AppError {
	return &AppError{
		Code:    CodeConflict,
		Message: message,
	}
}

// NewStorage creates a storage error wrapping the driver failure.
func NewStorage(err error) *AppError {
	return &AppError{
		Code:    CodeStorage,
		Message: "storage operation failed",
		Err:     err,
	}
}

// NewInternal creates an internal error.
func NewInternal(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "internal error",
		Err:     err,
	}
}

// --- Helper functions ---

// IsAppError checks if err is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError extracts an AppError from the error chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsNotFound checks if err carries CodeNotFound.
func IsNotFound(err error) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == CodeNotFound
	}
	return false
}
