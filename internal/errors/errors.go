// Package errors provides structured error types for the starlog service.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict with current state")
	ErrTimeout      = errors.New("operation timed out")
	ErrRateLimit    = errors.New("rate limit exceeded")
	ErrUnavailable  = errors.New("service unavailable")
)

// InvalidStateError reports a session lifecycle operation attempted from a
// disallowed status. These are caller bugs and are never retried.
type InvalidStateError struct {
	Operation string
	Current   string
	Required  string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s requires status %s, session is %s", e.Operation, e.Required, e.Current)
}

func (e *InvalidStateError) Is(target error) bool { return target == ErrConflict }

// NewInvalidState creates an InvalidStateError.
func NewInvalidState(operation, current, required string) *InvalidStateError {
	return &InvalidStateError{Operation: operation, Current: current, Required: required}
}

// ValidationError reports malformed input rejected at construction time,
// before any state mutation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// NewValidation creates a ValidationError.
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// CollaboratorError represents a failure from an external collaborator
// (narrative generation, notification delivery). Callers at the orchestration
// boundary substitute fallback content instead of propagating these.
type CollaboratorError struct {
	Collaborator string
	StatusCode   int
	Message      string
	Err          error
}

func (e *CollaboratorError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s collaborator error (status %d): %s: %v", e.Collaborator, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("%s collaborator error (status %d): %s", e.Collaborator, e.StatusCode, e.Message)
}

func (e *CollaboratorError) Unwrap() error { return e.Err }

// NewCollaboratorError creates a new collaborator error.
func NewCollaboratorError(collaborator string, statusCode int, message string) *CollaboratorError {
	return &CollaboratorError{Collaborator: collaborator, StatusCode: statusCode, Message: message}
}

// IsRetryable returns true if the error is likely transient and worth retrying.
func IsRetryable(err error) bool {
	var collabErr *CollaboratorError
	if errors.As(err, &collabErr) {
		switch collabErr.StatusCode {
		case 429, 500, 502, 503, 504:
			return true
		}
	}
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrRateLimit) || errors.Is(err, ErrUnavailable)
}
