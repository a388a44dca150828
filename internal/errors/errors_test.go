package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInvalidStateError_Error(t *testing.T) {
	err := NewInvalidState("pause", "PAUSED", "ACTIVE")
	assert.Contains(t, err.Error(), "pause")
	assert.Contains(t, err.Error(), "ACTIVE")
	assert.Contains(t, err.Error(), "PAUSED")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestValidationError_Error(t *testing.T) {
	err := NewValidation("pledge", "must not be blank")
	assert.Contains(t, err.Error(), "pledge")
	assert.Contains(t, err.Error(), "must not be blank")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCollaboratorError_WithWrapped(t *testing.T) {
	inner := errors.New("connection refused")
	err := &CollaboratorError{Collaborator: "narrative", StatusCode: 500, Message: "fail", Err: inner}
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "narrative")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(NewCollaboratorError("narrative", 429, "rate limit")))
	assert.True(t, IsRetryable(NewCollaboratorError("narrative", 502, "bad gateway")))
	assert.True(t, IsRetryable(NewCollaboratorError("narrative", 503, "unavailable")))
	assert.True(t, IsRetryable(ErrTimeout))
	assert.True(t, IsRetryable(ErrRateLimit))
	assert.True(t, IsRetryable(ErrUnavailable))

	assert.False(t, IsRetryable(NewCollaboratorError("narrative", 400, "bad request")))
	assert.False(t, IsRetryable(NewCollaboratorError("narrative", 404, "not found")))
	assert.False(t, IsRetryable(ErrNotFound))
	assert.False(t, IsRetryable(NewInvalidState("resume", "ACTIVE", "PAUSED")))
}

func TestSentinelErrors(t *testing.T) {
	assert.True(t, errors.Is(ErrNotFound, ErrNotFound))
	assert.False(t, errors.Is(ErrNotFound, ErrConflict))
}
