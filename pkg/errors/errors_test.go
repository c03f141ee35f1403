package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "validation", err: NewValidationError("email", "must be a valid email"), expected: http.StatusBadRequest},
		{name: "not found", err: NewNotFoundError("user", ""), expected: http.StatusNotFound},
		{name: "already exists", err: NewAlreadyExistsError("user", "email already exists"), expected: http.StatusConflict},
		{name: "internal", err: NewInternalError("failed to list users", stderrors.New("boom")), expected: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("handler: %w", tt.err)

			var statuser HTTPStatuser
			require.True(t, stderrors.As(wrapped, &statuser))
			assert.Equal(t, tt.expected, statuser.HTTPStatus())
		})
	}
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "validation failed: email - must be a valid email", NewValidationError("email", "must be a valid email").Error())
	assert.Equal(t, "validation failed: invalid argument", NewValidationError("", "invalid argument").Error())
	assert.Equal(t, "user not found", NewNotFoundError("user", "").Error())
	assert.Equal(t, "User with id '7' not found", NewNotFoundError("user", "User with id '7' not found").Error())
	assert.Equal(t, "failed: boom", NewInternalError("failed", stderrors.New("boom")).Error())
}

func TestInternalError_Unwrap(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := NewInternalError("failed to get user", cause)
	assert.ErrorIs(t, err, cause)
}
