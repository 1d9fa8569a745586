package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestNewDatabaseError(t *testing.T) {
	tests := []struct {
		name   string
		cause  error
		status int
		check  func(error) bool
	}{
		{"record not found", fmt.Errorf("lookup: %w", gorm.ErrRecordNotFound), http.StatusNotFound, IsNotFound},
		{"postgres duplicate", errors.New(`ERROR: duplicate key value violates unique constraint "idx_user_username"`), http.StatusConflict, IsAlreadyExists},
		{"sqlite duplicate", errors.New("UNIQUE constraint failed: users.username"), http.StatusConflict, IsAlreadyExists},
		{"foreign key", errors.New("FOREIGN KEY constraint failed"), http.StatusBadRequest, func(err error) bool { return errors.Is(err, ErrBadRequest) }},
		{"connection", errors.New("dial tcp: connection refused"), http.StatusServiceUnavailable, func(err error) bool { return errors.Is(err, ErrDatabaseConnection) }},
		{"generic", errors.New("syntax error"), http.StatusInternalServerError, func(err error) bool { return errors.Is(err, ErrDatabaseQuery) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewDatabaseError("find", "post", tt.cause)
			assert.Equal(t, tt.status, err.StatusCode)
			assert.Same(t, tt.cause, err.Cause)
			assert.True(t, tt.check(err))
			assert.Equal(t, tt.status, StatusOf(err))
		})
	}
}

func TestNewDatabaseErrorKeepsApiErr(t *testing.T) {
	inner := NewNotFound("comment")
	assert.Same(t, inner, NewDatabaseError("find", "comment", inner))
}

func TestGetFullError(t *testing.T) {
	err := NewInternalErrorWithCause("render page", errors.New("template: missing key"))
	assert.Equal(t, "render page: internal server error -> template: missing key", err.GetFullError())
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, StatusOf(errors.New("boom")))
	assert.Equal(t, http.StatusNotFound, StatusOf(fmt.Errorf("wrapped: %w", NewNotFoundError("post"))))
	assert.Equal(t, http.StatusForbidden, StatusOf(NewCSRFError(errors.New("token missing"))))
	assert.True(t, IsCSRF(NewCSRFError(nil)))
}

func TestFieldErrors(t *testing.T) {
	err := NewInvalidFieldError("slug", "must be alphanumeric")
	assert.True(t, IsInvalidFieldError(err))
	assert.Equal(t, "slug", err.Field)
	assert.Equal(t, "invalid field: Invalid field slug: must be alphanumeric", err.Error())

	assert.True(t, IsMissingRequiredFieldError(NewMissingRequiredFieldError("title")))
	assert.True(t, IsInvalidCredentialsError(NewInvalidCredentialsError()))
}

func TestRequestErrors(t *testing.T) {
	tooLarge := NewMaxBodySizeExceededError(1024)
	assert.Equal(t, http.StatusRequestEntityTooLarge, StatusOf(tooLarge))
	assert.ErrorIs(t, tooLarge, ErrMaxBodySizeExceeded)
	assert.Contains(t, tooLarge.Error(), "1024 bytes")

	notAllowed := NewApiErr(http.StatusMethodNotAllowed, "method not allowed")
	assert.Equal(t, http.StatusMethodNotAllowed, StatusOf(notAllowed))
	assert.Equal(t, "method not allowed", notAllowed.Error())
}
