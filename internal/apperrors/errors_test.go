package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, ErrorTypeDatabase, "DB_ERROR", "Database operation failed")

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestIsMatchesTypeAndCode(t *testing.T) {
	err := New(ErrorTypeNotFound, "NOT_FOUND", "run not found")

	assert.ErrorIs(t, err, New(ErrorTypeNotFound, "NOT_FOUND", "different message"))
	assert.NotErrorIs(t, err, New(ErrorTypeValidation, "NOT_FOUND", "run not found"))
}

func TestTypeOf(t *testing.T) {
	assert.Equal(t, ErrorTypeValidation, TypeOf(NewValidationError("value", "bad")))
	assert.Equal(t, ErrorTypeAuthorization, TypeOf(NewAuthorizationError("no")))
	assert.Equal(t, ErrorTypeNotFound, TypeOf(fmt.Errorf("wrapped: %w", NewNotFoundError("run", 9))))
	assert.Equal(t, ErrorTypeInternal, TypeOf(errors.New("plain")))
}

func TestWithContextFields(t *testing.T) {
	err := NewValidationError("mealContext", "unknown meal context")

	field, ok := err.Context["field"].(string)
	require.True(t, ok)
	assert.Equal(t, "mealContext", field)

	fields := err.LogFields()
	assert.Contains(t, fields, "error_type")
	assert.Contains(t, fields, "field")
}
