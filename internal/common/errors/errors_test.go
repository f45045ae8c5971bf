package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_ErrorString(t *testing.T) {
	err := New(ErrCodeNotFound, "user not found")
	assert.Equal(t, "[NOT_FOUND] user not found", err.Error())

	wrapped := Wrap(stderrors.New("connection refused"), ErrCodeDatabaseError, "query failed")
	assert.Equal(t, "[DATABASE_ERROR] query failed: connection refused", wrapped.Error())
}

func TestAppError_UnwrapKeepsCause(t *testing.T) {
	cause := stderrors.New("boom")
	err := NewDatabaseError("get user", cause)

	assert.True(t, stderrors.Is(err, cause))
	assert.Equal(t, "get user", err.Details["operation"])
}

func TestAsAppError_FindsWrappedError(t *testing.T) {
	appErr := NewValidationError("email", "invalid email")
	err := fmt.Errorf("create user: %w", appErr)

	found, ok := AsAppError(err)
	require.True(t, ok)
	assert.Same(t, appErr, found)

	_, ok = AsAppError(stderrors.New("plain"))
	assert.False(t, ok)
	_, ok = AsAppError(nil)
	assert.False(t, ok)
}

func TestAppError_Classification(t *testing.T) {
	assert.False(t, NewValidationError("bio", "too long").IsUnauthorized())
	assert.True(t, NewUnauthorizedError("Could not validate credentials").IsUnauthorized())
	assert.True(t, NewForbiddenError("Operation not permitted").IsUnauthorized())
	assert.True(t, New(ErrCodeAccountLocked, "locked").IsUnauthorized())
	assert.True(t, NewCacheError("get", stderrors.New("x")).IsInternal())
	assert.False(t, NewConflictError("user", "email taken").IsInternal())
}

func TestAppError_WithContext(t *testing.T) {
	err := New(ErrCodeInternal, "oops").
		WithRequestID("req-1").
		WithUserID("user-1").
		WithContext("path", "/users")

	assert.Equal(t, "req-1", err.RequestID)
	assert.Equal(t, "user-1", err.UserID)
	assert.Equal(t, "/users", err.Context["path"])
}
