package middleware

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"user-management-backend/internal/common/errors"
	"user-management-backend/internal/features/auth/token"
	"user-management-backend/internal/features/user/models"
)

type stubAuthenticator struct {
	users map[string]*models.User
}

func (s *stubAuthenticator) Authenticate(_ context.Context, raw string) (*models.User, *token.Claims, error) {
	user, ok := s.users[raw]
	if !ok {
		return nil, nil, token.ErrInvalidToken
	}
	return user, &token.Claims{Role: string(user.Role)}, nil
}

func newTestRouter(auth Authenticator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), ErrorHandler())

	wrap := HandleErrorWrapper()
	protected := r.Group("/", RequireAuth(auth))
	protected.GET("/me", func(c *gin.Context) {
		user, _ := CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"nickname": user.Nickname})
	})
	protected.DELETE("/users/:id", RequireRole(models.RoleManager, models.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	r.GET("/fail", wrap(func(c *gin.Context) {
		_ = c.Error(stderrors.New("boom"))
	}))
	r.GET("/missing", wrap(func(c *gin.Context) {
		_ = c.Error(errors.New(errors.ErrCodeUserNotFound, "User not found"))
	}))
	r.GET("/panic", func(c *gin.Context) { panic("kaboom") })
	return r
}

func perform(r http.Handler, method, path, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestRequireAuth(t *testing.T) {
	auth := &stubAuthenticator{users: map[string]*models.User{
		"good": {ID: uuid.New(), Nickname: "john_doe", Role: models.RoleAuthenticated},
	}}
	r := newTestRouter(auth)

	w := perform(r, http.MethodGet, "/me", "good")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "john_doe")

	for _, bearer := range []string{"", "bad"} {
		w = perform(r, http.MethodGet, "/me", bearer)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
		resp := decodeError(t, w)
		assert.False(t, resp.Success)
		assert.Equal(t, "Could not validate credentials", resp.Error.Message)
		assert.NotEmpty(t, resp.RequestID)
	}
}

func TestRequireRole(t *testing.T) {
	auth := &stubAuthenticator{users: map[string]*models.User{
		"user":    {ID: uuid.New(), Role: models.RoleAuthenticated},
		"manager": {ID: uuid.New(), Role: models.RoleManager},
	}}
	r := newTestRouter(auth)

	w := perform(r, http.MethodDelete, "/users/1", "user")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Operation not permitted", decodeError(t, w).Error.Message)

	w = perform(r, http.MethodDelete, "/users/1", "manager")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = perform(r, http.MethodDelete, "/users/1", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandleErrorWrapper(t *testing.T) {
	r := newTestRouter(&stubAuthenticator{})

	w := perform(r, http.MethodGet, "/fail", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, errors.ErrCodeInternal, decodeError(t, w).Error.Code)

	w = perform(r, http.MethodGet, "/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, errors.ErrCodeUserNotFound, decodeError(t, w).Error.Code)
}

func TestErrorHandler_RecoversPanic(t *testing.T) {
	r := newTestRouter(&stubAuthenticator{})

	w := perform(r, http.MethodGet, "/panic", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, "Internal server error", resp.Error.Message)
	assert.Empty(t, resp.Error.Details)
	assert.NotContains(t, w.Body.String(), "kaboom")
}

func TestHTTPStatus(t *testing.T) {
	cases := map[errors.ErrorCode]int{
		errors.ErrCodeEmptyUpdate:        http.StatusBadRequest,
		errors.ErrCodeAccountLocked:      http.StatusBadRequest,
		errors.ErrCodeInvalidCredentials: http.StatusUnauthorized,
		errors.ErrCodeEmailNotVerified:   http.StatusForbidden,
		errors.ErrCodeConflict:           http.StatusConflict,
		errors.ErrCodeCacheError:         http.StatusServiceUnavailable,
	}
	for code, status := range cases {
		assert.Equal(t, status, HTTPStatus(errors.New(code, "x")), code)
	}
}
