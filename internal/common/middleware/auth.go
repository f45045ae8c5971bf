package middleware

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/gin-gonic/gin"

	"user-management-backend/internal/common/errors"
	"user-management-backend/internal/features/auth/token"
	"user-management-backend/internal/features/user/models"
)

const (
	userKey   = "user"
	claimsKey = "claims"
)

// Authenticator resolves a bearer token to the calling user.
type Authenticator interface {
	Authenticate(ctx context.Context, rawToken string) (*models.User, *token.Claims, error)
}

func unauthorized() *errors.AppError {
	return errors.NewUnauthorizedError("Could not validate credentials")
}

// RequireAuth rejects requests without a valid bearer token with 401 and
// stores the user and token claims in the context.
func RequireAuth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			AbortWithError(c, unauthorized())
			return
		}

		user, claims, err := auth.Authenticate(c.Request.Context(), raw)
		if err != nil {
			if stderrors.Is(err, token.ErrInvalidToken) {
				AbortWithError(c, unauthorized())
				return
			}
			if appErr, ok := errors.AsAppError(err); ok {
				AbortWithError(c, appErr)
				return
			}
			AbortWithError(c, errors.Wrap(err, errors.ErrCodeInternal, "Authentication failed"))
			return
		}

		c.Set(userKey, user)
		c.Set(claimsKey, claims)
		c.Set(userIDKey, user.ID.String())
		c.Next()
	}
}

// RequireRole allows only callers whose role is one of roles. It must run
// after RequireAuth.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			AbortWithError(c, unauthorized())
			return
		}

		for _, role := range roles {
			if user.HasRole(role) {
				c.Next()
				return
			}
		}
		AbortWithError(c, errors.NewForbiddenError("Operation not permitted"))
	}
}

func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok
}

func CurrentClaims(c *gin.Context) (*token.Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*token.Claims)
	return claims, ok
}

func bearerToken(header string) (string, bool) {
	scheme, raw, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}
