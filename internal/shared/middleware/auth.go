package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"digital-library-backend/internal/domains/user"
	"digital-library-backend/internal/shared/response"
)

const currentUserKey = "current_user"

// Authenticator resolves a bearer token to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*user.User, error)
}

// AuthMiddleware rejects requests without a valid bearer token and stores the
// resolved user in the gin context.
func AuthMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := auth.Authenticate(c.Request.Context(), bearerToken(c))
		if err != nil {
			response.Error(c, err)
			return
		}

		c.Set(currentUserKey, u)
		c.Next()
	}
}

// OptionalAuthMiddleware resolves the user when a valid token is present and
// otherwise continues anonymously.
func OptionalAuthMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := bearerToken(c); token != "" {
			if u, err := auth.Authenticate(c.Request.Context(), token); err == nil {
				c.Set(currentUserKey, u)
			}
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user, or nil.
func CurrentUser(c *gin.Context) *user.User {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil
	}
	u, _ := v.(*user.User)
	return u
}

// SetCurrentUser is used by tests and alternative transports.
func SetCurrentUser(c *gin.Context, u *user.User) {
	c.Set(currentUserKey, u)
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(header[len("Bearer "):])
}
