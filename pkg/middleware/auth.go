package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/shopfront/order-platform/pkg/auth"
	"github.com/shopfront/order-platform/pkg/errors"
	"github.com/shopfront/order-platform/pkg/logging"
)

const contextKeyPrincipal = "principal"

// TokenVerifier resolves a bearer token to a principal
type TokenVerifier interface {
	Verify(token string) (*auth.Principal, error)
}

// Authenticate requires a valid bearer token and stores the principal on the
// gin context and in the request context.Context
func Authenticate(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			AbortWithAppError(c, errors.ErrUnauthorized(""))
			return
		}

		principal, err := verifier.Verify(strings.TrimSpace(token))
		if err != nil {
			AbortWithAppError(c, errors.ErrUnauthorized("invalid or expired token"))
			return
		}

		ctx := auth.WithPrincipal(c.Request.Context(), principal)
		ctx = logging.ContextWithUserID(ctx, principal.Subject)
		c.Request = c.Request.WithContext(ctx)
		c.Set(contextKeyPrincipal, principal)

		c.Next()
	}
}

// RequireRole rejects principals without the given role. Must run after Authenticate.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := PrincipalFromGin(c)
		if !ok {
			AbortWithAppError(c, errors.ErrUnauthorized(""))
			return
		}
		if principal.Role != role {
			AbortWithAppError(c, errors.ErrForbidden(""))
			return
		}
		c.Next()
	}
}

// PrincipalFromGin returns the authenticated principal of the request
func PrincipalFromGin(c *gin.Context) (*auth.Principal, bool) {
	if v, exists := c.Get(contextKeyPrincipal); exists {
		if p, ok := v.(*auth.Principal); ok {
			return p, true
		}
	}
	return auth.FromContext(c.Request.Context())
}
