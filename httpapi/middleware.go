package httpapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"draftflow/auth"
)

const identityKey = "identity"

// TokenVerifier turns a bearer token into a caller identity.
type TokenVerifier interface {
	VerifyToken(token string) (auth.Identity, error)
}

// authenticate extracts and verifies the bearer token, storing the identity
// on the request context for handlers and the audit trail.
func authenticate(verifier TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing bearer token"})
			}

			ident, err := verifier.VerifyToken(token)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid token"})
			}

			c.Set(identityKey, ident)
			return next(c)
		}
	}
}

// requireRoles gates a route to the listed roles. Runs after authenticate.
func requireRoles(roles ...auth.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ident := identityFrom(c)
			for _, role := range roles {
				if ident.Role == role {
					return next(c)
				}
			}
			return c.JSON(http.StatusForbidden, map[string]string{"error": "insufficient role"})
		}
	}
}

func identityFrom(c echo.Context) auth.Identity {
	ident, _ := c.Get(identityKey).(auth.Identity)
	return ident
}
