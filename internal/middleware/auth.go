// Package middleware provides Echo middleware for authentication, logging,
// metrics and security.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"seo-gateway/internal/auth"
	"seo-gateway/internal/gwerror"
)

// IdentityKey is the echo context key under which RequireUser stores the
// validated caller identity.
const IdentityKey = "identity"

// TokenValidator is the external identity collaborator: it answers whether
// a caller token is valid and who the caller is.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (*auth.Identity, error)
}

// RequireUser returns middleware that enforces a valid bearer token on the
// wrapped routes. The validated identity is stored in the context under
// IdentityKey.
func RequireUser(v TokenValidator, logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if token == "" {
				return c.JSON(http.StatusUnauthorized, gwerror.Body{Error: gwerror.Payload{
					Kind:   gwerror.KindAuthorization,
					Detail: "missing bearer token",
				}})
			}

			id, err := v.Validate(c.Request().Context(), token)
			if err != nil {
				logger.Warn("token validation failed",
					"path", c.Request().URL.Path,
					"err", err,
				)
				status, body := gwerror.ResponseFor(err)
				return c.JSON(status, body)
			}

			c.Set(IdentityKey, id)
			return next(c)
		}
	}
}

// IdentityFrom returns the validated identity stored by RequireUser, or nil.
func IdentityFrom(c echo.Context) *auth.Identity {
	id, _ := c.Get(IdentityKey).(*auth.Identity)
	return id
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
