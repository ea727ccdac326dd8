package auth

import (
	"strings"

	apierr "github.com/datapress/datapress/pkg/api/types/errors"
	"github.com/datapress/datapress/pkg/domain"
	"github.com/labstack/echo/v4"
)

const identityContextKey = "datapress/identity"

// Middleware authenticates requests with a Bearer session token and
// stores the resolved identity in the echo context.
func Middleware(issuer *Issuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			token, found := strings.CutPrefix(header, "Bearer ")
			if !found || token == "" {
				return apierr.Unauthorized("set Authorization: Bearer <token>", nil)
			}

			identity, err := issuer.Verify(token)
			if err != nil {
				return apierr.Unauthorized("log in again to get a fresh token", err)
			}

			c.Set(identityContextKey, identity)
			return next(c)
		}
	}
}

// RequireAdmin rejects requests whose identity is not an admin.
// It must run after Middleware.
func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if From(c).Role != domain.Admin {
			return apierr.Forbidden("this operation needs the admin role")
		}
		return next(c)
	}
}

// Inject stores id in the echo context as Middleware would.
// For handler tests.
func Inject(c echo.Context, id domain.Identity) {
	c.Set(identityContextKey, id)
}

// From returns the identity stored by Middleware.
//
// The zero Identity is returned on routes without authentication.
func From(c echo.Context) domain.Identity {
	if id, ok := c.Get(identityContextKey).(domain.Identity); ok {
		return id
	}
	return domain.Identity{}
}
