package middleware

import (
	"dealbase/internal/apierr"

	"github.com/labstack/echo/v4"
)

// RequireVerified guards endpoints that only verified accounts may
// use. Must run after RequireAuth.
func RequireVerified(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, ok := UserFromContext(c)
		if !ok {
			return apierr.NotAuthenticated()
		}
		if !user.IsVerified {
			return apierr.NotVerified()
		}
		return next(c)
	}
}
