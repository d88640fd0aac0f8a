package middleware

import (
	"net/http"
	"strings"

	"dealbase/internal/apierr"
	"dealbase/internal/repository"

	"github.com/labstack/echo/v4"
)

// AuthMiddleware resolves the opaque bearer token against the session
// token table and loads the owning user into the request context.
type AuthMiddleware struct {
	Sessions repository.SessionTokenRepository
	Users    repository.UserRepository
}

func (m AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		key := extractBearerToken(c.Request())
		if key == "" {
			return apierr.NotAuthenticated()
		}

		ctx := c.Request().Context()
		token, err := m.Sessions.FindByKey(ctx, key)
		if err != nil {
			return err
		}
		if token == nil {
			return apierr.NotAuthenticated()
		}

		user, err := m.Users.FindByID(ctx, token.UserID)
		if err != nil {
			return err
		}
		if user == nil {
			return apierr.NotAuthenticated()
		}

		SetAuthContext(c, user, token)
		return next(c)
	}
}

func extractBearerToken(r *http.Request) string {
	authorization := r.Header.Get("Authorization")
	if authorization == "" {
		return ""
	}
	parts := strings.SplitN(authorization, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	// "Token <key>" is accepted alongside "Bearer <key>" for clients
	// migrating from the previous API.
	if !strings.EqualFold(parts[0], "Bearer") && !strings.EqualFold(parts[0], "Token") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
