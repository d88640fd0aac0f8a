package middleware

import (
	"dealbase/internal/entity"

	"github.com/labstack/echo/v4"
)

const (
	contextUserKey    = "auth_user"
	contextSessionKey = "auth_session_token"
)

func SetAuthContext(c echo.Context, user *entity.User, token *entity.SessionToken) {
	c.Set(contextUserKey, user)
	c.Set(contextSessionKey, token)
}

func UserFromContext(c echo.Context) (*entity.User, bool) {
	user, ok := c.Get(contextUserKey).(*entity.User)
	return user, ok
}

func SessionTokenFromContext(c echo.Context) (*entity.SessionToken, bool) {
	token, ok := c.Get(contextSessionKey).(*entity.SessionToken)
	return token, ok
}
