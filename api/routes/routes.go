package routes

import (
	"time"

	"dealbase/api/handler"
	"dealbase/api/middleware"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

type Router struct {
	Echo           *echo.Echo
	Accounts       *handler.AccountHandler
	AuthMiddleware middleware.AuthMiddleware
	SignupRate     *middleware.RateLimiter
	LoginRate      *middleware.RateLimiter
}

func NewRouter(e *echo.Echo, accounts *handler.AccountHandler, authMiddleware middleware.AuthMiddleware) *Router {
	return &Router{
		Echo:           e,
		Accounts:       accounts,
		AuthMiddleware: authMiddleware,
		SignupRate:     middleware.NewRateLimiter(rate.Limit(5), 10, 5*time.Minute),
		LoginRate:      middleware.NewRateLimiter(rate.Limit(2), 4, 10*time.Minute),
	}
}

func (r *Router) RegisterRoutes() {
	g := r.Echo.Group("/accounts")

	g.POST("/", r.Accounts.Signup, r.SignupRate.Middleware())
	g.POST("/login/", r.Accounts.Login, r.LoginRate.Middleware())
	g.GET("/retrieve/", r.Accounts.Retrieve, r.AuthMiddleware.RequireAuth)
	g.POST("/verify/", r.Accounts.Verify, r.AuthMiddleware.RequireAuth)
	g.POST("/verify/resend/", r.Accounts.ResendVerification, r.AuthMiddleware.RequireAuth)
	g.POST("/password/forgot/", r.Accounts.ForgotPassword, r.LoginRate.Middleware())
	g.POST("/password/reset/", r.Accounts.ResetPassword, r.LoginRate.Middleware())
	g.PATCH("/password/change/", r.Accounts.ChangePassword, r.AuthMiddleware.RequireAuth)
	g.PATCH("/email/change/", r.Accounts.ChangeEmail, r.AuthMiddleware.RequireAuth)
	g.PATCH("/update/", r.Accounts.UpdateProfile, r.AuthMiddleware.RequireAuth)
	g.POST("/waitlist/", r.Accounts.Waitlist, r.SignupRate.Middleware())
}
