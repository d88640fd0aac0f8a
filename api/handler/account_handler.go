package handler

import (
	"net/http"

	"dealbase/api/middleware"
	"dealbase/internal/apierr"
	"dealbase/internal/dto"
	"dealbase/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// AccountHandler exposes the account lifecycle over HTTP. Handlers
// return errors as-is; the apierr boundary handler renders the
// envelope.
type AccountHandler struct {
	Service  *service.AccountService
	Validate *validator.Validate
}

func NewAccountHandler(svc *service.AccountService, validate *validator.Validate) *AccountHandler {
	return &AccountHandler{Service: svc, Validate: validate}
}

func (h *AccountHandler) Signup(c echo.Context) error {
	var req dto.SignupRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	user, session, err := h.Service.Signup(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, dto.AuthResponse{
		User:  dto.UserResponseFromEntity(user),
		Token: session.Key,
	})
}

func (h *AccountHandler) Login(c echo.Context) error {
	var req dto.LoginRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	user, session, err := h.Service.Login(c.Request().Context(), req, realIP(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.AuthResponse{
		User:  dto.UserResponseFromEntity(user),
		Token: session.Key,
	})
}

func (h *AccountHandler) Retrieve(c echo.Context) error {
	user, ok := middleware.UserFromContext(c)
	if !ok {
		return apierr.NotAuthenticated()
	}
	session, err := h.Service.Retrieve(c.Request().Context(), user)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.AuthResponse{
		User:  dto.UserResponseFromEntity(user),
		Token: session.Key,
	})
}

func (h *AccountHandler) Verify(c echo.Context) error {
	user, ok := middleware.UserFromContext(c)
	if !ok {
		return apierr.NotAuthenticated()
	}
	var req dto.VerifyRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	if err := h.Service.Verify(c.Request().Context(), user, req.VerificationToken); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AccountHandler) ResendVerification(c echo.Context) error {
	user, ok := middleware.UserFromContext(c)
	if !ok {
		return apierr.NotAuthenticated()
	}
	if err := h.Service.ResendVerification(c.Request().Context(), user); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AccountHandler) ForgotPassword(c echo.Context) error {
	var req dto.ForgotPasswordRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	if err := h.Service.ForgotPassword(c.Request().Context(), req.Email); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AccountHandler) ResetPassword(c echo.Context) error {
	var req dto.ResetPasswordRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	user, session, err := h.Service.ResetPassword(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.AuthResponse{
		User:  dto.UserResponseFromEntity(user),
		Token: session.Key,
	})
}

func (h *AccountHandler) ChangePassword(c echo.Context) error {
	user, ok := middleware.UserFromContext(c)
	if !ok {
		return apierr.NotAuthenticated()
	}
	var req dto.ChangePasswordRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	session, err := h.Service.ChangePassword(c.Request().Context(), user, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.TokenResponse{Token: session.Key})
}

func (h *AccountHandler) ChangeEmail(c echo.Context) error {
	user, ok := middleware.UserFromContext(c)
	if !ok {
		return apierr.NotAuthenticated()
	}
	var req dto.ChangeEmailRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	updated, session, err := h.Service.ChangeEmail(c.Request().Context(), user, req.Email)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.TokenUserResponse{
		Token: session.Key,
		User:  dto.UserResponseFromEntity(updated),
	})
}

func (h *AccountHandler) UpdateProfile(c echo.Context) error {
	user, ok := middleware.UserFromContext(c)
	if !ok {
		return apierr.NotAuthenticated()
	}
	var req dto.UpdateProfileRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	updated, err := h.Service.UpdateProfile(c.Request().Context(), user, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.ProfileResponse{User: dto.UserResponseFromEntity(updated)})
}

func (h *AccountHandler) Waitlist(c echo.Context) error {
	var req dto.WaitlistRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	if err := h.Service.Waitlist(c.Request().Context(), req); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AccountHandler) bind(c echo.Context, target any) error {
	if err := c.Bind(target); err != nil {
		return err
	}
	if h.Validate == nil {
		return nil
	}
	return h.Validate.Struct(target)
}

func realIP(c echo.Context) *string {
	ip := c.RealIP()
	if ip == "" {
		return nil
	}
	return &ip
}
