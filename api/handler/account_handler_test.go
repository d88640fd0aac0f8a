package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"dealbase/api/handler"
	apiMiddleware "dealbase/api/middleware"
	"dealbase/api/routes"
	"dealbase/internal/apierr"
	"dealbase/internal/repository"
	"dealbase/internal/service"
	"dealbase/internal/testutil"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type recordingEmailSender struct {
	verifications []string
	resets        []string
}

func (s *recordingEmailSender) SendVerificationEmail(ctx context.Context, email string, token string) error {
	s.verifications = append(s.verifications, token)
	return nil
}

func (s *recordingEmailSender) SendPasswordResetEmail(ctx context.Context, email string, token string) error {
	s.resets = append(s.resets, token)
	return nil
}

type testApp struct {
	echo   *echo.Echo
	emails *recordingEmailSender
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	db := testutil.SetupTestDB(t)

	users := repository.NewUserRepository(db)
	verifications := repository.NewVerificationTokenRepository(db)
	sessions := repository.NewSessionTokenRepository(db)
	securityLogs := repository.NewSecurityLogRepository(db)

	emails := &recordingEmailSender{}
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	svc := service.NewAccountService(
		users,
		securityLogs,
		service.NewCredentialStore(users, service.BcryptPasswordHasher{Cost: bcrypt.MinCost}),
		service.NewTokenStore(verifications, service.RealClock{}),
		service.NewSessionTokenIssuer(sessions),
		emails,
		nil,
		nil,
		logger,
	)

	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	e := echo.New()
	e.HTTPErrorHandler = apierr.Handler(nil, false)

	router := routes.NewRouter(e, handler.NewAccountHandler(svc, validate), apiMiddleware.AuthMiddleware{
		Sessions: sessions,
		Users:    users,
	})
	router.RegisterRoutes()

	return &testApp{echo: e, emails: emails}
}

func (a *testApp) request(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.echo.ServeHTTP(rec, req)
	return rec
}

type authBody struct {
	User struct {
		ID         string `json:"id"`
		Email      string `json:"email"`
		FirstName  string `json:"first_name"`
		LastName   string `json:"last_name"`
		FullName   string `json:"full_name"`
		IsVerified bool   `json:"is_verified"`
	} `json:"user"`
	Token string `json:"token"`
}

func (a *testApp) signup(t *testing.T, email string) authBody {
	t.Helper()
	rec := a.request(t, http.MethodPost, "/accounts/", "", map[string]string{
		"email":      email,
		"password":   "pw",
		"first_name": "A",
		"last_name":  "B",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var body authBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) int {
	t.Helper()
	var body struct {
		Code int `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Code
}

func TestSignupEndpoint(t *testing.T) {
	app := newTestApp(t)

	body := app.signup(t, "a@x.com")

	assert.Equal(t, "a@x.com", body.User.Email)
	assert.Equal(t, "A B", body.User.FullName)
	assert.False(t, body.User.IsVerified)
	assert.NotEmpty(t, body.Token)
	assert.NotEmpty(t, body.User.ID)
}

func TestSignupEndpoint_MissingFields(t *testing.T) {
	app := newTestApp(t)

	rec := app.request(t, http.MethodPost, "/accounts/", "", map[string]string{
		"email": "a@x.com",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apierr.CodeValidationError, errorCode(t, rec))
	assert.Contains(t, rec.Body.String(), `"first_name"`)
}

func TestSignupEndpoint_MalformedBody(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/accounts/", strings.NewReader("{not json"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	app.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apierr.CodeParseError, errorCode(t, rec))
}

func TestLoginEndpoint(t *testing.T) {
	app := newTestApp(t)
	created := app.signup(t, "a@x.com")

	rec := app.request(t, http.MethodPost, "/accounts/login/", "", map[string]string{
		"email":    "a@x.com",
		"password": "pw",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var body authBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, created.Token, body.Token)
}

func TestLoginEndpoint_WrongPassword(t *testing.T) {
	app := newTestApp(t)
	app.signup(t, "a@x.com")

	rec := app.request(t, http.MethodPost, "/accounts/login/", "", map[string]string{
		"email":    "a@x.com",
		"password": "wrong",
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, apierr.CodeAuthenticationFailed, errorCode(t, rec))
}

func TestRetrieveEndpoint(t *testing.T) {
	app := newTestApp(t)
	created := app.signup(t, "a@x.com")

	rec := app.request(t, http.MethodGet, "/accounts/retrieve/", created.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body authBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, created.Token, body.Token)
	assert.Equal(t, "a@x.com", body.User.Email)
}

func TestRetrieveEndpoint_NoAuth(t *testing.T) {
	app := newTestApp(t)

	rec := app.request(t, http.MethodGet, "/accounts/retrieve/", "", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, apierr.CodeNotAuthenticated, errorCode(t, rec))
}

func TestVerifyEndpoint(t *testing.T) {
	app := newTestApp(t)
	created := app.signup(t, "a@x.com")

	rec := app.request(t, http.MethodPost, "/accounts/verify/resend/", created.Token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.NotEmpty(t, app.emails.verifications)
	token := app.emails.verifications[len(app.emails.verifications)-1]

	rec = app.request(t, http.MethodPost, "/accounts/verify/", created.Token, map[string]string{
		"verification_token": token,
	})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// Second use of the same token fails.
	rec = app.request(t, http.MethodPost, "/accounts/verify/", created.Token, map[string]string{
		"verification_token": token,
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, apierr.CodeVerificationFailed, errorCode(t, rec))

	rec = app.request(t, http.MethodGet, "/accounts/retrieve/", created.Token, nil)
	var body authBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.User.IsVerified)
}

func TestPasswordResetEndpoints(t *testing.T) {
	app := newTestApp(t)
	created := app.signup(t, "a@x.com")

	rec := app.request(t, http.MethodPost, "/accounts/password/forgot/", "", map[string]string{
		"email": "a@x.com",
	})
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.NotEmpty(t, app.emails.resets)
	token := app.emails.resets[len(app.emails.resets)-1]

	rec = app.request(t, http.MethodPost, "/accounts/password/reset/", "", map[string]string{
		"email":              "a@x.com",
		"password":           "pw2",
		"verification_token": token,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var body authBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEqual(t, created.Token, body.Token)

	// Old session token no longer authenticates.
	rec = app.request(t, http.MethodGet, "/accounts/retrieve/", created.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestForgotPasswordEndpoint_UnknownEmailStill204(t *testing.T) {
	app := newTestApp(t)

	rec := app.request(t, http.MethodPost, "/accounts/password/forgot/", "", map[string]string{
		"email": "ghost@x.com",
	})

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, app.emails.resets)
}

func TestChangePasswordEndpoint(t *testing.T) {
	app := newTestApp(t)
	created := app.signup(t, "a@x.com")

	rec := app.request(t, http.MethodPatch, "/accounts/password/change/", created.Token, map[string]string{
		"current_password": "pw",
		"new_password":     "pw2",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEqual(t, created.Token, body.Token)
}

func TestChangeEmailEndpoint(t *testing.T) {
	app := newTestApp(t)
	created := app.signup(t, "a@x.com")

	rec := app.request(t, http.MethodPatch, "/accounts/email/change/", created.Token, map[string]string{
		"email": "b@y.com",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Token string `json:"token"`
		User  struct {
			Email      string `json:"email"`
			IsVerified bool   `json:"is_verified"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "b@y.com", body.User.Email)
	assert.False(t, body.User.IsVerified)
	assert.NotEqual(t, created.Token, body.Token)
	assert.NotEmpty(t, app.emails.verifications)
}

func TestUpdateProfileEndpoint(t *testing.T) {
	app := newTestApp(t)
	created := app.signup(t, "a@x.com")

	rec := app.request(t, http.MethodPatch, "/accounts/update/", created.Token, map[string]string{
		"first_name": "Updated",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		User struct {
			FirstName string `json:"first_name"`
			LastName  string `json:"last_name"`
			Email     string `json:"email"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Updated", body.User.FirstName)
	assert.Equal(t, "B", body.User.LastName)
	assert.Equal(t, "a@x.com", body.User.Email)
}

func TestMethodNotAllowedEnvelope(t *testing.T) {
	app := newTestApp(t)

	rec := app.request(t, http.MethodDelete, "/accounts/login/", "", nil)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, apierr.CodeMethodNotAllowed, errorCode(t, rec))
}
