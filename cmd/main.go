package main

import (
	"net/http"
	"os"
	"reflect"
	"strings"
	"time"

	"dealbase/api/handler"
	apiMiddleware "dealbase/api/middleware"
	"dealbase/api/routes"
	"dealbase/config"
	"dealbase/internal/apierr"
	"dealbase/internal/repository"
	"dealbase/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
)

func main() {
	db := config.ConnectionDb()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	userRepo := repository.NewUserRepository(db)
	verificationRepo := repository.NewVerificationTokenRepository(db)
	sessionRepo := repository.NewSessionTokenRepository(db)
	securityRepo := repository.NewSecurityLogRepository(db)

	creds := service.NewCredentialStore(userRepo, service.BcryptPasswordHasher{})
	tokens := service.NewTokenStore(verificationRepo, service.RealClock{})
	sessions := service.NewSessionTokenIssuer(sessionRepo)

	var emailSender service.EmailSender
	if sender := service.NewResendEmailSender(
		os.Getenv("RESEND_API_KEY"),
		os.Getenv("EMAIL_FROM"),
		os.Getenv("WEB_BASE_URL"),
	); sender != nil {
		emailSender = sender
	} else {
		logger.Warn("email sender not configured, verification emails disabled")
	}

	accountService := service.NewAccountService(
		userRepo,
		securityRepo,
		creds,
		tokens,
		sessions,
		emailSender,
		nil,
		nil,
		logger,
	)

	accountHandler := handler.NewAccountHandler(accountService, validate)
	authMiddleware := apiMiddleware.AuthMiddleware{Sessions: sessionRepo, Users: userRepo}

	debug := os.Getenv("DEBUG") == "true"

	app := echo.New()
	app.HideBanner = true
	app.HidePort = true
	app.HTTPErrorHandler = apierr.Handler(logger, debug)
	app.Use(echoMiddleware.Recover())
	app.Use(echoMiddleware.RequestLoggerWithConfig(echoMiddleware.RequestLoggerConfig{
		LogStatus:   true,
		LogMethod:   true,
		LogURI:      true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echoMiddleware.RequestLoggerValues) error {
			entry := logger.WithFields(logrus.Fields{
				"status": v.Status,
				"method": v.Method,
				"uri":    v.URI,
				"ip":     v.RemoteIP,
			})
			if v.Error != nil {
				entry.WithError(v.Error).Error("request")
				return nil
			}
			entry.Info("request")
			return nil
		},
	}))

	router := routes.NewRouter(app, accountHandler, authMiddleware)
	router.RegisterRoutes()

	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	server := &http.Server{
		Addr:              addr,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.WithField("addr", addr).Info("server started")
	if err := app.StartServer(server); err != nil {
		logger.WithError(err).Fatal("server stopped")
	}
}
