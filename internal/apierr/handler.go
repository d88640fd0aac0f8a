package apierr

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// Handler returns the echo HTTPErrorHandler that writes every error as
// the {code, detail, errors?} envelope. It is the single place where
// lower-level failures are mapped onto the taxonomy.
func Handler(logger logrus.FieldLogger, debug bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		apiErr := Translate(err, debug)
		if apiErr.Status >= http.StatusInternalServerError && logger != nil {
			logger.WithError(err).WithFields(logrus.Fields{
				"method": c.Request().Method,
				"uri":    c.Request().RequestURI,
			}).Error("request failed")
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(apiErr.Status)
		} else {
			writeErr = c.JSON(apiErr.Status, apiErr)
		}
		if writeErr != nil && logger != nil {
			logger.WithError(writeErr).Error("error response not written")
		}
	}
}

// Translate maps any error onto its nearest taxonomy kind. Domain
// errors pass through unchanged; validator and echo errors get a fixed
// mapping; everything else collapses to InternalServerError unless
// debug is set, in which case the original message is preserved for
// diagnostics.
func Translate(err error, debug bool) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		return ValidationError(fieldErrorMap(fieldErrs))
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return fromHTTPError(httpErr)
	}

	if debug {
		unmapped := InternalServerError()
		unmapped.Detail = err.Error()
		return unmapped
	}
	return InternalServerError()
}

func fromHTTPError(httpErr *echo.HTTPError) *Error {
	switch httpErr.Code {
	case http.StatusBadRequest:
		// echo raises 400 for unparseable bodies and bad bindings.
		return ParseError()
	case http.StatusUnauthorized:
		return NotAuthenticated()
	case http.StatusForbidden:
		return PermissionDenied()
	case http.StatusNotFound:
		return NotFound()
	case http.StatusMethodNotAllowed:
		return MethodNotAllowed()
	case http.StatusServiceUnavailable:
		return ExternalServiceUnavailable()
	default:
		return InternalServerError()
	}
}

func fieldErrorMap(fieldErrs validator.ValidationErrors) map[string][]string {
	result := make(map[string][]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		field := fe.Field()
		result[field] = append(result[field], fieldErrorMessage(fe))
	}
	return result
}

func fieldErrorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	default:
		return "This field is invalid."
	}
}
