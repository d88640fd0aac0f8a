// Package apierr defines the fixed error taxonomy for the API. Every
// failure a client can see is one of these kinds, carrying a stable
// numeric code alongside the HTTP status. Handlers and services return
// *Error values; anything else is normalized at the boundary by the
// handler in handler.go.
package apierr

import "net/http"

type Error struct {
	Status int                 `json:"-"`
	Code   int                 `json:"code"`
	Detail string              `json:"detail"`
	Errors map[string][]string `json:"errors,omitempty"`
}

func (e *Error) Error() string {
	return e.Detail
}

const (
	CodeBadRequest                 = 4001
	CodeValidationError            = 4002
	CodeParseError                 = 4003
	CodeAuthenticationFailed       = 4011
	CodeNotAuthenticated           = 4012
	CodeVerificationFailed         = 4013
	CodeNotVerified                = 4014
	CodePermissionDenied           = 4031
	CodeNotFound                   = 4041
	CodeMethodNotAllowed           = 4051
	CodeInternalServerError        = 5001
	CodeEmailError                 = 5002
	CodeExternalServiceUnavailable = 5031
)

func BadRequest() *Error {
	return &Error{Status: http.StatusBadRequest, Code: CodeBadRequest, Detail: "Bad Request."}
}

// ValidationError carries per-field message lists in addition to the
// envelope code and detail.
func ValidationError(fieldErrors map[string][]string) *Error {
	return &Error{
		Status: http.StatusBadRequest,
		Code:   CodeValidationError,
		Detail: "Field(s) missing or invalid.",
		Errors: fieldErrors,
	}
}

func ParseError() *Error {
	return &Error{Status: http.StatusBadRequest, Code: CodeParseError, Detail: "Malformed request."}
}

func AuthenticationFailed() *Error {
	return &Error{Status: http.StatusUnauthorized, Code: CodeAuthenticationFailed, Detail: "Incorrect authentication credentials."}
}

func NotAuthenticated() *Error {
	return &Error{Status: http.StatusUnauthorized, Code: CodeNotAuthenticated, Detail: "Authentication credentials were not provided."}
}

func VerificationFailed() *Error {
	return &Error{Status: http.StatusUnauthorized, Code: CodeVerificationFailed, Detail: "Verification code invalid or expired."}
}

func NotVerified() *Error {
	return &Error{Status: http.StatusUnauthorized, Code: CodeNotVerified, Detail: "User not verified."}
}

func PermissionDenied() *Error {
	return &Error{Status: http.StatusForbidden, Code: CodePermissionDenied, Detail: "You do not have permission to perform this action."}
}

func NotFound() *Error {
	return &Error{Status: http.StatusNotFound, Code: CodeNotFound, Detail: "Not found."}
}

func MethodNotAllowed() *Error {
	return &Error{Status: http.StatusMethodNotAllowed, Code: CodeMethodNotAllowed, Detail: "Method not allowed."}
}

func InternalServerError() *Error {
	return &Error{Status: http.StatusInternalServerError, Code: CodeInternalServerError, Detail: "Internal Server Error."}
}

func EmailError() *Error {
	return &Error{Status: http.StatusInternalServerError, Code: CodeEmailError, Detail: "Error sending email."}
}

func ExternalServiceUnavailable() *Error {
	return &Error{Status: http.StatusServiceUnavailable, Code: CodeExternalServiceUnavailable, Detail: "Error connecting to external resource."}
}
