package errors

import (
	"errors"
	"net/http"
)

// Domain errors
var (
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrUpstreamFailure    = errors.New("upstream failure")
	ErrTokenExpired       = errors.New("token expired")
	ErrWalletNotFound     = errors.New("no embedded wallet found for target chain")
)

// Error categories reported in the "code" field of error responses.
const (
	CodeUnauthenticated    = "UNAUTHENTICATED"
	CodeNotFound           = "NOT_FOUND"
	CodeInvalidArgument    = "INVALID_ARGUMENT"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	CodeUpstreamFailure    = "UPSTREAM_FAILURE"
)

// AppError represents application error with HTTP status
type AppError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetails returns a copy of e carrying extra diagnostic text.
func (e *AppError) WithDetails(details string) *AppError {
	out := *e
	out.Details = details
	return &out
}

// NewAppError creates a new app error
func NewAppError(status int, code, message string, err error) *AppError {
	return &AppError{
		Status:  status,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func Unauthenticated(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, CodeUnauthenticated, message, ErrUnauthenticated)
}

// TokenExpired is an Unauthenticated error that stays distinguishable from
// a bad signature.
func TokenExpired(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, CodeUnauthenticated, message, ErrTokenExpired)
}

func NotFound(message string) *AppError {
	return NewAppError(http.StatusNotFound, CodeNotFound, message, ErrNotFound)
}

func InvalidArgument(message string) *AppError {
	return NewAppError(http.StatusBadRequest, CodeInvalidArgument, message, ErrInvalidArgument)
}

// ServiceUnavailable is reported as 500: the collaborator was never configured,
// which is a server fault rather than a transient outage.
func ServiceUnavailable(message string) *AppError {
	return NewAppError(http.StatusInternalServerError, CodeServiceUnavailable, message, ErrServiceUnavailable)
}

// UpstreamFailure wraps a failed chain RPC or identity-provider call.
func UpstreamFailure(message string, err error) *AppError {
	if err == nil {
		err = ErrUpstreamFailure
	}
	return NewAppError(http.StatusInternalServerError, CodeUpstreamFailure, message, err)
}

// As extracts an *AppError from err.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Is reports whether err carries the given category code.
func Is(err error, code string) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}
