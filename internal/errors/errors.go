package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds surfaced by the gateway
var (
	// Authorization flow errors
	ErrInvalidState        = errors.New("invalid state parameter")
	ErrInvalidRequest      = errors.New("invalid request")
	ErrTokenExchangeFailed = errors.New("token exchange failed")

	// Session errors
	ErrNotAuthenticated = errors.New("not authenticated")

	// Downstream errors
	ErrUpstreamResource = errors.New("upstream resource error")

	// Startup errors
	ErrMisconfigured = errors.New("misconfigured")
)

// TokenExchangeError carries the token endpoint's response so callers can
// surface it for diagnostics.
type TokenExchangeError struct {
	StatusCode int
	Body       string
}

func (e *TokenExchangeError) Error() string {
	return "Token exchange failed: " + e.Body
}

func (e *TokenExchangeError) Unwrap() error {
	return ErrTokenExchangeFailed
}

// UpstreamError is returned when the downstream resource API rejects a request.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	return e.Message
}

func (e *UpstreamError) Unwrap() error {
	return ErrUpstreamResource
}

// StatusCode maps an error to the HTTP status returned to the browser.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidState), errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotAuthenticated):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
