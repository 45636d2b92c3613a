package remote

import (
	"errors"
	"fmt"
)

// AuthError indicates the remote rejected the token (401/403).
type AuthError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("remote %s: authentication failed (status %d)", e.Endpoint, e.StatusCode)
}

// UnavailableError indicates a transport failure, timeout, or unexpected
// status from the remote.
type UnavailableError struct {
	Endpoint   string
	StatusCode int // zero for transport errors
	Body       string
	Err        error
}

func (e *UnavailableError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("remote %s: unavailable (status %d)", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("remote %s: unavailable: %v", e.Endpoint, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// Retryable reports whether repeating the call may succeed: transport
// errors, timeouts, 429 and 5xx are retryable; other 4xx are not.
func (e *UnavailableError) Retryable() bool {
	return e.StatusCode == 0 || e.StatusCode == 429 || e.StatusCode >= 500
}

// IsAuth reports whether err is (or wraps) an AuthError.
func IsAuth(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// IsUnavailable reports whether err is (or wraps) an UnavailableError.
func IsUnavailable(err error) bool {
	var unavailable *UnavailableError
	return errors.As(err, &unavailable)
}
