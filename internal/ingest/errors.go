package ingest

import (
	"errors"

	"github.com/chirino/docsync/internal/remote"
)

func unwrapRemote(err error) error {
	var authErr *remote.AuthError
	if errors.As(err, &authErr) {
		return authErr
	}
	var unavailable *remote.UnavailableError
	if errors.As(err, &unavailable) {
		return unavailable
	}
	return nil
}

// Retryable reports whether a failed run may succeed if repeated.
func Retryable(err error) bool {
	var unavailable *remote.UnavailableError
	if errors.As(err, &unavailable) {
		return unavailable.Retryable()
	}
	return false
}
