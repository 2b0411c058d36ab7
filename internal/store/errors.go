package store

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrTransient wraps failures that were retried until the policy gave up.
	ErrTransient = errors.New("store: transient failure")
	// ErrValidation is returned before any network call when a payload is
	// missing required fields.
	ErrValidation = errors.New("store: invalid payload")
	// ErrRejected is returned for non-retryable HTTP statuses.
	ErrRejected = errors.New("store: request rejected")
)

// StatusError reports an unexpected HTTP status from the store.
type StatusError struct {
	Method string
	URL    string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.Code)
}

// Unwrap classifies the status so callers can match with errors.Is.
func (e *StatusError) Unwrap() error {
	if retryable(e.Code) {
		return ErrTransient
	}
	return ErrRejected
}

func retryable(code int) bool {
	return code >= 500 || code == http.StatusTooManyRequests
}
