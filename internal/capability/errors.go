package capability

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnavailable  = errors.New("capability unavailable")
	ErrInvalidInput = errors.New("invalid input")
)

// ProviderError is a failed call to an external provider.
// StatusCode is zero when no HTTP response was received.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s request failed: %s", e.Provider, msg)
	}
	return fmt.Sprintf("%s returned status %d: %s", e.Provider, e.StatusCode, msg)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Transient reports whether retrying may succeed: network failures, rate limits and server errors.
func (e *ProviderError) Transient() bool {
	switch {
	case e.StatusCode == 0:
		return true
	case e.StatusCode == http.StatusTooManyRequests:
		return true
	case e.StatusCode >= 500:
		return true
	default:
		return false
	}
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsTransient classifies err for the retry policy.
// Anything not explicitly permanent (a 4xx other than 429, invalid input, cancellation) is transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var perm *permanentError
	if errors.As(err, &perm) {
		return false
	}
	if errors.Is(err, ErrInvalidInput) || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		return providerErr.Transient()
	}

	return true
}
