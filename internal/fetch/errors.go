package fetch

import (
	"errors"
	"fmt"
)

var (
	// ErrRetriesExhausted is returned when every attempt for a URL failed.
	// It wraps the last *NetworkError.
	ErrRetriesExhausted = errors.New("retries exhausted")

	// ErrInvalidURL is returned without any attempt when a target cannot
	// be parsed as a URL with a host.
	ErrInvalidURL = errors.New("invalid url")

	// ErrInvalidProxy is returned when a proxy URL cannot be used.
	ErrInvalidProxy = errors.New("invalid proxy")
)

// NetworkError describes one failed fetch attempt.
type NetworkError struct {
	// URL is the URL that was requested.
	URL string

	// Attempt is the 1-based attempt number.
	Attempt int

	// Err is the underlying transport error.
	Err error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	return fmt.Sprintf("fetch %s (attempt %d): %v", e.URL, e.Attempt, e.Err)
}

// Unwrap returns the underlying error.
func (e *NetworkError) Unwrap() error {
	return e.Err
}
