package config

import (
	"errors"
	"fmt"
)

// Configuration validation errors returned by Config.Validate.
var (
	// ErrNoTarget is returned when neither a URL file nor a custom URL is given.
	ErrNoTarget = errors.New("no target specified: provide --custom-url or --url-file")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidRetries is returned when the retry count is negative.
	ErrInvalidRetries = errors.New("invalid retries: must be non-negative")

	// ErrInvalidConcurrency is returned when the concurrency is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidOutputMode is returned for an output mode other than
	// streaming or batch.
	ErrInvalidOutputMode = errors.New("invalid output mode")

	// ErrInvalidRateLimit is returned when the rate limit is negative.
	// Use 0 to disable rate limiting.
	ErrInvalidRateLimit = errors.New("invalid rate limit: must be non-negative")

	// ErrInvalidProxy is returned when a proxy URL is malformed or has the
	// wrong scheme.
	ErrInvalidProxy = errors.New("invalid proxy")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")
)

// InputFileError is returned when the target list cannot be read.
type InputFileError struct {
	// Path is the input file path.
	Path string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *InputFileError) Error() string {
	return fmt.Sprintf("input file %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *InputFileError) Unwrap() error {
	return e.Err
}
