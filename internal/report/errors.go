package report

import (
	"errors"
	"fmt"
)

var (
	// ErrSinkDisabled is returned by a StreamSink after a write failed.
	// No further lines are written once it has been returned.
	ErrSinkDisabled = errors.New("output sink disabled after write error")

	// ErrInvalidOutputMode is returned for an unknown output mode name.
	ErrInvalidOutputMode = errors.New("invalid output mode: must be streaming or batch")

	// ErrSinkClosed is returned when a result is added to a closed sink.
	ErrSinkClosed = errors.New("output sink closed")
)

// OutputFileError describes a failed operation on the output file.
type OutputFileError struct {
	// Path is the output file path.
	Path string

	// Op is the failed operation, such as "open", "write" or "rename".
	Op string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *OutputFileError) Error() string {
	return fmt.Sprintf("output file %s: %s: %v", e.Path, e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *OutputFileError) Unwrap() error {
	return e.Err
}
