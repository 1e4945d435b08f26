package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/nao1215/cmsfinger/internal/model"
)

// OutputMode selects how result lines reach the output file.
type OutputMode string

const (
	// ModeStreaming appends each line as soon as it is produced.
	ModeStreaming OutputMode = "streaming"

	// ModeBatch writes all lines once at the end of the run.
	ModeBatch OutputMode = "batch"
)

// ParseOutputMode converts a mode name into an OutputMode.
// The empty string selects ModeStreaming.
func ParseOutputMode(s string) (OutputMode, error) {
	switch OutputMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeStreaming:
		return ModeStreaming, nil
	case ModeBatch:
		return ModeBatch, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidOutputMode, s)
	}
}

// outputFileMode is the permission used for result files.
const outputFileMode = 0o644

// FormatLine renders r as "<url>, <name1>, <name2>".
// It returns "" when r has no matches.
func FormatLine(r model.ScanResult) string {
	if !r.HasMatches() {
		return ""
	}
	return r.URL + ", " + strings.Join(r.Matches, ", ")
}

// Sink receives scan results.
type Sink interface {
	// Add records one result. Results without matches are ignored.
	Add(r model.ScanResult) error

	// Close flushes and releases the sink.
	Close() error
}

// NewSink creates the sink for mode writing to path.
// An empty path yields a sink that discards everything.
func NewSink(mode OutputMode, path string) (Sink, error) {
	if path == "" {
		return Discard{}, nil
	}
	switch mode {
	case ModeBatch:
		return NewBatchSink(path)
	case ModeStreaming, "":
		return NewStreamSink(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidOutputMode, mode)
	}
}

// Discard is a Sink that drops every result.
type Discard struct{}

// Add implements Sink.
func (Discard) Add(model.ScanResult) error { return nil }

// Close implements Sink.
func (Discard) Close() error { return nil }

// StreamSink appends result lines to a file, syncing after each line.
// Existing file content is preserved.
type StreamSink struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	err    error
	closed bool
}

// NewStreamSink opens path for appending, creating it when needed.
func NewStreamSink(path string) (*StreamSink, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, outputFileMode) //nolint:gosec // User-provided output path is intentional
	if err != nil {
		return nil, &OutputFileError{Path: path, Op: "open", Err: err}
	}
	return &StreamSink{path: path, file: f}, nil
}

// Add implements Sink. After the first write failure every call returns
// an error wrapping ErrSinkDisabled and nothing more is written.
func (s *StreamSink) Add(r model.ScanResult) error {
	line := FormatLine(r)
	if line == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}
	if s.closed {
		return ErrSinkClosed
	}

	if _, err := io.WriteString(s.file, line+"\n"); err != nil {
		s.disable("write", err)
		return s.err
	}
	if err := s.file.Sync(); err != nil {
		s.disable("sync", err)
		return s.err
	}
	return nil
}

func (s *StreamSink) disable(op string, err error) {
	s.err = fmt.Errorf("%w: %w", ErrSinkDisabled, &OutputFileError{Path: s.path, Op: op, Err: err})
}

// Close implements Sink. It returns the disabling error, if any, or the
// error from closing the file.
func (s *StreamSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return s.err
	}
	s.closed = true

	closeErr := s.file.Close()
	if s.err != nil {
		return s.err
	}
	if closeErr != nil {
		return &OutputFileError{Path: s.path, Op: "close", Err: closeErr}
	}
	return nil
}

// BatchSink collects result lines and writes them when closed.
// The file is replaced atomically; when no result matched, the file is
// neither created nor modified.
type BatchSink struct {
	mu     sync.Mutex
	path   string
	lines  []string
	closed bool
}

// NewBatchSink creates a BatchSink for path. It fails early when the
// directory of path does not exist.
func NewBatchSink(path string) (*BatchSink, error) {
	dir := filepath.Dir(path)
	info, err := os.Stat(dir)
	if err != nil {
		return nil, &OutputFileError{Path: path, Op: "open", Err: err}
	}
	if !info.IsDir() {
		return nil, &OutputFileError{Path: path, Op: "open", Err: fmt.Errorf("%s is not a directory", dir)}
	}
	return &BatchSink{path: path}, nil
}

// Add implements Sink.
func (s *BatchSink) Add(r model.ScanResult) error {
	line := FormatLine(r)
	if line == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSinkClosed
	}
	s.lines = append(s.lines, line)
	return nil
}

// Close implements Sink by writing the collected lines.
func (s *BatchSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if len(s.lines) == 0 {
		return nil
	}
	return writeFileAtomic(s.path, []byte(strings.Join(s.lines, "\n")+"\n"))
}

// writeFileAtomic writes data to a temporary file next to path and renames
// it over path.
func writeFileAtomic(path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return &OutputFileError{Path: path, Op: "create temp", Err: err}
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return &OutputFileError{Path: path, Op: "write", Err: err}
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return &OutputFileError{Path: path, Op: "sync", Err: err}
	}
	if err = tmp.Close(); err != nil {
		return &OutputFileError{Path: path, Op: "close", Err: err}
	}
	if err = os.Chmod(tmpName, outputFileMode); err != nil {
		return &OutputFileError{Path: path, Op: "chmod", Err: err}
	}
	if err = os.Rename(tmpName, path); err != nil {
		return &OutputFileError{Path: path, Op: "rename", Err: err}
	}
	return nil
}
