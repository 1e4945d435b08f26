package report

import (
	"fmt"
	"io"
	"strings"
)

// SimpleWriter renders a summary as plain text, one result per line.
type SimpleWriter struct {
	baseWriter
	showCounts    bool
	showUnmatched bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithCounts appends a per-CMS count section.
func WithCounts(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showCounts = show
	}
}

// WithUnmatched lists results without matches as "<url>, -".
func WithUnmatched(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showUnmatched = show
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write implements Writer.
func (w *SimpleWriter) Write(s *Summary) (int, error) {
	var sb strings.Builder

	for _, r := range s.Results {
		line := FormatLine(r)
		if line == "" {
			if !w.showUnmatched {
				continue
			}
			line = r.URL + ", -"
		}
		fmt.Fprintf(&sb, "%s  %s\n", r.ScannedAt.Format("2006-01-02 15:04:05"), line)
	}

	if w.showCounts {
		counts := s.CountByCMS()
		if len(counts) > 0 {
			sb.WriteString("\n")
		}
		for _, c := range counts {
			fmt.Fprintf(&sb, "%-20s %d\n", c.Name, c.Count)
		}
	}

	fmt.Fprintf(&sb, "%d of %d result(s) matched\n", s.Matched(), s.Targets)

	return io.WriteString(w.output, sb.String())
}
