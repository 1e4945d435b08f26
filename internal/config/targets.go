package config

import (
	"bufio"
	"io"
	"os"
	"strings"
)

// ReadTargets reads the newline-delimited target list at path.
// Surrounding whitespace is trimmed; blank lines and lines starting with
// '#' are skipped. Duplicates are kept. Errors are *InputFileError.
func ReadTargets(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided input path is intentional
	if err != nil {
		return nil, &InputFileError{Path: path, Err: err}
	}
	defer f.Close()

	targets, err := ParseTargets(f)
	if err != nil {
		return nil, &InputFileError{Path: path, Err: err}
	}
	return targets, nil
}

// ParseTargets reads targets from r using the rules of ReadTargets.
func ParseTargets(r io.Reader) ([]string, error) {
	targets := make([]string, 0)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		targets = append(targets, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return targets, nil
}
