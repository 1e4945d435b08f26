package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/nao1215/cmsfinger/internal/config"
	"github.com/nao1215/cmsfinger/internal/report"
)

// TestNewRootCmd tests the root command creation.
func TestNewRootCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "cmsfinger" {
			t.Errorf("expected use 'cmsfinger', got %q", cmd.Use)
		}
	})

	t.Run("has descriptions", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" || cmd.Long == "" {
			t.Error("expected non-empty short and long descriptions")
		}
	})

	t.Run("has version", func(t *testing.T) {
		t.Parallel()
		if cmd.Version == "" {
			t.Error("expected non-empty version")
		}
	})

	t.Run("has verbose flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.PersistentFlags().Lookup("verbose")
		if flag == nil {
			t.Fatal("expected verbose flag")
		}
		if flag.Shorthand != "v" {
			t.Errorf("expected shorthand 'v', got %q", flag.Shorthand)
		}
		if flag.DefValue != "false" {
			t.Errorf("expected default 'false', got %q", flag.DefValue)
		}
	})

	t.Run("has subcommands", func(t *testing.T) {
		t.Parallel()
		want := map[string]bool{
			"scan":          false,
			"list":          false,
			"history [url]": false,
			"init":          false,
			"version":       false,
		}
		for _, sub := range cmd.Commands() {
			if _, ok := want[sub.Use]; ok {
				want[sub.Use] = true
			}
		}
		for use, found := range want {
			if !found {
				t.Errorf("expected %q subcommand", use)
			}
		}
	})

	t.Run("silences usage and errors", func(t *testing.T) {
		t.Parallel()
		if !cmd.SilenceUsage {
			t.Error("expected SilenceUsage to be true")
		}
		if !cmd.SilenceErrors {
			t.Error("expected SilenceErrors to be true")
		}
	})
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{
			name: "nil",
			err:  nil,
			want: exitOK,
		},
		{
			name: "configuration error",
			err:  fmt.Errorf("configuration error: %w", config.ErrNoTarget),
			want: exitUsage,
		},
		{
			name: "input file error",
			err:  &config.InputFileError{Path: "urls.txt", Err: os.ErrNotExist},
			want: exitIOError,
		},
		{
			name: "output file error",
			err:  &report.OutputFileError{Path: "out.txt", Op: "open", Err: os.ErrPermission},
			want: exitIOError,
		},
		{
			name: "disabled sink",
			err:  fmt.Errorf("%w: disk full", report.ErrSinkDisabled),
			want: exitIOError,
		},
		{
			name: "rule file missing",
			err: fmt.Errorf("failed to load fingerprints: %w",
				&os.PathError{Op: "open", Path: "rules.yaml", Err: os.ErrNotExist}),
			want: exitIOError,
		},
		{
			name: "interrupted scan",
			err:  fmt.Errorf("scan interrupted: %w", context.Canceled),
			want: exitInterrupted,
		},
		{
			name: "other error",
			err:  errors.New("boom"),
			want: exitUsage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
