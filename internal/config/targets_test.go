package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseTargets(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "empty input",
			input: "",
			want:  []string{},
		},
		{
			name:  "trims whitespace",
			input: "  example.com  \n\thttp://a.test\t\n",
			want:  []string{"example.com", "http://a.test"},
		},
		{
			name:  "skips blank lines and comments",
			input: "# targets\n\nexample.com\n   \n# another\nb.test\n",
			want:  []string{"example.com", "b.test"},
		},
		{
			name:  "keeps duplicates in order",
			input: "b.test\na.test\nb.test\n",
			want:  []string{"b.test", "a.test", "b.test"},
		},
		{
			name:  "crlf line endings",
			input: "a.test\r\nb.test\r\n",
			want:  []string{"a.test", "b.test"},
		},
		{
			name:  "no trailing newline",
			input: "a.test",
			want:  []string{"a.test"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseTargets(strings.NewReader(tt.input))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got == nil {
				t.Fatal("expected non-nil slice")
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("target %d: expected %q, got %q", i, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestReadTargets(t *testing.T) {
	t.Parallel()

	t.Run("reads file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "urls.txt")
		if err := os.WriteFile(path, []byte("a.test\n# skip\nhttps://b.test\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		got, err := ReadTargets(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 2 || got[0] != "a.test" || got[1] != "https://b.test" {
			t.Errorf("unexpected targets %v", got)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "missing.txt")
		_, err := ReadTargets(path)

		var inErr *InputFileError
		if !errors.As(err, &inErr) {
			t.Fatalf("expected *InputFileError, got %T", err)
		}
		if inErr.Path != path {
			t.Errorf("expected path %s, got %s", path, inErr.Path)
		}
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("expected wrapped os.ErrNotExist, got %v", err)
		}
	})
}
