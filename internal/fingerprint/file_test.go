package fingerprint

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/nao1215/cmsfinger/internal/extract"
	"github.com/nao1215/cmsfinger/internal/model"
)

const sampleRules = `
fingerprints:
  - name: ExampleCMS
    rules:
      - location: body
        matcher: contains
        keywords: ["Powered by ExampleCMS"]
      - location: title
        matcher: regex
        keywords: ["^example", "admin$"]
  - name: HeaderCMS
    rules:
      - location: powered_by
        keywords: ["headercms"]
`

func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("compiles rules", func(t *testing.T) {
		t.Parallel()

		fps, err := Load(strings.NewReader(sampleRules))
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if len(fps) != 2 {
			t.Fatalf("expected 2 fingerprints, got %d", len(fps))
		}

		tests := []struct {
			name    string
			signals model.Signals
			want    []string
		}{
			{name: "keyword lower-cased", signals: model.Signals{Body: "powered by examplecms"}, want: []string{"ExampleCMS"}},
			{name: "regex keywords are ANDed", signals: model.Signals{Title: "example admin"}, want: []string{"ExampleCMS"}},
			{name: "regex partial", signals: model.Signals{Title: "example site"}, want: []string{}},
			{name: "default matcher is contains", signals: model.Signals{PoweredBy: "headercms/1.0"}, want: []string{"HeaderCMS"}},
		}
		for _, tt := range tests {
			if got := Match(tt.signals, fps); !slices.Equal(got, tt.want) {
				t.Errorf("%s: Match() = %v, want %v", tt.name, got, tt.want)
			}
		}
	})

	t.Run("keywords fold like extracted signals", func(t *testing.T) {
		t.Parallel()

		input := "fingerprints:\n  - name: OdosCMS\n    rules:\n      - location: body\n        keywords: [\"ΟΔΟΣ CMS\"]\n"
		fps, err := Load(strings.NewReader(input))
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}

		s := extract.Extract("<p>Powered by ΟΔΟΣ CMS</p>", nil, "")
		if got := Match(s, fps); !slices.Equal(got, []string{"OdosCMS"}) {
			t.Errorf("Match() = %v, want [OdosCMS] (body %q)", got, s.Body)
		}
	})

	t.Run("empty document", func(t *testing.T) {
		t.Parallel()

		fps, err := Load(strings.NewReader(""))
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if len(fps) != 0 {
			t.Errorf("expected no fingerprints, got %d", len(fps))
		}
	})

	t.Run("invalid documents", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name    string
			input   string
			wantErr error
		}{
			{
				name:    "bad location",
				input:   "fingerprints:\n  - name: X\n    rules:\n      - location: cookie\n        keywords: [a]\n",
				wantErr: ErrInvalidLocation,
			},
			{
				name:    "bad matcher",
				input:   "fingerprints:\n  - name: X\n    rules:\n      - location: body\n        matcher: glob\n        keywords: [a]\n",
				wantErr: ErrInvalidMatcher,
			},
			{
				name:    "no keywords",
				input:   "fingerprints:\n  - name: X\n    rules:\n      - location: body\n",
				wantErr: ErrNoKeywords,
			},
			{
				name:    "no rules",
				input:   "fingerprints:\n  - name: X\n",
				wantErr: ErrNoRules,
			},
			{
				name:    "no name",
				input:   "fingerprints:\n  - rules:\n      - location: body\n        keywords: [a]\n",
				wantErr: ErrEmptyName,
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()

				_, err := Load(strings.NewReader(tt.input))
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Load() error = %v, want %v", err, tt.wantErr)
				}
			})
		}
	})

	t.Run("invalid regex", func(t *testing.T) {
		t.Parallel()

		input := "fingerprints:\n  - name: X\n    rules:\n      - location: body\n        matcher: regex\n        keywords: [\"(\"]\n"
		if _, err := Load(strings.NewReader(input)); err == nil {
			t.Error("expected error for invalid regex")
		}
	})

	t.Run("malformed yaml", func(t *testing.T) {
		t.Parallel()

		if _, err := Load(strings.NewReader("fingerprints: [")); err == nil {
			t.Error("expected parse error")
		}
	})
}

func TestRegisterFile(t *testing.T) {
	t.Parallel()

	t.Run("adds fingerprints after built-ins", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "rules.yaml")
		if err := os.WriteFile(path, []byte(sampleRules), 0o600); err != nil {
			t.Fatal(err)
		}

		r := Default()
		before := r.Len()
		n, err := RegisterFile(r, path)
		if err != nil {
			t.Fatalf("RegisterFile() error = %v", err)
		}
		if n != 2 || r.Len() != before+2 {
			t.Errorf("expected 2 new fingerprints, got n=%d len=%d", n, r.Len())
		}
		names := r.Names()
		if names[len(names)-1] != "HeaderCMS" {
			t.Errorf("last name = %q, want HeaderCMS", names[len(names)-1])
		}
	})

	t.Run("duplicate of built-in", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "rules.yaml")
		content := "fingerprints:\n  - name: PhpCMS\n    rules:\n      - location: body\n        keywords: [x]\n"
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}

		_, err := RegisterFile(Default(), path)
		if !errors.Is(err, ErrDuplicateName) {
			t.Errorf("expected ErrDuplicateName, got %v", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := RegisterFile(NewRegistry(), filepath.Join(t.TempDir(), "none.yaml"))
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("expected not-exist error, got %v", err)
		}
	})
}
