package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/cmsfinger/internal/fingerprint"
)

func TestListCmd(t *testing.T) {
	t.Parallel()

	t.Run("built-in fingerprints", func(t *testing.T) {
		t.Parallel()

		var stdout, stderr bytes.Buffer
		code := run([]string{"list", "--config", emptyConfig(t)}, &stdout, &stderr)
		if code != exitOK {
			t.Fatalf("exit code = %d, stderr: %s", code, stderr.String())
		}

		output := stdout.String()
		names := fingerprint.Default().Names()
		if !strings.Contains(output, "Built-in fingerprints") {
			t.Errorf("expected heading, got %q", output)
		}
		for _, name := range names {
			if !strings.Contains(output, "  "+name+"\n") {
				t.Errorf("expected %s in output, got %q", name, output)
			}
		}
	})

	t.Run("rule file from config", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		rules := `fingerprints:
  - name: ExampleCMS
    rules:
      - location: body
        keywords: ["examplecms"]
`
		if err := os.WriteFile(filepath.Join(dir, "rules.yaml"), []byte(rules), 0600); err != nil {
			t.Fatal(err)
		}
		configPath := filepath.Join(dir, ".cmsfinger")
		if err := os.WriteFile(configPath, []byte("fingerprints:\n  - rules.yaml\n"), 0600); err != nil {
			t.Fatal(err)
		}

		var stdout, stderr bytes.Buffer
		code := run([]string{"list", "--config", configPath}, &stdout, &stderr)
		if code != exitOK {
			t.Fatalf("exit code = %d, stderr: %s", code, stderr.String())
		}
		if !strings.Contains(stdout.String(), "  ExampleCMS\n") {
			t.Errorf("expected ExampleCMS in output, got %q", stdout.String())
		}
		if !strings.Contains(stdout.String(), filepath.Join(dir, "rules.yaml")+" (1)") {
			t.Errorf("expected rule file heading, got %q", stdout.String())
		}
	})

	t.Run("duplicate name is rejected", func(t *testing.T) {
		t.Parallel()
		rules := filepath.Join(t.TempDir(), "rules.yaml")
		content := `fingerprints:
  - name: WordPress
    rules:
      - location: body
        keywords: ["wp"]
`
		if err := os.WriteFile(rules, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}

		var stdout, stderr bytes.Buffer
		code := run([]string{"list", "--config", emptyConfig(t), "-f", rules}, &stdout, &stderr)
		if code != exitUsage {
			t.Errorf("exit code = %d, want %d", code, exitUsage)
		}
		if !strings.Contains(stderr.String(), "WordPress") {
			t.Errorf("expected duplicate name in error, got %q", stderr.String())
		}
	})
}
