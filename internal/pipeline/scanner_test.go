package pipeline

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nao1215/cmsfinger/internal/fetch"
	"github.com/nao1215/cmsfinger/internal/fingerprint"
	"github.com/nao1215/cmsfinger/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestScanner(t *testing.T, logger *slog.Logger, opts ...ScannerOption) *Scanner {
	t.Helper()

	client, err := fetch.NewHTTPClient(fetch.ClientOptions{Timeout: time.Second})
	if err != nil {
		t.Fatalf("NewHTTPClient() error = %v", err)
	}
	fetcher := fetch.NewFetcher(client,
		fetch.WithMaxRetries(2),
		fetch.WithSleep(func(context.Context, time.Duration) error { return nil }),
		fetch.WithFetchLogger(logger),
	)
	return NewScanner(fetcher, fingerprint.Default(), append([]ScannerOption{WithScannerLogger(logger)}, opts...)...)
}

func serve(body string, header map[string]string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		for k, v := range header {
			w.Header().Set(k, v)
		}
		_, _ = io.WriteString(w, body)
	}))
}

func TestScanTarget(t *testing.T) {
	t.Parallel()

	t.Run("mixed case phpcms page", func(t *testing.T) {
		t.Parallel()

		srv := serve(`<html><head><meta name="generator" content="PhpCMS"></head><body>Powered By PHPCMS</body></html>`, nil)
		defer srv.Close()

		r := newTestScanner(t, discardLogger()).ScanTarget(context.Background(), srv.URL)

		if !slices.Equal(r.Matches, []string{"PhpCMS"}) {
			t.Errorf("Matches = %v, want [PhpCMS]", r.Matches)
		}
		if r.URL != srv.URL {
			t.Errorf("URL = %q, want %q", r.URL, srv.URL)
		}
		if r.Attempts != 1 {
			t.Errorf("Attempts = %d, want 1", r.Attempts)
		}
		if r.BodyDigest == "" {
			t.Error("expected body digest")
		}
	})

	t.Run("entity-encoded markers match", func(t *testing.T) {
		t.Parallel()

		srv := serve(`<p>link: &lt;a href=&quot;http://www.phpcms.cn&quot;&gt;</p>`, nil)
		defer srv.Close()

		r := newTestScanner(t, discardLogger()).ScanTarget(context.Background(), srv.URL)
		if !slices.Equal(r.Matches, []string{"PhpCMS"}) {
			t.Errorf("Matches = %v, want [PhpCMS]", r.Matches)
		}
	})

	t.Run("x-powered-by header match", func(t *testing.T) {
		t.Parallel()

		srv := serve("<html></html>", map[string]string{"X-Powered-By": "Drupal"})
		defer srv.Close()

		r := newTestScanner(t, discardLogger()).ScanTarget(context.Background(), srv.URL)
		if !slices.Equal(r.Matches, []string{"Drupal"}) {
			t.Errorf("Matches = %v, want [Drupal]", r.Matches)
		}
	})

	t.Run("empty body has no matches", func(t *testing.T) {
		t.Parallel()

		srv := serve("", nil)
		defer srv.Close()

		r := newTestScanner(t, discardLogger()).ScanTarget(context.Background(), srv.URL)
		if r.HasMatches() {
			t.Errorf("Matches = %v, want none", r.Matches)
		}
		if r.Matches == nil {
			t.Error("Matches must not be nil")
		}
	})

	t.Run("gbk encoded title", func(t *testing.T) {
		t.Parallel()

		// "phpcms(盛大)" with the Chinese characters in GBK.
		title := append([]byte("<title>PhpCMS("), 0xca, 0xa2, 0xb4, 0xf3, ')')
		body := append(title, []byte("</title>")...)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=gbk")
			_, _ = w.Write(body)
		}))
		defer srv.Close()

		r := newTestScanner(t, discardLogger()).ScanTarget(context.Background(), srv.URL)
		if !slices.Equal(r.Matches, []string{"PhpCMS"}) {
			t.Errorf("Matches = %v, want [PhpCMS]", r.Matches)
		}
	})

	t.Run("unreachable target logs a warning", func(t *testing.T) {
		t.Parallel()

		srv := serve("", nil)
		addr := srv.URL
		srv.Close()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))

		r := newTestScanner(t, logger).ScanTarget(context.Background(), addr)
		if r.HasMatches() {
			t.Errorf("Matches = %v, want none", r.Matches)
		}
		if r.Attempts != 2 {
			t.Errorf("Attempts = %d, want 2", r.Attempts)
		}
		if !strings.Contains(buf.String(), "target unreachable, reporting no matches") {
			t.Errorf("expected warning, got %q", buf.String())
		}
	})

	t.Run("no warning for a page without matches", func(t *testing.T) {
		t.Parallel()

		srv := serve("<html>nothing here</html>", nil)
		defer srv.Close()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))

		newTestScanner(t, logger).ScanTarget(context.Background(), srv.URL)
		if buf.Len() != 0 {
			t.Errorf("unexpected log output %q", buf.String())
		}
	})

	t.Run("scheme is added to bare hosts", func(t *testing.T) {
		t.Parallel()

		srv := serve("powered by phpcms", nil)
		defer srv.Close()

		bare := strings.TrimPrefix(srv.URL, "http://")
		r := newTestScanner(t, discardLogger()).ScanTarget(context.Background(), bare)
		if r.URL != srv.URL {
			t.Errorf("URL = %q, want %q", r.URL, srv.URL)
		}
		if !r.HasMatches() {
			t.Error("expected a match")
		}
	})
}

func TestScanTargetHTTPSFallback(t *testing.T) {
	t.Parallel()

	t.Run("reports the upgraded URL", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, "/wp-content/themes/twentytwenty/style.css")
		}))
		defer srv.Close()

		httpURL := "http://" + strings.TrimPrefix(srv.URL, "https://")
		r := newTestScanner(t, discardLogger(), WithHTTPSFallback(true)).ScanTarget(context.Background(), httpURL)

		if r.URL != srv.URL {
			t.Errorf("URL = %q, want %q", r.URL, srv.URL)
		}
		if !slices.Equal(r.Matches, []string{"WordPress"}) {
			t.Errorf("Matches = %v, want [WordPress]", r.Matches)
		}
	})

	t.Run("disabled fallback keeps the http URL", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, "/wp-content/themes/x/style.css")
		}))
		defer srv.Close()

		httpURL := "http://" + strings.TrimPrefix(srv.URL, "https://")
		r := newTestScanner(t, discardLogger()).ScanTarget(context.Background(), httpURL)

		if r.URL != httpURL {
			t.Errorf("URL = %q, want %q", r.URL, httpURL)
		}
		if r.HasMatches() {
			t.Errorf("Matches = %v, want none", r.Matches)
		}
	})

	t.Run("fallback is skipped when http matched", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			hits.Add(1)
			_, _ = io.WriteString(w, "powered by phpcms")
		}))
		defer srv.Close()

		r := newTestScanner(t, discardLogger(), WithHTTPSFallback(true)).ScanTarget(context.Background(), srv.URL)
		if r.URL != srv.URL || !r.HasMatches() {
			t.Errorf("unexpected result %+v", r)
		}
		if hits.Load() != 1 {
			t.Errorf("expected 1 request, got %d", hits.Load())
		}
	})
}

func TestSteps(t *testing.T) {
	t.Parallel()

	t.Run("extract without response", func(t *testing.T) {
		t.Parallel()

		if err := NewExtractStep().Do(context.Background(), NewScan("http://x")); err == nil {
			t.Error("expected ErrNoResponse")
		}
	})

	t.Run("match uses signals", func(t *testing.T) {
		t.Parallel()

		scan := NewScan("http://x")
		scan.Signals = model.Signals{Body: "drupal.settings"}
		if err := NewMatchStep(fingerprint.Default()).Do(context.Background(), scan); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !slices.Equal(scan.Result.Matches, []string{"Drupal"}) {
			t.Errorf("Matches = %v", scan.Result.Matches)
		}
	})

	t.Run("match without registry", func(t *testing.T) {
		t.Parallel()

		if err := NewMatchStep(nil).Do(context.Background(), NewScan("http://x")); err == nil {
			t.Error("expected error")
		}
	})
}
