package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/cmsfinger/internal/fetch"
	"github.com/nao1215/cmsfinger/internal/fingerprint"
	"github.com/nao1215/cmsfinger/internal/model"
)

// Scanner fingerprints one target at a time.
// A Scanner is safe for concurrent use.
type Scanner struct {
	fetcher       Fetcher
	registry      *fingerprint.Registry
	httpsFallback bool
	logger        *slog.Logger
}

// ScannerOption configures a Scanner.
type ScannerOption func(*Scanner)

// WithHTTPSFallback retries http:// targets that produced no match
// under https://.
func WithHTTPSFallback(enabled bool) ScannerOption {
	return func(s *Scanner) {
		s.httpsFallback = enabled
	}
}

// WithScannerLogger sets the logger for scan diagnostics.
func WithScannerLogger(logger *slog.Logger) ScannerOption {
	return func(s *Scanner) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewScanner creates a Scanner that fetches with fetcher and matches
// against registry.
func NewScanner(fetcher Fetcher, registry *fingerprint.Registry, opts ...ScannerOption) *Scanner {
	s := &Scanner{
		fetcher:  fetcher,
		registry: registry,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// newPipeline builds the fetch, extract and match pipeline.
func (s *Scanner) newPipeline() *Pipeline {
	p := New(WithLogger(s.logger))
	p.AddSteps(
		NewFetchStep(s.fetcher),
		NewExtractStep(),
		NewMatchStep(s.registry),
	)
	return p
}

func (s *Scanner) run(ctx context.Context, target string) (*Scan, error) {
	scan := NewScan(target)
	err := s.newPipeline().Execute(ctx, scan)
	return scan, err
}

// ScanTarget fingerprints target and never fails: a target that could not
// be fetched yields a result without matches. Such failures are logged
// at warn level so they can be told apart from pages that matched nothing.
//
// With the HTTPS fallback enabled, an http:// target without matches is
// scanned again as https://. When that second fetch succeeds its result,
// carrying the https:// URL, is returned instead.
func (s *Scanner) ScanTarget(ctx context.Context, target string) model.ScanResult {
	target = fetch.EnsureProtocol(target)

	scan, err := s.run(ctx, target)
	if s.httpsFallback && !scan.Result.HasMatches() && ctx.Err() == nil {
		if upgraded, ok := fetch.UpgradeScheme(target); ok {
			s.logger.Debug("no match over http, trying https", "url", target, "https_url", upgraded)
			second, secondErr := s.run(ctx, upgraded)
			if secondErr == nil {
				scan, err = second, nil
			}
		}
	}

	if err != nil && ctx.Err() == nil {
		s.logger.Warn("target unreachable, reporting no matches",
			"url", target,
			"attempts", scan.Result.Attempts,
			"error", err,
		)
	}

	result := scan.Result
	if result.Matches == nil {
		result.Matches = []string{}
	}
	result.ScannedAt = time.Now()
	return result
}
