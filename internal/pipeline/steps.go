package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/nao1215/cmsfinger/internal/extract"
	"github.com/nao1215/cmsfinger/internal/fetch"
	"github.com/nao1215/cmsfinger/internal/fingerprint"
	"github.com/nao1215/cmsfinger/internal/model"
)

// ErrNoResponse is returned by steps that need a response when the fetch
// step did not produce one.
var ErrNoResponse = errors.New("no response to process")

// Fetcher retrieves one URL. *fetch.Fetcher implements it.
type Fetcher interface {
	Fetch(ctx context.Context, target string) fetch.Result
}

// FetchStep retrieves the target.
type FetchStep struct {
	fetcher Fetcher
}

// NewFetchStep creates a FetchStep that uses fetcher.
func NewFetchStep(fetcher Fetcher) *FetchStep {
	return &FetchStep{fetcher: fetcher}
}

// Name implements Step.
func (s *FetchStep) Name() string {
	return "fetch"
}

// Do implements Step. A failed fetch is returned as an error so that
// later steps do not run.
func (s *FetchStep) Do(ctx context.Context, scan *Scan) error {
	scan.Fetch = s.fetcher.Fetch(ctx, scan.Target)
	scan.Result.Attempts = scan.Fetch.Attempts
	if !scan.Fetch.OK() {
		if scan.Fetch.Err != nil {
			return scan.Fetch.Err
		}
		return ErrNoResponse
	}
	scan.Result.URL = scan.Fetch.Response.URL
	return nil
}

// ExtractStep derives the signals from the fetched response.
type ExtractStep struct{}

// NewExtractStep creates an ExtractStep.
func NewExtractStep() *ExtractStep {
	return &ExtractStep{}
}

// Name implements Step.
func (s *ExtractStep) Name() string {
	return "extract"
}

// Do implements Step. The body is converted to UTF-8 according to its
// declared charset; undecodable bodies are used as received.
func (s *ExtractStep) Do(_ context.Context, scan *Scan) error {
	resp := scan.Fetch.Response
	if resp == nil {
		return ErrNoResponse
	}

	body, err := extract.Decode(bytes.NewReader(resp.Body), resp.Header.Get("Content-Type"))
	if err != nil {
		body = string(resp.Body)
	}

	scan.Signals = extract.Extract(body, resp.Header, resp.RequestUserAgent)
	scan.Result.BodyDigest = model.DigestBody(resp.Body)
	return nil
}

// MatchStep evaluates the fingerprint registry against the signals.
type MatchStep struct {
	registry *fingerprint.Registry
}

// NewMatchStep creates a MatchStep for registry.
func NewMatchStep(registry *fingerprint.Registry) *MatchStep {
	return &MatchStep{registry: registry}
}

// Name implements Step.
func (s *MatchStep) Name() string {
	return "match"
}

// Do implements Step.
func (s *MatchStep) Do(_ context.Context, scan *Scan) error {
	if s.registry == nil {
		return fmt.Errorf("match step: %w", errNilRegistry)
	}
	scan.Result.Matches = s.registry.Match(scan.Signals)
	return nil
}

var errNilRegistry = errors.New("nil fingerprint registry")
