package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

// Default fetcher settings.
const (
	// DefaultMaxRetries is the default total number of attempts.
	DefaultMaxRetries = 3

	// DefaultBackoff is the delay before the second attempt.
	// It doubles after every further failure.
	DefaultBackoff = time.Second

	// DefaultMaxBodySize is the number of body bytes read per response.
	DefaultMaxBodySize int64 = 5 * 1024 * 1024
)

// Response is a successfully received HTTP response.
type Response struct {
	// URL is the URL that was requested.
	URL string

	// StatusCode is the HTTP status of the final response.
	StatusCode int

	// Header holds the response headers.
	Header http.Header

	// Body is the raw response body, truncated to the fetcher's size limit.
	Body []byte

	// RequestUserAgent is the User-Agent sent with the successful attempt.
	RequestUserAgent string
}

// Result is the outcome of Fetch. Exactly one of Response and Err is set.
type Result struct {
	Response *Response
	Err      error

	// Attempts is the number of attempts made, successful or not.
	Attempts int
}

// OK reports whether a response was received.
func (r Result) OK() bool {
	return r.Err == nil && r.Response != nil
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Fetcher performs GET requests with retry and exponential backoff.
// A Fetcher is safe for concurrent use.
type Fetcher struct {
	client      *http.Client
	maxRetries  int
	backoff     time.Duration
	sleep       SleepFunc
	userAgents  []string
	maxBodySize int64
	limiter     *rate.Limiter
	logger      *slog.Logger
}

// FetchOption configures a Fetcher.
type FetchOption func(*Fetcher)

// WithMaxRetries sets the total number of attempts. Values below 1 mean one attempt.
func WithMaxRetries(n int) FetchOption {
	return func(f *Fetcher) {
		f.maxRetries = n
	}
}

// WithBackoff sets the delay before the second attempt.
func WithBackoff(d time.Duration) FetchOption {
	return func(f *Fetcher) {
		f.backoff = d
	}
}

// WithSleep replaces the function used to wait between attempts.
func WithSleep(fn SleepFunc) FetchOption {
	return func(f *Fetcher) {
		if fn != nil {
			f.sleep = fn
		}
	}
}

// WithUserAgents replaces the User-Agent pool.
func WithUserAgents(agents []string) FetchOption {
	return func(f *Fetcher) {
		if len(agents) > 0 {
			f.userAgents = agents
		}
	}
}

// WithMaxBodySize limits how many body bytes are read.
func WithMaxBodySize(n int64) FetchOption {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBodySize = n
		}
	}
}

// WithLimiter makes every attempt wait on l first.
func WithLimiter(l *rate.Limiter) FetchOption {
	return func(f *Fetcher) {
		f.limiter = l
	}
}

// WithFetchLogger sets the logger for retry diagnostics.
func WithFetchLogger(logger *slog.Logger) FetchOption {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewFetcher creates a Fetcher that sends requests with client.
func NewFetcher(client *http.Client, opts ...FetchOption) *Fetcher {
	f := &Fetcher{
		client:      client,
		maxRetries:  DefaultMaxRetries,
		backoff:     DefaultBackoff,
		sleep:       sleepContext,
		userAgents:  DefaultUserAgents,
		maxBodySize: DefaultMaxBodySize,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Attempts returns the total number of attempts Fetch makes for a URL
// that never answers.
func (f *Fetcher) Attempts() int {
	return max(f.maxRetries, 1)
}

// Fetch requests target until a response arrives or all attempts fail.
// The scheme is normalized with EnsureProtocol first. Between failed
// attempts it sleeps 1x, 2x, 4x ... the backoff; it never sleeps after the
// last attempt. Fetch does not panic and returns all failures in Result.Err.
func (f *Fetcher) Fetch(ctx context.Context, target string) Result {
	target = EnsureProtocol(target)
	if u, err := url.Parse(target); err != nil || u.Host == "" {
		return Result{Err: fmt.Errorf("%w: %q", ErrInvalidURL, target)}
	}

	attempts := f.Attempts()
	delay := f.backoff

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if f.limiter != nil {
			if err := f.limiter.Wait(ctx); err != nil {
				return Result{Err: fmt.Errorf("rate limiter: %w", err), Attempts: attempt - 1}
			}
		}

		resp, err := f.once(ctx, target)
		if err == nil {
			return Result{Response: resp, Attempts: attempt}
		}

		lastErr = &NetworkError{URL: target, Attempt: attempt, Err: err}
		if ctx.Err() != nil {
			return Result{Err: fmt.Errorf("%w: %w", ErrRetriesExhausted, lastErr), Attempts: attempt}
		}
		if attempt == attempts {
			break
		}

		f.logger.Debug("fetch failed, retrying",
			"url", target,
			"attempt", attempt,
			"max_attempts", attempts,
			"backoff", delay,
			"error", err,
		)
		if err := f.sleep(ctx, delay); err != nil {
			return Result{Err: fmt.Errorf("%w: %w", ErrRetriesExhausted, lastErr), Attempts: attempt}
		}
		delay *= 2
	}

	f.logger.Debug("fetch failed", "url", target, "attempts", attempts, "error", lastErr)
	return Result{Err: fmt.Errorf("%w: %w", ErrRetriesExhausted, lastErr), Attempts: attempts}
}

// once performs a single GET.
func (f *Fetcher) once(ctx context.Context, target string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	ua := pickUserAgent(f.userAgents)
	req.Header.Set("User-Agent", ua)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	return &Response{
		URL:              target,
		StatusCode:       resp.StatusCode,
		Header:           resp.Header,
		Body:             body,
		RequestUserAgent: ua,
	}, nil
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
