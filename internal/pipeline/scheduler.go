package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/cmsfinger/internal/model"
)

// DefaultConcurrency is the default number of targets scanned at once.
const DefaultConcurrency = 10

// TargetScanner scans one target. *Scanner implements it.
type TargetScanner interface {
	ScanTarget(ctx context.Context, target string) model.ScanResult
}

// Scheduler scans many targets concurrently with a bounded pool.
// Duplicate targets are scanned as many times as they appear.
type Scheduler struct {
	scanner     TargetScanner
	concurrency int
	logger      *slog.Logger
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithSchedulerLogger sets a custom logger for batch processing.
func WithSchedulerLogger(logger *slog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent scans.
// Values below 1 are ignored.
func WithConcurrency(n int) SchedulerOption {
	return func(s *Scheduler) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// NewScheduler creates a Scheduler that scans with scanner.
func NewScheduler(scanner TargetScanner, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		scanner:     scanner,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Concurrency returns the pool size.
func (s *Scheduler) Concurrency() int {
	return s.concurrency
}

// Run scans every target and calls callback once per target in completion
// order. Calls to callback never overlap. A failing target never affects
// its siblings; Run only returns an error when ctx is cancelled, in which
// case targets not yet started are skipped.
func (s *Scheduler) Run(ctx context.Context, targets []string, callback func(model.ScanResult)) error {
	if len(targets) == 0 {
		return nil
	}

	s.logger.Debug("starting batch",
		"total_targets", len(targets),
		"concurrency", s.concurrency,
	)
	startTime := time.Now()

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, target := range targets {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			result := s.scanner.ScanTarget(ctx, target)

			mu.Lock()
			defer mu.Unlock()
			if callback != nil {
				callback(result)
			}
			return nil
		})
	}

	err := g.Wait()

	s.logger.Debug("batch complete",
		"total_targets", len(targets),
		"elapsed", time.Since(startTime),
	)
	return err
}
