package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/cmsfinger/internal/fetch"
	"github.com/nao1215/cmsfinger/internal/model"
)

// Scan is the state of one target as it moves through a Pipeline.
type Scan struct {
	// Target is the scheme-normalized URL being requested.
	Target string

	// Fetch is the outcome of the fetch step.
	Fetch fetch.Result

	// Signals are derived from Fetch.Response by the extract step.
	Signals model.Signals

	// Result accumulates the scan outcome.
	Result model.ScanResult
}

// NewScan creates the state for scanning target.
func NewScan(target string) *Scan {
	return &Scan{
		Target: target,
		Result: model.NewScanResult(target),
	}
}

// Step is one stage of a Pipeline.
type Step interface {
	// Do executes the step. A returned error stops the pipeline.
	Do(ctx context.Context, scan *Scan) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline executes its steps in order for one Scan.
type Pipeline struct {
	steps  []Step
	logger *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates an empty Pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends a step to the pipeline.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all steps in sequence against scan.
// Cancellation is checked before each step. It returns the first step
// error, or nil when every step succeeded.
func (p *Pipeline) Execute(ctx context.Context, scan *Scan) error {
	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Debug("pipeline cancelled",
				"step", step.Name(),
				"url", scan.Target,
				"reason", ctx.Err(),
			)
			return ctx.Err()
		default:
		}

		p.logger.Debug("executing step", "step", step.Name(), "url", scan.Target)

		if err := step.Do(ctx, scan); err != nil {
			p.logger.Debug("step failed",
				"step", step.Name(),
				"url", scan.Target,
				"error", err,
			)
			return err
		}
	}
	return nil
}
