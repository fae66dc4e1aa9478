package pipeline

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"os"

	"github.com/couchcryptid/ndvi-forecast/internal/observability"
	"github.com/jonboulle/clockwork"
)

// TaskSource yields the tasks for one run.
type TaskSource interface {
	Tasks() iter.Seq2[Task, error]
}

// FailureRecorder persists the names of failed source files.
type FailureRecorder interface {
	Append(names []string) error
}

// Reporter is told about every outcome as it happens, e.g. to drive a
// progress bar.
type Reporter interface {
	Report(o Outcome)
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithClock sets the clock used to time conversions.
func WithClock(c clockwork.Clock) Option {
	return func(p *Pipeline) { p.clock = c }
}

// WithReporter attaches a progress reporter.
func WithReporter(r Reporter) Option {
	return func(p *Pipeline) { p.reporter = r }
}

// Pipeline converts every pending granule in one sequential pass.
type Pipeline struct {
	source    TaskSource
	converter Converter
	failures  FailureRecorder
	outputDir string
	reporter  Reporter
	logger    *slog.Logger
	metrics   *observability.Metrics
	clock     clockwork.Clock
}

// New creates a Pipeline with the given stages and observability.
func New(source TaskSource, converter Converter, failures FailureRecorder, outputDir string, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Pipeline {
	p := &Pipeline{
		source:    source,
		converter: converter,
		failures:  failures,
		outputDir: outputDir,
		logger:    logger,
		metrics:   metrics,
		clock:     clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run converts each task in turn. A failed file never aborts the batch.
// Cancellation is checked between files only. The failure log is appended
// at the end of every run that got past output-dir creation, including
// interrupted runs and runs whose scan failed.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	var summary Summary
	if err := os.MkdirAll(p.outputDir, 0o755); err != nil {
		return summary, fmt.Errorf("create output dir: %w", err)
	}

	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)
	p.logger.Info("conversion started", "output_dir", p.outputDir)
	start := p.clock.Now()

	var runErr error
	for task, err := range p.source.Tasks() {
		if err != nil {
			runErr = fmt.Errorf("scan source dir: %w", err)
			break
		}
		if ctx.Err() != nil {
			runErr = fmt.Errorf("conversion interrupted: %w", ctx.Err())
			break
		}
		summary.add(p.convert(ctx, task))
	}

	names := make([]string, len(summary.Failures))
	for i, o := range summary.Failures {
		names[i] = o.Task.Name()
	}
	if err := p.failures.Append(names); err != nil {
		runErr = errors.Join(runErr, fmt.Errorf("write failure log: %w", err))
	}
	p.metrics.LastRunFailures.Set(float64(summary.Failed))

	p.logger.Info("conversion finished",
		"succeeded", summary.Succeeded,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"duration", p.clock.Since(start),
	)
	return summary, runErr
}

func (p *Pipeline) convert(ctx context.Context, task Task) Outcome {
	start := p.clock.Now()
	o := p.converter.Convert(ctx, task)
	o.Duration = p.clock.Since(start)

	p.metrics.Conversions.WithLabelValues(string(o.Status)).Inc()
	switch o.Status {
	case StatusSucceeded:
		p.metrics.ConversionDuration.Observe(o.Duration.Seconds())
		p.logger.Info("converted", "source", task.Source, "output", task.Output, "duration", o.Duration)
	case StatusSkipped:
		p.logger.Info("already converted, skipping", "source", task.Source)
	case StatusFailed:
		p.metrics.ConversionDuration.Observe(o.Duration.Seconds())
		p.logger.Warn("conversion failed", "source", task.Source, "diagnostic", o.Diagnostic)
	}

	if p.reporter != nil {
		p.reporter.Report(o)
	}
	return o
}
