package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/pageloader/internal/document"
	"github.com/nao1215/pageloader/internal/model"
)

// Job is the working set passed from step to step.
type Job struct {
	// Run is the state of the download.
	Run *model.Run

	// Doc is the parsed page, set by the fetch_page step.
	Doc *document.Document
}

// NewJob creates a Job for pageURL in StateInit.
func NewJob(pageURL, outputDir string) *Job {
	return &Job{Run: model.NewRun(pageURL, outputDir)}
}

// Step is one transition of the download state machine.
type Step interface {
	// Do performs the transition. Any error is fatal to the run.
	Do(ctx context.Context, job *Job) error

	// Name returns the step's name for logging.
	Name() string

	// Target returns the state the run reaches when Do succeeds.
	Target() model.RunState
}

// Pipeline executes steps in order.
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

// New creates an empty Pipeline. Add steps with AddSteps.
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

// Execute runs every step in order against job.
//
// Cancellation is checked before each step. The first error stops the
// pipeline, marks the run as errored and is returned as-is.
func (p *Pipeline) Execute(ctx context.Context, job *Job) error {
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"url", job.Run.PageURL,
				"reason", err,
			)
			job.Run.Fail(err)
			return err
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"url", job.Run.PageURL,
			"state", job.Run.State,
		)

		if err := step.Do(ctx, job); err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"url", job.Run.PageURL,
				"error", err,
			)
			job.Run.Fail(err)
			return err
		}

		job.Run.Advance(step.Target(), step.Name())
	}
	return nil
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
