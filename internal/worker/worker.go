package worker

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"appforge/internal/domain"
	"appforge/internal/infra"
	"appforge/internal/metrics"
	"appforge/internal/pipeline"
)

// Runner executes the stage pipeline for one claimed job.
type Runner interface {
	Run(ctx context.Context, job *domain.GenerationJob, tpl domain.Template) pipeline.State
}

// TemplateSource resolves template ids to seed file maps.
type TemplateSource interface {
	Get(id string) (domain.Template, error)
}

// EventSink receives progress events for live subscribers and releases the
// topic once the job has settled.
type EventSink interface {
	Publish(jobID string, event domain.ProgressEvent)
	Forget(jobID string)
}

// Pool runs N claim loops against the job queue. Each loop claims one job
// at a time, drives it through the pipeline, persists the terminal
// transition and publishes the terminal stream marker. Queue and store
// errors are logged and retried on the next poll; they never stop a loop.
type Pool struct {
	queue     domain.JobQueue
	records   domain.JobRepository
	runner    Runner
	templates TemplateSource
	events    EventSink
	metrics   *metrics.Metrics
	logger    infra.Logger

	size int
	poll time.Duration
}

type Options struct {
	Queue     domain.JobQueue
	Records   domain.JobRepository
	Runner    Runner
	Templates TemplateSource
	Events    EventSink
	Metrics   *metrics.Metrics
	Logger    infra.Logger
	Size      int
	Poll      time.Duration
}

func NewPool(opts Options) *Pool {
	size := opts.Size
	if size <= 0 {
		size = 1
	}
	poll := opts.Poll
	if poll <= 0 {
		poll = 2 * time.Second
	}
	return &Pool{
		queue:     opts.Queue,
		records:   opts.Records,
		runner:    opts.Runner,
		templates: opts.Templates,
		events:    opts.Events,
		metrics:   opts.Metrics,
		logger:    opts.Logger,
		size:      size,
		poll:      poll,
	}
}

// Run blocks until ctx is cancelled and all worker loops have drained. A
// job in flight when shutdown starts is finished, not abandoned; only the
// claim wait is interrupted.
func (p *Pool) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < p.size; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			p.loop(ctx, n)
		}(i)
	}
	wg.Wait()
}

func (p *Pool) loop(ctx context.Context, n int) {
	logger := p.logger.With().Int("worker", n).Logger()
	for {
		if ctx.Err() != nil {
			return
		}

		job, err := p.queue.Claim(ctx)
		if err != nil {
			if errors.Is(err, domain.ErrNoJob) {
				if p.metrics != nil {
					p.metrics.QueueClaimMiss.Inc()
				}
			} else if ctx.Err() == nil {
				logger.Error().Err(err).Msg("worker: claim failed")
			}
			if !sleep(ctx, p.poll) {
				return
			}
			continue
		}

		p.process(ctx, logger, job)
	}
}

func (p *Pool) process(ctx context.Context, logger infra.Logger, job *domain.GenerationJob) {
	logger.Info().Str("job_id", job.ID).Str("project_id", job.ProjectID).Msg("worker: job claimed")
	if p.metrics != nil {
		p.metrics.JobsInFlight.Inc()
		defer p.metrics.JobsInFlight.Dec()
	}

	tpl, err := p.templates.Get(job.TemplateID)
	if err != nil {
		p.settle(ctx, logger, job.ID, domain.JobStatusFailed, domain.TerminalFields{
			FailureReason: err.Error(),
			Logs:          []string{"template: " + err.Error()},
		})
		return
	}

	state := p.runner.Run(ctx, job, tpl)

	status := domain.JobStatusCompleted
	fields := domain.TerminalFields{
		Logs:          state.Logs,
		RepositoryURL: state.RepositoryURL,
		Output:        state.Files,
	}
	if state.Failed() {
		status = domain.JobStatusFailed
		fields.FailureReason = state.ErrMessage
		if fields.FailureReason == "" && state.Validation != nil {
			fields.FailureReason = strings.Join(state.Validation.Errors, "; ")
		}
	}
	p.settle(ctx, logger, job.ID, status, fields)
}

// settle persists the terminal transition, publishes the terminal stream
// marker and releases the topic. Exactly one terminal event goes out per
// job, always last.
func (p *Pool) settle(ctx context.Context, logger infra.Logger, jobID string, status domain.JobStatus, fields domain.TerminalFields) {
	if _, err := p.records.Transition(ctx, jobID, status, fields); err != nil {
		if errors.Is(err, domain.ErrTerminalStatus) {
			logger.Warn().Str("job_id", jobID).Msg("worker: job already settled")
		} else {
			logger.Error().Err(err).Str("job_id", jobID).Msg("worker: terminal transition failed")
		}
		// The stream still ends: subscribers must not hang on a job that
		// will make no further progress.
	}

	event := domain.ProgressEvent{
		Type:          domain.EventEnd,
		Progress:      100,
		Logs:          fields.Logs,
		RepositoryURL: fields.RepositoryURL,
	}
	outcome := "completed"
	if status == domain.JobStatusFailed {
		event = domain.ProgressEvent{
			Type:     domain.EventError,
			Progress: 100,
			Logs:     fields.Logs,
			Message:  fields.FailureReason,
		}
		outcome = "failed"
	}
	if p.events != nil {
		p.events.Publish(jobID, event)
		p.events.Forget(jobID)
	}
	if p.metrics != nil {
		p.metrics.JobSettled(outcome)
	}
	logger.Info().Str("job_id", jobID).Str("status", string(status)).Msg("worker: job settled")
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
