package pipeline

import (
	"context"
	"time"

	"appforge/internal/domain"
	"appforge/internal/infra"
)

// EventPublisher fans incremental state snapshots out to live listeners.
// The in-process pubsub broker satisfies it.
type EventPublisher interface {
	Publish(jobID string, event domain.ProgressEvent)
}

// Checkpointer persists mid-run progress into the job record so polling
// clients see movement even with no stream attached.
type Checkpointer interface {
	Checkpoint(ctx context.Context, jobID string, progress int, logs []string) error
}

// StageObserver is invoked once per executed stage, for metrics.
type StageObserver func(node NodeID, d time.Duration)

// progressFor maps each node to the progress value checkpointed after it
// ran. Terminal always persists as 100 via the terminal transition.
var progressFor = map[NodeID]int{
	NodeGenerate: 30,
	NodeValidate: 70,
	NodePublish:  90,
}

// Driver walks the stage graph for one job: run the stage, merge its
// partial update, checkpoint, publish a files snapshot, route. Stage
// failures are already folded into the state by the stages themselves, so
// the driver always reaches terminal.
type Driver struct {
	graph   *Graph
	events  EventPublisher
	records Checkpointer
	logger  infra.Logger
	observe StageObserver
}

func NewDriver(graph *Graph, events EventPublisher, records Checkpointer, logger infra.Logger, observe StageObserver) *Driver {
	return &Driver{
		graph:   graph,
		events:  events,
		records: records,
		logger:  logger,
		observe: observe,
	}
}

// Run executes the pipeline for a dequeued job and returns the final state.
// The caller owns the terminal transition and the terminal stream marker.
func (d *Driver) Run(ctx context.Context, job *domain.GenerationJob, tpl domain.Template) State {
	state := State{
		JobID:     job.ID,
		ProjectID: job.ProjectID,
		Prompt:    job.Prompt,
		Locale:    job.Locale,
		Template:  tpl,
	}

	for node := d.graph.Entry(); node != NodeTerminal; {
		stage := d.graph.StageFor(node)
		if stage == nil {
			d.logger.Error().Str("job_id", job.ID).Str("node", string(node)).Msg("pipeline: no stage bound to node")
			break
		}

		started := time.Now()
		update := stage(ctx, state)
		if d.observe != nil {
			d.observe(node, time.Since(started))
		}
		state = state.merge(update)

		d.checkpoint(ctx, job.ID, progressFor[node], state)
		d.snapshot(job.ID, node, state)

		node = d.graph.Route(node, state)
	}

	return state
}

func (d *Driver) checkpoint(ctx context.Context, jobID string, progress int, s State) {
	if d.records == nil {
		return
	}
	// Checkpoint failures are infrastructure trouble, not pipeline state;
	// the run continues and the terminal transition gets another chance to
	// persist the outcome.
	if err := d.records.Checkpoint(ctx, jobID, progress, s.Logs); err != nil {
		d.logger.Error().Err(err).Str("job_id", jobID).Msg("pipeline: checkpoint failed")
	}
}

func (d *Driver) snapshot(jobID string, node NodeID, s State) {
	if d.events == nil || len(s.Files) == 0 {
		return
	}
	d.events.Publish(jobID, domain.ProgressEvent{
		Type:     domain.EventFiles,
		Stage:    string(node),
		Progress: progressFor[node],
		Files:    s.Files.Clone(),
	})
}
