package domain

import "context"

// JobRepository is the durable job record store. Implementations must map
// missing rows to ErrNotFound and refuse transitions out of terminal states
// with ErrTerminalStatus.
type JobRepository interface {
	Create(ctx context.Context, job *GenerationJob) error
	Get(ctx context.Context, jobID string) (*JobRecord, error)
	Transition(ctx context.Context, jobID string, status JobStatus, fields TerminalFields) (*JobRecord, error)
	Checkpoint(ctx context.Context, jobID string, progress int, logs []string) error
}

// JobQueue decouples request acceptance from processing. Enqueue fails with
// ErrQueueUnavailable when the backing store cannot be reached; Claim
// returns ErrNoJob when nothing is queued.
type JobQueue interface {
	Enqueue(ctx context.Context, job *GenerationJob) error
	Claim(ctx context.Context) (*GenerationJob, error)
}
