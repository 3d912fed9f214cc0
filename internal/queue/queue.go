package queue

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"appforge/internal/domain"
	"appforge/internal/infra"
	"appforge/internal/sqlinline"
)

// PostgresQueue implements domain.JobQueue on top of the generation_jobs
// table. Enqueue inserts a QUEUED row; Claim flips the oldest QUEUED row to
// RUNNING under FOR UPDATE SKIP LOCKED so concurrent workers never receive
// the same job.
type PostgresQueue struct {
	db infra.SQLExecutor
}

func NewPostgresQueue(db infra.SQLExecutor) *PostgresQueue {
	return &PostgresQueue{db: db}
}

// Enqueue implements domain.JobQueue. The job id is assigned here when the
// caller left it empty, and EnqueuedAt is set from the inserted row.
func (q *PostgresQueue) Enqueue(ctx context.Context, job *domain.GenerationJob) error {
	if job == nil {
		return fmt.Errorf("queue: nil job")
	}
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	row := q.db.QueryRow(ctx, sqlinline.QEnqueueJob,
		job.ID, job.ProjectID, job.UserID, job.Prompt, job.TemplateID, job.Locale)
	if err := row.Scan(&job.ID, &job.EnqueuedAt); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrQueueUnavailable, err)
	}
	return nil
}

// Claim implements domain.JobQueue.
func (q *PostgresQueue) Claim(ctx context.Context) (*domain.GenerationJob, error) {
	row := q.db.QueryRow(ctx, sqlinline.QClaimJob)
	var job domain.GenerationJob
	err := row.Scan(&job.ID, &job.ProjectID, &job.UserID, &job.Prompt,
		&job.TemplateID, &job.Locale, &job.EnqueuedAt)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNoJob
		}
		return nil, fmt.Errorf("queue: claim: %w", err)
	}
	return &job, nil
}

var _ domain.JobQueue = (*PostgresQueue)(nil)
