package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"appforge/internal/domain"
	"appforge/internal/infra"
	"appforge/internal/sqlinline"
)

// JobRepositoryPG implements domain.JobRepository over the generation_jobs
// table. Status updates go through guarded SQL so a terminal row can never
// be rewritten, regardless of how many workers or operators race on it.
type JobRepositoryPG struct {
	db infra.SQLExecutor
}

// NewJobRepository creates a job repository backed by PostgreSQL.
func NewJobRepository(db infra.SQLExecutor) *JobRepositoryPG {
	return &JobRepositoryPG{db: db}
}

// Create inserts a fresh QUEUED record. It shares the enqueue statement with
// the queue adapter so a job row and its queue entry are the same row.
func (r *JobRepositoryPG) Create(ctx context.Context, job *domain.GenerationJob) error {
	row := r.db.QueryRow(ctx, sqlinline.QEnqueueJob,
		job.ID, job.ProjectID, job.UserID, job.Prompt, job.TemplateID, job.Locale)
	return row.Scan(&job.ID, &job.EnqueuedAt)
}

// Get fetches a job record by id.
func (r *JobRepositoryPG) Get(ctx context.Context, jobID string) (*domain.JobRecord, error) {
	row := r.db.QueryRow(ctx, sqlinline.QGetJob, jobID)
	record, err := scanJobRecord(row)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get job %s: %w", jobID, err)
	}
	return record, nil
}

// Transition moves the job to status and persists the terminal fields. The
// update matches only non-terminal rows; when it matches nothing, a
// follow-up read distinguishes a missing job from one already settled.
func (r *JobRepositoryPG) Transition(ctx context.Context, jobID string, status domain.JobStatus, fields domain.TerminalFields) (*domain.JobRecord, error) {
	logsJSON, err := nullableJSON(fields.Logs)
	if err != nil {
		return nil, fmt.Errorf("transition job %s: encode logs: %w", jobID, err)
	}
	outputJSON, err := nullableJSON(fields.Output)
	if err != nil {
		return nil, fmt.Errorf("transition job %s: encode output: %w", jobID, err)
	}

	row := r.db.QueryRow(ctx, sqlinline.QTransitionJob,
		jobID,
		string(status),
		logsJSON,
		nullableText(fields.RepositoryURL),
		nullableText(fields.FailureReason),
		outputJSON,
	)
	record, err := scanJobRecord(row)
	if err == nil {
		return record, nil
	}
	if !infra.IsNoRows(err) {
		return nil, fmt.Errorf("transition job %s: %w", jobID, err)
	}

	current, getErr := r.Get(ctx, jobID)
	if getErr != nil {
		return nil, getErr
	}
	if current.Status.Terminal() {
		return nil, fmt.Errorf("job %s is %s: %w", jobID, current.Status, domain.ErrTerminalStatus)
	}
	return nil, fmt.Errorf("transition job %s to %s: no row updated", jobID, status)
}

// Checkpoint records intermediate progress while the job is RUNNING.
// Progress never decreases; checkpoints against settled jobs are no-ops.
func (r *JobRepositoryPG) Checkpoint(ctx context.Context, jobID string, progress int, logs []string) error {
	logsJSON, err := nullableJSON(logs)
	if err != nil {
		return fmt.Errorf("checkpoint job %s: encode logs: %w", jobID, err)
	}
	if _, err := r.db.Exec(ctx, sqlinline.QCheckpointJob, jobID, progress, logsJSON); err != nil {
		return fmt.Errorf("checkpoint job %s: %w", jobID, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJobRecord(row rowScanner) (*domain.JobRecord, error) {
	var record domain.JobRecord
	err := row.Scan(
		&record.ID,
		&record.ProjectID,
		&record.UserID,
		&record.Prompt,
		&record.TemplateID,
		&record.Status,
		&record.Progress,
		&record.Logs,
		&record.RepositoryURL,
		&record.FailureReason,
		&record.Output,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// nullableJSON encodes v, or returns nil for empty values so the SQL
// coalesce keeps the stored column untouched.
func nullableJSON(v any) ([]byte, error) {
	switch t := v.(type) {
	case []string:
		if len(t) == 0 {
			return nil, nil
		}
	case domain.FileMap:
		if len(t) == 0 {
			return nil, nil
		}
	}
	return json.Marshal(v)
}

func nullableText(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

var _ domain.JobRepository = (*JobRepositoryPG)(nil)
