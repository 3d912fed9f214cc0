package domain

import "time"

// JobStatus enumerates generation job lifecycle states. Transitions are
// monotonic along QUEUED -> RUNNING -> {COMPLETED, FAILED}; a terminal
// status is never left.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "QUEUED"
	JobStatusRunning   JobStatus = "RUNNING"
	JobStatusCompleted JobStatus = "COMPLETED"
	JobStatusFailed    JobStatus = "FAILED"
)

// Terminal reports whether the status admits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

func (s JobStatus) rank() int {
	switch s {
	case JobStatusQueued:
		return 0
	case JobStatusRunning:
		return 1
	case JobStatusCompleted, JobStatusFailed:
		return 2
	default:
		return -1
	}
}

// CanTransitionTo reports whether moving from s to next respects the
// monotonic lifecycle.
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	if s.Terminal() {
		return false
	}
	return next.rank() > s.rank()
}

// GenerationJob is the unit of work placed on the queue: one user-submitted
// prompt plus the scaffold template it starts from.
type GenerationJob struct {
	ID         string
	ProjectID  string
	UserID     string
	Prompt     string
	TemplateID string
	Locale     string
	EnqueuedAt time.Time
}

// JobRecord is the durable status record for a generation, independent of
// any live stream. Only the worker processing the job mutates it after
// creation.
type JobRecord struct {
	ID            string
	ProjectID     string
	UserID        string
	Prompt        string
	TemplateID    string
	Status        JobStatus
	Progress      int
	Logs          []string
	RepositoryURL string
	FailureReason string
	Output        FileMap
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TerminalFields carries the values persisted alongside a terminal
// transition.
type TerminalFields struct {
	Logs          []string
	RepositoryURL string
	FailureReason string
	Output        FileMap
}
