package domain

// ProgressEventType distinguishes the wire events published on a job's
// progress channel.
type ProgressEventType string

const (
	// EventFiles carries a cumulative snapshot of the generated files.
	EventFiles ProgressEventType = "files"
	// EventEnd terminates the stream for a successful run.
	EventEnd ProgressEventType = "end"
	// EventError terminates the stream for a failed run.
	EventError ProgressEventType = "error"
)

// ProgressEvent is the unit published on a job's progress channel and
// relayed verbatim to streaming clients as JSON. Exactly one terminal event
// (end or error) is published per job, always last.
type ProgressEvent struct {
	Type          ProgressEventType `json:"type"`
	Stage         string            `json:"stage,omitempty"`
	Progress      int               `json:"progress,omitempty"`
	Files         FileMap           `json:"files,omitempty"`
	Logs          []string          `json:"logs,omitempty"`
	RepositoryURL string            `json:"repository_url,omitempty"`
	Message       string            `json:"message,omitempty"`
}

// Terminal reports whether the event logically closes the channel.
func (e ProgressEvent) Terminal() bool {
	return e.Type == EventEnd || e.Type == EventError
}
