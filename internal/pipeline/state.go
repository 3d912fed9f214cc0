package pipeline

import "appforge/internal/domain"

// ValidationResult records the outcome of the validate stage: pass/fail and
// one error string per failing file.
type ValidationResult struct {
	Passed bool
	Errors []string
}

// State is the single accumulating object threaded through all stages for
// one job. It is owned exclusively by the worker running that job and is
// mutated only by replacement through merge.
type State struct {
	JobID     string
	ProjectID string
	Prompt    string
	Locale    string
	Template  domain.Template

	Files         domain.FileMap
	Validation    *ValidationResult
	RepositoryURL string
	Logs          []string
	ErrMessage    string
}

// Update is the partial state a stage returns. List fields concatenate on
// merge, the file map unions, and scalar fields overwrite only when set.
type Update struct {
	Files         domain.FileMap
	Validation    *ValidationResult
	RepositoryURL string
	Logs          []string
	ErrMessage    string
}

// merge folds an update into the state. Invariants enforced here rather
// than in each stage: logs only grow, the first error message sticks, and a
// repository URL once set is never reset.
func (s State) merge(u Update) State {
	out := s
	if len(u.Logs) > 0 {
		out.Logs = append(append([]string(nil), s.Logs...), u.Logs...)
	}
	if len(u.Files) > 0 {
		out.Files = s.Files.Merge(u.Files)
	}
	if u.Validation != nil {
		out.Validation = u.Validation
	}
	if u.RepositoryURL != "" && out.RepositoryURL == "" {
		out.RepositoryURL = u.RepositoryURL
	}
	if u.ErrMessage != "" && out.ErrMessage == "" {
		out.ErrMessage = u.ErrMessage
	}
	return out
}

// Failed reports whether the run must be classified FAILED at termination.
// A failed validation is terminal on its own: a run that never published
// must not settle as completed just because no stage recorded a message.
func (s State) Failed() bool {
	return s.ErrMessage != "" || (s.Validation != nil && !s.Validation.Passed)
}
