package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"appforge/internal/domain"
	"appforge/internal/middleware"
	"appforge/internal/providers/github"
	"appforge/pkg/zip"
)

const maxPromptLen = 4000

type generationRequest struct {
	Prompt     string `json:"prompt"`
	ProjectID  string `json:"project_id"`
	TemplateID string `json:"template_id"`
}

type generationResponse struct {
	ID            string    `json:"id"`
	ProjectID     string    `json:"project_id"`
	TemplateID    string    `json:"template_id,omitempty"`
	Status        string    `json:"status"`
	Progress      int       `json:"progress"`
	Logs          []string  `json:"logs"`
	RepositoryURL string    `json:"repository_url,omitempty"`
	FailureReason string    `json:"failure_reason,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toGenerationResponse(record *domain.JobRecord) generationResponse {
	logs := record.Logs
	if logs == nil {
		logs = []string{}
	}
	return generationResponse{
		ID:            record.ID,
		ProjectID:     record.ProjectID,
		TemplateID:    record.TemplateID,
		Status:        string(record.Status),
		Progress:      record.Progress,
		Logs:          logs,
		RepositoryURL: record.RepositoryURL,
		FailureReason: record.FailureReason,
		CreatedAt:     record.CreatedAt,
		UpdatedAt:     record.UpdatedAt,
	}
}

// GenerationsCreate accepts a prompt and enqueues a generation job. The
// response is immediate; progress is observed via the status endpoint or
// the event stream.
func (a *App) GenerationsCreate(w http.ResponseWriter, r *http.Request) {
	var req generationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	req.Prompt = strings.TrimSpace(req.Prompt)
	if req.Prompt == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "prompt is required")
		return
	}
	if len(req.Prompt) > maxPromptLen {
		a.error(w, http.StatusBadRequest, "bad_request", "prompt too long")
		return
	}
	if _, err := a.Templates.Get(req.TemplateID); err != nil {
		a.error(w, http.StatusBadRequest, "unknown_template", "no such template")
		return
	}
	projectID := strings.TrimSpace(req.ProjectID)
	if projectID == "" {
		projectID = uuid.NewString()
	}

	job := &domain.GenerationJob{
		ID:         uuid.NewString(),
		ProjectID:  projectID,
		UserID:     a.currentUserID(r),
		Prompt:     req.Prompt,
		TemplateID: req.TemplateID,
		Locale:     middleware.LocaleFromContext(r.Context()),
	}
	if err := a.Queue.Enqueue(r.Context(), job); err != nil {
		a.Logger.Error().Err(err).Msg("generations: enqueue failed")
		a.error(w, http.StatusServiceUnavailable, "queue_unavailable", "cannot accept generations right now")
		return
	}
	if a.Metrics != nil {
		a.Metrics.JobsAccepted.Inc()
	}

	a.json(w, http.StatusAccepted, generationResponse{
		ID:         job.ID,
		ProjectID:  job.ProjectID,
		TemplateID: job.TemplateID,
		Status:     string(domain.JobStatusQueued),
		Progress:   0,
		Logs:       []string{},
		CreatedAt:  job.EnqueuedAt,
		UpdatedAt:  job.EnqueuedAt,
	})
}

// GenerationsGet returns the durable job record.
func (a *App) GenerationsGet(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")
	record, err := a.Records.Get(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "no such generation")
			return
		}
		a.Logger.Error().Err(err).Str("job_id", jobID).Msg("generations: get failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load generation")
		return
	}
	a.json(w, http.StatusOK, toGenerationResponse(record))
}

// GenerationsDownload streams the generated files as a zip archive. Only
// completed jobs have an archive.
func (a *App) GenerationsDownload(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")
	record, err := a.Records.Get(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "no such generation")
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "failed to load generation")
		return
	}
	if record.Status != domain.JobStatusCompleted || len(record.Output) == 0 {
		a.error(w, http.StatusConflict, "not_ready", "generation has no downloadable output")
		return
	}

	archive, err := zip.Archive(record.Output)
	if err != nil {
		a.Logger.Error().Err(err).Str("job_id", jobID).Msg("generations: archive failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to build archive")
		return
	}
	name := github.RepositoryName(record.ProjectID, record.Prompt) + ".zip"
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}

// TemplatesList returns the template catalog.
func (a *App) TemplatesList(w http.ResponseWriter, r *http.Request) {
	list := a.Templates.List()
	items := make([]map[string]string, 0, len(list))
	for _, tpl := range list {
		items = append(items, map[string]string{"id": tpl.ID, "name": tpl.Name})
	}
	a.json(w, http.StatusOK, map[string]any{"templates": items})
}
