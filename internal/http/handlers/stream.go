package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"appforge/internal/domain"
)

// terminalEventFromRecord synthesizes the terminal stream event for a job
// that already settled, so late subscribers get the same closing frame live
// ones did.
func terminalEventFromRecord(record *domain.JobRecord) domain.ProgressEvent {
	if record.Status == domain.JobStatusCompleted {
		return domain.ProgressEvent{
			Type:          domain.EventEnd,
			Progress:      100,
			Logs:          record.Logs,
			RepositoryURL: record.RepositoryURL,
		}
	}
	return domain.ProgressEvent{
		Type:     domain.EventError,
		Progress: 100,
		Logs:     record.Logs,
		Message:  record.FailureReason,
	}
}

// GenerationsStream relays a job's progress events as server-sent events.
// The subscription is taken before the record is read: anything published
// in between lands in the subscription buffer instead of being missed.
func (a *App) GenerationsStream(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")
	flusher, ok := w.(http.Flusher)
	if !ok {
		a.error(w, http.StatusInternalServerError, "internal", "streaming unsupported")
		return
	}

	sub := a.Events.Subscribe(jobID)
	defer sub.Unsubscribe()

	record, err := a.Records.Get(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "no such generation")
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "failed to load generation")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if record.Status.Terminal() {
		writeSSE(w, terminalEventFromRecord(record))
		flusher.Flush()
		return
	}

	if a.Metrics != nil {
		a.Metrics.StreamClients.Inc()
		defer a.Metrics.StreamClients.Dec()
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case event, open := <-sub.Events:
			if !open {
				// The channel closed without us seeing the terminal frame
				// (dropped under backpressure, or the job settled between
				// subscribe and now). The record has the outcome.
				a.streamTailFromRecord(r.Context(), w, flusher, jobID)
				return
			}
			writeSSE(w, event)
			flusher.Flush()
			if event.Terminal() {
				return
			}
		}
	}
}

func (a *App) streamTailFromRecord(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, jobID string) {
	record, err := a.Records.Get(ctx, jobID)
	if err != nil || !record.Status.Terminal() {
		return
	}
	writeSSE(w, terminalEventFromRecord(record))
	flusher.Flush()
}

func writeSSE(w http.ResponseWriter, event domain.ProgressEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}
