package handlers

import (
	"encoding/json"
	"net/http"

	"appforge/internal/domain"
	"appforge/internal/infra"
	"appforge/internal/metrics"
	"appforge/internal/middleware"
	"appforge/internal/pubsub"
	"appforge/internal/templates"
)

// App bundles the dependencies the HTTP handlers share.
type App struct {
	SQL       infra.SQLExecutor
	Records   domain.JobRepository
	Queue     domain.JobQueue
	Events    *pubsub.Broker
	Templates *templates.Registry
	Metrics   *metrics.Metrics
	Logger    infra.Logger
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, kind, message string) {
	a.json(w, code, map[string]string{"error": kind, "message": message})
}

func (a *App) currentUserID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}
