package handlers

import (
	"net/http"

	"appforge/internal/sqlinline"
)

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready reports whether the database is reachable. Load balancers use it to
// keep instances out of rotation while Postgres is down.
func (a *App) Ready(w http.ResponseWriter, r *http.Request) {
	var one int
	if err := a.SQL.QueryRow(r.Context(), sqlinline.QHealthCheck).Scan(&one); err != nil {
		a.error(w, http.StatusServiceUnavailable, "not_ready", "database unreachable")
		return
	}
	a.json(w, http.StatusOK, map[string]string{"status": "ready"})
}
