package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"appforge/internal/http/handlers"
	"appforge/internal/infra"
	"appforge/internal/middleware"
)

// NewRouter assembles the API surface. The country lookup is optional;
// without it locale detection relies on request headers alone.
func NewRouter(app *handlers.App, cfg *infra.Config, logger infra.Logger, lookup middleware.CountryLookup) http.Handler {
	r := chi.NewRouter()
	r.Use(
		chimw.RealIP,
		middleware.RequestID,
		chimw.Recoverer,
		middleware.Logger(logger),
		middleware.CORS(cfg.CORSAllowedOrigins),
		middleware.Locale(cfg.DefaultLocale, lookup),
		middleware.Identity(cfg.JWTSecret),
	)

	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/readyz", app.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/v1/templates", app.TemplatesList)

	r.Route("/v1/generations", func(r chi.Router) {
		r.With(middleware.RateLimit(cfg.RateLimitPerMin, time.Minute)).
			Post("/", app.GenerationsCreate)
		r.Get("/{id}", app.GenerationsGet)
		r.Get("/{id}/download", app.GenerationsDownload)
		r.Get("/{id}/events", app.GenerationsStream)
		r.Get("/{id}/ws", app.GenerationsStreamWS)
	})

	return r
}
