package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wadjakorntonsri/shortlink/pkg/config"
	"github.com/wadjakorntonsri/shortlink/pkg/ports"
)

// NewRouter creates and configures the main application router
func NewRouter(cfg *config.Config, service ports.LinkService) http.Handler {
	// Initialize Handlers
	h := NewHTTPHandler(service, cfg.ReservedPaths)
	health := NewHealthHandler(service)

	// Initialize Middleware
	mw := NewMiddleware(cfg)

	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.Instrument)
	r.Use(middleware.Recoverer)
	r.Use(mw.CORS)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	// Operational
	r.Get("/health", health.Liveness)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", health.Report)
		r.Post("/shorten", h.Create)
		r.Get("/urls", h.List)
		r.Delete("/urls/{code}", h.Delete)
		r.Get("/stats/{code}", h.Stats)
	})

	// Must stay a single segment so it never shadows the routes above.
	r.Get("/{code}", h.Redirect)

	return r
}
