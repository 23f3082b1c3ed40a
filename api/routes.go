package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires all routes. The metrics registry is the one the crawler
// reports into; pass nil to skip the /metrics endpoint.
func NewRouter(h *Handler, registry *prometheus.Registry) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.Health)
	if registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Post("/admin/login", h.AdminLogin)

	r.Route("/conventions", func(r chi.Router) {
		r.Post("/", h.SubmitConvention)
		r.Post("/{id}/status", h.UpdateStatus)
		r.Post("/{id}/sign", h.SignConvention)
	})

	return r
}
