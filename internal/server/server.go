// Package server exposes the detection engine over HTTP: analysis
// endpoints under /v1/, Prometheus metrics, and the live dashboard.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/subhanUmer/secureweb-engine/internal/dashboard"
	"github.com/subhanUmer/secureweb-engine/internal/engine"
)

type Server struct {
	r      *chi.Mux
	engine *engine.Engine
	log    zerolog.Logger
}

// New builds the HTTP server around an engine. The dashboard hub is
// optional; when nil the dashboard routes are not mounted.
func New(eng *engine.Engine, hub *dashboard.Hub, log zerolog.Logger) *Server {
	s := &Server{r: chi.NewRouter(), engine: eng, log: log}

	s.r.Use(middleware.RequestID)
	s.r.Use(middleware.Recoverer)

	s.routes(hub)
	return s
}

func (s *Server) routes(hub *dashboard.Hub) {
	s.r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("ok")) })
	s.r.Handle("/metrics", promhttp.Handler())

	s.r.Route("/v1", func(r chi.Router) {
		r.Post("/url", s.postURL)
		r.Post("/script", s.postScript)
		r.Post("/page", s.postPage)
		r.Post("/extensions/scan", s.postExtensionScan)
		r.Get("/anomalies", s.getAnomalies)
		r.Get("/blocked", s.getBlocked)
		r.Get("/stats", s.getStats)
	})

	if hub != nil {
		// The dashboard mux routes on full /_secureweb/ paths, so it is
		// attached without prefix stripping.
		s.r.Handle("/_secureweb/*", dashboard.Handler(hub))
	}
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.r }
