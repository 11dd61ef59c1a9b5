package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/namelens/adlens/internal/metrics"
	"github.com/namelens/adlens/internal/server/handlers"
)

// registerRoutes registers all HTTP routes
func (s *Server) registerRoutes() {
	s.router.Get("/health", s.health.HealthHandler)
	s.router.Get("/health/live", s.health.LivenessHandler)
	s.router.Get("/health/ready", s.health.ReadinessHandler)

	s.router.Get("/version", handlers.VersionHandler)
	s.router.Get("/metrics", s.metricsHandler)

	// Browser page; every POST answers 303 back to the page.
	s.router.Get("/", s.handleIndex)
	s.router.Post("/search", s.handleSearchForm)
	s.router.Post("/retry", s.handleRetryForm)
	s.router.Get("/ads/{adID}", s.handleDetailPage)
	s.router.Post("/ads/close", s.handleCloseForm)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.opts.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
		r.Get("/view", s.apiView)
		r.Get("/status", s.apiStatus)
		r.Post("/search", s.apiSearch)
		r.Post("/retry", s.apiRetry)
		r.Get("/ads/{adID}", s.apiOpenDetail)
		r.Post("/ads/close", s.apiCloseDetail)
	})
}

func (s *Server) metricsHandler(w http.ResponseWriter, r *http.Request) {
	metrics.SetServerUptime(int64(time.Since(s.startedAt).Seconds()))
	MetricsHandler(w, r, s.opts.MetricsFallback)
}
