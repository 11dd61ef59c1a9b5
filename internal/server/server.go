package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	apperrors "github.com/namelens/adlens/internal/errors"
	"github.com/namelens/adlens/internal/metrics"
	"github.com/namelens/adlens/internal/observability"
	"github.com/namelens/adlens/internal/output"
	"github.com/namelens/adlens/internal/server/handlers"
	servermw "github.com/namelens/adlens/internal/server/middleware"
	"github.com/namelens/adlens/internal/session"
)

// Options configure the HTTP server.
type Options struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	AllowedOrigins  []string
	Legacy          bool
	Version         string
	ProbeTimeout    time.Duration
	MetricsFallback int
}

func (o Options) withDefaults() Options {
	if o.ReadTimeout <= 0 {
		o.ReadTimeout = 30 * time.Second
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 90 * time.Second
	}
	if o.IdleTimeout <= 0 {
		o.IdleTimeout = 120 * time.Second
	}
	if o.ProbeTimeout <= 0 {
		o.ProbeTimeout = 5 * time.Second
	}
	if len(o.AllowedOrigins) == 0 {
		o.AllowedOrigins = []string{"*"}
	}
	if o.Version == "" {
		o.Version = handlers.AppVersion
	}
	return o
}

// Server serves the search page, its JSON API and the operational endpoints.
type Server struct {
	router     *chi.Mux
	server     *http.Server
	opts       Options
	controller *session.Controller
	page       *output.Page
	health     *handlers.HealthManager
	startedAt  time.Time
}

// New creates a new HTTP server instance around one search session.
func New(opts Options, controller *session.Controller, backend handlers.BackendPinger) *Server {
	opts = opts.withDefaults()
	r := chi.NewRouter()

	r.Use(middleware.RealIP)

	// RequestID first for correlation, Recovery innermost so metrics see the 500.
	r.Use(servermw.RequestID)
	r.Use(servermw.RequestMetrics)
	r.Use(servermw.Recovery)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		HandleError(w, req, apperrors.NewNotFoundError("The requested resource was not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		HandleError(w, req, apperrors.NewMethodNotAllowedError("The requested method is not allowed for this resource"))
	})

	health := handlers.NewHealthManager(opts.Version)
	if backend != nil {
		health.RegisterOptionalChecker("backend", handlers.BackendChecker{Backend: backend})
	}

	page := output.NewPage(opts.Legacy)
	page.DefaultDepth = controller.DefaultDepth()

	s := &Server{
		router:     r,
		opts:       opts,
		controller: controller,
		page:       page,
		health:     health,
		startedAt:  time.Now(),
	}

	handlers.SetHTTPErrorResponder(HandleError)
	metrics.SetServerStartTime(s.startedAt.Unix())

	s.registerRoutes()

	return s
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.opts.Host, s.opts.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  s.opts.IdleTimeout,
	}

	observability.ServerLogger.Info("Starting HTTP server",
		zap.String("host", s.opts.Host),
		zap.Int("port", s.opts.Port),
		zap.String("addr", addr),
		zap.Bool("legacy_filters", s.opts.Legacy))

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	observability.ServerLogger.Info("Shutting down HTTP server",
		zap.Duration("uptime", time.Since(s.startedAt)))
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler exposes the underlying router for testing and instrumentation
func (s *Server) Handler() http.Handler {
	return s.router
}

// Port returns the configured server port
func (s *Server) Port() int {
	return s.opts.Port
}

// Health exposes the health manager so callers can register extra checks.
func (s *Server) Health() *handlers.HealthManager {
	return s.health
}

func (s *Server) probe(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, s.opts.ProbeTimeout)
	defer cancel()
	s.controller.Probe(probeCtx)
}
