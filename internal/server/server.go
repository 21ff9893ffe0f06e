// Package server provides the HTTP API for submitting enrichment jobs and
// observing their progress.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/sentinel/internal/batch"
	"github.com/aristath/sentinel/internal/citationstore"
	"github.com/aristath/sentinel/internal/enrichment"
	"github.com/aristath/sentinel/internal/progress"
	"github.com/aristath/sentinel/internal/snapshotstore"
	"github.com/aristath/sentinel/internal/sysmetrics"
)

// Config holds everything the HTTP server needs to wire its routes.
type Config struct {
	Log             zerolog.Logger
	Port            int
	DevMode         bool
	Orchestrator    *enrichment.Orchestrator
	Batch           *batch.BatchOrchestrator
	Progress        *progress.Manager
	CitationStore   *citationstore.Store
	SnapshotStore   *snapshotstore.Store // nil disables snapshotting
	SysMetrics      *sysmetrics.Collector
	JobTimeout      time.Duration
}

// Server is the enrichment API's HTTP front end.
type Server struct {
	router *chi.Mux
	server *http.Server
	log    zerolog.Logger
	jobs   *jobHandlers
}

// New builds a Server with routes registered but not yet listening.
func New(cfg Config) *Server {
	s := &Server{
		router: chi.NewRouter(),
		log:    cfg.Log.With().Str("component", "server").Logger(),
		jobs:   newJobHandlers(cfg),
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // streaming endpoints (SSE/WS) must not be write-timed out
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(120 * time.Second))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/system/status", s.jobs.handleSystemStatus)

		r.Route("/jobs", func(r chi.Router) {
			r.Post("/", s.jobs.handleCreateJob)
			r.Get("/{jobID}", s.jobs.handleGetJob)
			r.Get("/{jobID}/stream", s.jobs.handleStreamJob)
			r.Get("/{jobID}/ws", s.jobs.handleWebsocketJob)
			r.Get("/{jobID}/result", s.jobs.handleGetJobResult)
		})

		r.Post("/batch", s.jobs.handleCreateBatch)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"status":"ok"}`)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("http request")
	})
}

// Start starts the HTTP server. It blocks until the server stops.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("starting http server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts the server down.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("shutting down http server")
	return s.server.Shutdown(ctx)
}
