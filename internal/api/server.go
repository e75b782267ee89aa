package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/examscope/internal/config"
	"github.com/dgallion1/examscope/internal/pipeline"
	"github.com/dgallion1/examscope/internal/provider"
)

// Analyzer analyzes a single upload synchronously.
type Analyzer interface {
	pipeline.DocumentAnalyzer
	OCRAvailable() bool
	OCREngine() string
}

// Providers exposes the provider selector.
type Providers interface {
	Status() provider.Status
	Refresh() provider.Status
}

// Server is the HTTP API server for examscope.
type Server struct {
	router       chi.Router
	analyzer     Analyzer
	orchestrator *pipeline.Orchestrator
	providers    Providers
	stats        *provider.Stats
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(analyzer Analyzer, orch *pipeline.Orchestrator, providers Providers, stats *provider.Stats, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		analyzer:     analyzer,
		orchestrator: orch,
		providers:    providers,
		stats:        stats,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/analyze", s.handleAnalyze)
		r.Post("/analyze/batch", s.handleBatchAnalyze)
		r.Get("/jobs/{jobID}", s.handleJobStatus)
		r.Get("/jobs/{jobID}/export", s.handleJobExport)

		r.Get("/status", s.handleStatus)
		r.Post("/providers/refresh", s.handleRefreshProviders)
		r.Get("/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]any{"success": false, "error": msg})
}
