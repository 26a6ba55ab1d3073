package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/thesisfmt/internal/config"
	"github.com/dgallion1/thesisfmt/internal/pipeline"
)

// Server is the HTTP API server for thesisfmt.
type Server struct {
	router  chi.Router
	builder *pipeline.Builder
	runs    *pipeline.RunStore
	log     *slog.Logger
	cfg     config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(b *pipeline.Builder, runs *pipeline.RunStore, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		builder: b,
		runs:    runs,
		log:     log,
		cfg:     cfg,
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

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey))

		r.Get("/api/profile", s.handleProfile)
		r.Post("/api/validate", s.handleValidate)
		r.Post("/api/extract", s.handleExtract)
		r.Get("/api/runs/{runID}", s.handleRun)
		r.Post("/api/preview", s.handlePreview)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"profile": s.builder.Profile().Name,
		"runs":    s.runs.Len(),
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
