package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MikeSquared-Agency/reconciler/internal/audit"
	"github.com/MikeSquared-Agency/reconciler/internal/report"
	"github.com/MikeSquared-Agency/reconciler/internal/store"
)

// RunFunc performs one reconciliation.
type RunFunc func(ctx context.Context, cfg audit.Config) (*report.Run, error)

// RunReader returns the last persisted run.
type RunReader interface {
	LatestRun(ctx context.Context) (*store.RunRow, error)
}

type Server struct {
	router   *chi.Mux
	port     int
	defaults audit.Config
	run      RunFunc
	runs     RunReader

	mu      sync.Mutex // held for the duration of a run
	stateMu sync.RWMutex
	running bool
	last    *report.Run
}

func NewServer(port int, apiToken string, defaults audit.Config, run RunFunc, runs RunReader) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:   router,
		port:     port,
		defaults: defaults,
		run:      run,
		runs:     runs,
	}

	router.Get("/health", s.health)
	router.Get("/api/v1/reconciler/status", s.status)
	router.Route("/api/v1/reconciler/runs", func(r chi.Router) {
		r.Use(BearerAuthMiddleware(apiToken))
		r.Post("/", s.startRun)
		r.Get("/latest", s.latestRun)
	})

	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	slog.Info("API server starting", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	s.stateMu.RLock()
	running := s.running
	last := s.last
	s.stateMu.RUnlock()

	state := "idle"
	if running {
		state = "running"
	}
	body := map[string]any{
		"service": "reconciler",
		"status":  state,
	}
	if last != nil {
		body["last_run_id"] = last.ID.String()
		body["last_finished_at"] = last.FinishedAt
	}
	writeJSON(w, http.StatusOK, body)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
