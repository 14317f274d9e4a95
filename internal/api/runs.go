package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/MikeSquared-Agency/reconciler/internal/audit"
	"github.com/MikeSquared-Agency/reconciler/internal/report"
	"github.com/MikeSquared-Agency/reconciler/internal/store"
	"github.com/MikeSquared-Agency/reconciler/internal/takeout"
)

// ErrBusy is returned when a run is requested while another is in flight.
var ErrBusy = errors.New("a reconciliation is already running")

// RunRequest overrides the configured run options. Both fields are optional.
type RunRequest struct {
	TakeoutDir  *string `json:"takeout_dir,omitempty"`
	GroupPrefix *string `json:"group_prefix,omitempty"`
}

// startRun handles POST /api/v1/reconciler/runs. The run happens within the
// request; a second request while one is in flight gets 409.
func (s *Server) startRun(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
			return
		}
	}

	cfg := s.config(req.TakeoutDir, req.GroupPrefix)
	if cfg.TakeoutDir == "" {
		writeError(w, http.StatusBadRequest, "takeout_dir is required")
		return
	}

	run, err := s.Run(r.Context(), cfg)
	if err != nil {
		var le *takeout.LoadError
		switch {
		case errors.Is(err, ErrBusy):
			writeError(w, http.StatusConflict, err.Error())
		case errors.As(err, &le):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			slog.Error("reconciliation failed", "error", err)
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := report.WriteJSON(w, run); err != nil {
		slog.Warn("failed to write run response", "error", err)
	}
}

// latestRun handles GET /api/v1/reconciler/runs/latest.
func (s *Server) latestRun(w http.ResponseWriter, r *http.Request) {
	if s.runs != nil {
		row, err := s.runs.LatestRun(r.Context())
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, row)
			return
		case !errors.Is(err, store.ErrNoRuns):
			slog.Error("failed to read latest run", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to read latest run")
			return
		}
	}

	s.stateMu.RLock()
	last := s.last
	s.stateMu.RUnlock()
	if last == nil {
		writeError(w, http.StatusNotFound, "no runs yet")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	report.WriteJSON(w, last)
}

// Run performs one reconciliation unless another is in flight, in which case
// it returns ErrBusy.
func (s *Server) Run(ctx context.Context, cfg audit.Config) (*report.Run, error) {
	if !s.mu.TryLock() {
		return nil, ErrBusy
	}
	defer s.mu.Unlock()
	s.setRunning(true)
	defer s.setRunning(false)

	run, err := s.run(ctx, cfg)
	if err != nil {
		return nil, err
	}

	s.stateMu.Lock()
	s.last = run
	s.stateMu.Unlock()
	return run, nil
}

func (s *Server) config(dir, prefix *string) audit.Config {
	cfg := s.defaults
	if dir != nil && *dir != "" {
		cfg.TakeoutDir = *dir
	}
	if prefix != nil {
		cfg.GroupPrefix = *prefix
	}
	return cfg
}

func (s *Server) setRunning(v bool) {
	s.stateMu.Lock()
	s.running = v
	s.stateMu.Unlock()
}
