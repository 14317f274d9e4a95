package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/MikeSquared-Agency/reconciler/internal/hermes"
)

// HandleRunRequested starts a run for a reconciler.run.requested event.
// The outcome reaches subscribers through the run's own completion event.
func (s *Server) HandleRunRequested(subject string, data []byte) {
	var req hermes.RunRequested
	if err := json.Unmarshal(data, &req); err != nil {
		slog.Error("failed to unmarshal run request", "subject", subject, "error", err)
		return
	}

	cfg := s.config(&req.TakeoutDir, req.GroupPrefix)
	if cfg.TakeoutDir == "" {
		slog.Warn("run request without takeout dir ignored", "subject", subject)
		return
	}

	run, err := s.Run(context.Background(), cfg)
	switch {
	case errors.Is(err, ErrBusy):
		slog.Warn("run request dropped, reconciliation in progress")
	case err != nil:
		slog.Error("requested reconciliation failed", "error", err)
	default:
		slog.Info("requested reconciliation finished", "run_id", run.ID.String())
	}
}
