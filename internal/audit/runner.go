package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/reconciler/internal/hermes"
	"github.com/MikeSquared-Agency/reconciler/internal/match"
	"github.com/MikeSquared-Agency/reconciler/internal/report"
	"github.com/MikeSquared-Agency/reconciler/internal/takeout"
)

// Config holds the options for one reconciliation run.
type Config struct {
	TakeoutDir  string // extracted Takeout root
	GroupPrefix string // optional: only reconcile groups whose name starts with this
}

// RunStore persists finished runs.
type RunStore interface {
	WriteRun(ctx context.Context, run *report.Run) error
}

// Publisher sends events to the bus.
type Publisher interface {
	Publish(subject string, data any) error
}

// Notifier posts a human readable summary.
type Notifier interface {
	PostMessage(ctx context.Context, text string) (string, error)
}

// Sinks receive a run once it has finished. Any of them may be nil.
type Sinks struct {
	Store     RunStore
	Publisher Publisher
	Notifier  Notifier
}

// Runner orchestrates a reconciliation over a Takeout directory.
type Runner struct {
	cfg    Config
	sinks  Sinks
	logger *slog.Logger
}

// NewRunner creates a runner.
func NewRunner(cfg Config, sinks Sinks, logger *slog.Logger) *Runner {
	return &Runner{
		cfg:    cfg,
		sinks:  sinks,
		logger: logger,
	}
}

// Run loads both exports, reconciles every selected group and hands the
// result to the configured sinks. Load failures abort the run and are
// returned as *takeout.LoadError; sink failures are only logged.
func (r *Runner) Run(ctx context.Context) (*report.Run, error) {
	if r.cfg.TakeoutDir == "" {
		return nil, errors.New("takeout directory is required")
	}

	run := &report.Run{
		ID:          uuid.New(),
		TakeoutDir:  expandHome(r.cfg.TakeoutDir),
		GroupPrefix: r.cfg.GroupPrefix,
		StartedAt:   time.Now().UTC(),
	}
	layout := takeout.Layout{Root: run.TakeoutDir}
	logger := r.logger.With("run_id", run.ID.String())

	ds, err := takeout.LoadLegacy(layout.LegacyPath())
	if err != nil {
		return nil, fmt.Errorf("load hangouts: %w", err)
	}
	run.LegacyConversations = len(ds.Conversations)
	run.LegacyEvents = ds.EventCount()
	logger.Info("hangouts loaded",
		"conversations", run.LegacyConversations,
		"events", run.LegacyEvents,
	)

	names, err := takeout.ListGroups(layout.GroupsDir())
	if err != nil {
		return nil, fmt.Errorf("discover groups: %w", err)
	}
	selected := selectGroups(names, r.cfg.GroupPrefix)
	logger.Info("chat groups discovered",
		"groups", len(names),
		"selected", len(selected),
		"prefix", r.cfg.GroupPrefix,
	)

	eng := match.New(logger)
	eng.OnGroup(func(g match.GroupResult) {
		r.publish(logger, hermes.SubjectGroupDone, hermes.GroupReconciled{RunID: run.ID.String(), GroupResult: g})
	})

	res, err := eng.Run(ctx, ds, takeout.DirGroups(layout.GroupsDir(), selected))
	if err != nil {
		return nil, fmt.Errorf("reconcile: %w", err)
	}
	run.Result = res
	run.FinishedAt = time.Now().UTC()

	matched, total := res.Totals()
	logger.Info("reconciliation complete",
		"groups", len(res.Groups),
		"matched", matched,
		"total", total,
		"unmatched", len(res.Unmatched),
		"duration", run.Duration().String(),
	)

	r.deliver(ctx, logger, run)
	return run, nil
}

func (r *Runner) deliver(ctx context.Context, logger *slog.Logger, run *report.Run) {
	if r.sinks.Store != nil {
		if err := r.sinks.Store.WriteRun(ctx, run); err != nil {
			logger.Error("persist run failed", "error", err)
		} else {
			logger.Info("run persisted")
		}
	}

	r.publish(logger, hermes.SubjectRunCompleted, hermes.NewRunCompleted(run))

	if r.sinks.Notifier == nil {
		return
	}
	text := report.Summary(run)
	if _, err := r.sinks.Notifier.PostMessage(ctx, text); err != nil {
		logger.Warn("failed to post run summary, logging instead",
			"error", err,
			"summary", text,
		)
	}
}

func (r *Runner) publish(logger *slog.Logger, subject string, data any) {
	if r.sinks.Publisher == nil {
		return
	}
	if err := r.sinks.Publisher.Publish(subject, data); err != nil {
		logger.Warn("publish failed", "subject", subject, "error", err)
	}
}

// selectGroups keeps names starting with prefix. An empty prefix keeps all.
func selectGroups(names []string, prefix string) []string {
	if prefix == "" {
		return names
	}
	var out []string
	for _, n := range names {
		if strings.HasPrefix(n, prefix) {
			out = append(out, n)
		}
	}
	return out
}

func expandHome(path string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
