package hermes

import (
	"time"

	"github.com/MikeSquared-Agency/reconciler/internal/match"
	"github.com/MikeSquared-Agency/reconciler/internal/report"
)

const (
	SubjectRunRequested = "reconciler.run.requested"
	SubjectRunCompleted = "reconciler.run.completed"
	SubjectGroupDone    = "reconciler.group.reconciled"
)

// RunRequested asks a serving reconciler to start a run. Empty fields fall
// back to the service configuration.
type RunRequested struct {
	TakeoutDir  string  `json:"takeout_dir,omitempty"`
	GroupPrefix *string `json:"group_prefix,omitempty"`
}

// RunCompleted is published once a reconciliation run has finished.
type RunCompleted struct {
	RunID      string              `json:"run_id"`
	TakeoutDir string              `json:"takeout_dir"`
	FinishedAt string              `json:"finished_at"`
	DurationMS int64               `json:"duration_ms"`
	Matched    int                 `json:"matched"`
	Total      int                 `json:"total"`
	Unmatched  int                 `json:"unmatched"`
	Groups     []match.GroupResult `json:"groups"`
}

// NewRunCompleted builds the event for a finished run.
func NewRunCompleted(run *report.Run) RunCompleted {
	matched, total := run.Result.Totals()
	return RunCompleted{
		RunID:      run.ID.String(),
		TakeoutDir: run.TakeoutDir,
		FinishedAt: run.FinishedAt.UTC().Format(time.RFC3339),
		DurationMS: run.Duration().Milliseconds(),
		Matched:    matched,
		Total:      total,
		Unmatched:  len(run.Result.Unmatched),
		Groups:     run.Result.Groups,
	}
}

// GroupReconciled is published as each group finishes, while the run is
// still in progress.
type GroupReconciled struct {
	RunID string `json:"run_id"`
	match.GroupResult
}
