package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/MikeSquared-Agency/reconciler/internal/match"
	"github.com/MikeSquared-Agency/reconciler/internal/report"
)

// ErrNoRuns is returned by LatestRun before any run has been written.
var ErrNoRuns = errors.New("no reconciliation runs")

// WriteRun persists a run with its group results, matches and unmatched events.
// Tables: reconcile_runs, reconcile_groups, reconcile_matches, reconcile_unmatched.
func (s *Store) WriteRun(ctx context.Context, run *report.Run) error {
	res := run.Result
	matched, total := res.Totals()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO reconcile_runs (id, takeout_dir, group_prefix, started_at, finished_at,
			legacy_conversations, legacy_events, matched, total, unmatched)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		run.ID, run.TakeoutDir, run.GroupPrefix, run.StartedAt, run.FinishedAt,
		run.LegacyConversations, run.LegacyEvents, matched, total, len(res.Unmatched),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for i, g := range res.Groups {
		_, err = tx.Exec(ctx, `
			INSERT INTO reconcile_groups (run_id, position, group_id, matched, total)
			VALUES ($1, $2, $3, $4, $5)`,
			run.ID, i, g.GroupID, g.Matched, g.Total,
		)
		if err != nil {
			return fmt.Errorf("insert group %s: %w", g.GroupID, err)
		}
	}

	matchRows := make([][]any, len(res.Matches))
	for i, m := range res.Matches {
		matchRows[i] = []any{run.ID, m.GroupID, m.MessageIndex, m.MessageID, m.ConversationID, m.EventID, m.DeltaMillis}
	}
	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"reconcile_matches"},
		[]string{"run_id", "group_id", "message_index", "message_id", "conversation_id", "event_id", "delta_ms"},
		pgx.CopyFromRows(matchRows),
	)
	if err != nil {
		return fmt.Errorf("copy matches: %w", err)
	}

	unmatchedRows := make([][]any, len(res.Unmatched))
	for i, ev := range res.Unmatched {
		unmatchedRows[i] = []any{run.ID, i, ev.ConversationID, ev.ID, time.UnixMicro(ev.TimestampMicros).UTC(), match.Join(ev)}
	}
	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"reconcile_unmatched"},
		[]string{"run_id", "position", "conversation_id", "event_id", "event_at", "body"},
		pgx.CopyFromRows(unmatchedRows),
	)
	if err != nil {
		return fmt.Errorf("copy unmatched: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// RunRow is a stored run without its per-message detail.
type RunRow struct {
	ID          uuid.UUID           `json:"id"`
	TakeoutDir  string              `json:"takeout_dir"`
	GroupPrefix string              `json:"group_prefix,omitempty"`
	StartedAt   time.Time           `json:"started_at"`
	FinishedAt  time.Time           `json:"finished_at"`
	Matched     int                 `json:"matched"`
	Total       int                 `json:"total"`
	Unmatched   int                 `json:"unmatched"`
	Groups      []match.GroupResult `json:"groups"`
}

// LatestRun returns the most recently finished run.
func (s *Store) LatestRun(ctx context.Context) (*RunRow, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, takeout_dir, group_prefix, started_at, finished_at, matched, total, unmatched
		FROM reconcile_runs ORDER BY finished_at DESC LIMIT 1`)

	var r RunRow
	err := row.Scan(&r.ID, &r.TakeoutDir, &r.GroupPrefix, &r.StartedAt, &r.FinishedAt, &r.Matched, &r.Total, &r.Unmatched)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoRuns
	}
	if err != nil {
		return nil, fmt.Errorf("query latest run: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT group_id, matched, total FROM reconcile_groups
		WHERE run_id = $1 ORDER BY position`, r.ID)
	if err != nil {
		return nil, fmt.Errorf("query groups: %w", err)
	}
	r.Groups, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (match.GroupResult, error) {
		var g match.GroupResult
		err := row.Scan(&g.GroupID, &g.Matched, &g.Total)
		return g, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan groups: %w", err)
	}
	return &r, nil
}

// UnmatchedRow is one stored unmatched Hangouts message.
type UnmatchedRow struct {
	ConversationID string    `json:"conversation_id"`
	EventID        string    `json:"event_id"`
	EventAt        time.Time `json:"event_at"`
	Body           string    `json:"body"`
}

// Unmatched lists a run's unmatched events in dataset order.
func (s *Store) Unmatched(ctx context.Context, runID uuid.UUID, limit int) ([]UnmatchedRow, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT conversation_id, event_id, event_at, body FROM reconcile_unmatched
		WHERE run_id = $1 ORDER BY position LIMIT $2`, runID, limit)
	if err != nil {
		return nil, fmt.Errorf("query unmatched: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByPos[UnmatchedRow])
	if err != nil {
		return nil, fmt.Errorf("scan unmatched: %w", err)
	}
	return out, nil
}
