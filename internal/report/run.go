package report

import (
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/reconciler/internal/match"
)

// Run describes one completed reconciliation and its result.
type Run struct {
	ID                  uuid.UUID     `json:"id"`
	TakeoutDir          string        `json:"takeout_dir"`
	GroupPrefix         string        `json:"group_prefix,omitempty"`
	StartedAt           time.Time     `json:"started_at"`
	FinishedAt          time.Time     `json:"finished_at"`
	LegacyConversations int           `json:"legacy_conversations"`
	LegacyEvents        int           `json:"legacy_events"`
	Result              *match.Result `json:"result"`
}

func (r *Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
