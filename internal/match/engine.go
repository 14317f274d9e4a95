package match

import (
	"context"
	"errors"
	"log/slog"

	"github.com/MikeSquared-Agency/reconciler/internal/takeout"
)

// GroupResult is the outcome for one Google Chat group.
type GroupResult struct {
	GroupID string `json:"group_id"`
	Matched int    `json:"matched"`
	Total   int    `json:"total"`
}

// Ratio returns Matched/Total, or 0 for a group with no eligible messages.
func (g GroupResult) Ratio() float64 {
	if g.Total == 0 {
		return 0
	}
	return float64(g.Matched) / float64(g.Total)
}

// Match pairs a Chat message with the legacy event it consumed.
type Match struct {
	GroupID        string  `json:"group_id"`
	MessageIndex   int     `json:"message_index"`
	MessageID      string  `json:"message_id,omitempty"`
	ConversationID string  `json:"conversation_id"`
	EventID        string  `json:"event_id"`
	Text           string  `json:"text"`
	DeltaMillis    float64 `json:"delta_ms"`
}

// Result is a completed reconciliation.
type Result struct {
	Groups    []GroupResult         `json:"groups"`
	Matches   []Match               `json:"matches"`
	Unmatched []takeout.LegacyEvent `json:"unmatched"`
}

// Totals sums matched and eligible messages over all groups.
func (r *Result) Totals() (matched, total int) {
	for _, g := range r.Groups {
		matched += g.Matched
		total += g.Total
	}
	return matched, total
}

// Engine matches Google Chat groups against a Hangouts dataset.
type Engine struct {
	logger  *slog.Logger
	onGroup func(GroupResult)
}

// New creates an engine.
func New(logger *slog.Logger) *Engine {
	return &Engine{logger: logger}
}

// OnGroup registers fn to be called with each group's result as soon as the
// group has been scanned, before the next group is loaded.
func (e *Engine) OnGroup(fn func(GroupResult)) {
	e.onGroup = fn
}

// Run reconciles groups, in the given order, against ds. Each legacy event is
// consumed by at most one message: the first eligible message, in group then
// message order, that matches it. ds is read but never modified, so Run can be
// repeated on the same dataset.
//
// Only a failure to load a group aborts the run; it is returned as a
// *takeout.LoadError and no partial result is produced.
func (e *Engine) Run(ctx context.Context, ds *takeout.LegacyDataset, groups []takeout.GroupLoader) (*Result, error) {
	if ds == nil {
		return nil, &takeout.LoadError{Source: "legacy dataset", Err: errors.New("no dataset")}
	}

	l := newLedger(ds)
	res := &Result{Groups: make([]GroupResult, 0, len(groups))}

	for _, loader := range groups {
		group, err := loader.Load(ctx)
		if err != nil {
			var le *takeout.LoadError
			if !errors.As(err, &le) {
				err = &takeout.LoadError{Source: loader.ID(), Err: err}
			}
			return nil, err
		}

		gr := e.scanGroup(l, loader.ID(), group, res)
		res.Groups = append(res.Groups, gr)

		e.logger.Info("group reconciled",
			"group", gr.GroupID,
			"matched", gr.Matched,
			"total", gr.Total,
		)
		if e.onGroup != nil {
			e.onGroup(gr)
		}
	}

	res.Unmatched = l.unclaimedChat()
	return res, nil
}

func (e *Engine) scanGroup(l *ledger, groupID string, group *takeout.NewGroup, res *Result) GroupResult {
	gr := GroupResult{GroupID: groupID}

	for i, msg := range group.Messages {
		if !Eligible(msg) {
			continue
		}
		gr.Total++

		raw, ok := EffectiveCreated(msg)
		if !ok {
			e.logger.Debug("message has no created date", "group", groupID, "index", i)
			continue
		}
		created, err := ParseCreated(raw)
		if err != nil {
			e.logger.Debug("skipping message", "group", groupID, "index", i, "error", err)
			continue
		}

		text := msg.TextValue()
		hit := l.first(text, created)
		if hit == nil {
			continue
		}
		l.claim(hit)
		gr.Matched++

		res.Matches = append(res.Matches, Match{
			GroupID:        groupID,
			MessageIndex:   i,
			MessageID:      msg.ID,
			ConversationID: hit.event.ConversationID,
			EventID:        hit.event.ID,
			Text:           text,
			DeltaMillis:    deltaMillis(hit.millis, created),
		})
		e.logger.Debug("matched message",
			"group", groupID,
			"index", i,
			"event_id", hit.event.ID,
			"conversation_id", hit.event.ConversationID,
		)
	}

	return gr
}
