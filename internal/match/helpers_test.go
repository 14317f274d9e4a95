package match

import (
	"context"

	"github.com/MikeSquared-Agency/reconciler/internal/takeout"
)

func strPtr(s string) *string {
	return &s
}

func seg(kind takeout.SegmentKind, text string) takeout.Segment {
	return takeout.Segment{Kind: kind, Text: strPtr(text)}
}

func chatEvent(id string, micros int64, segs ...takeout.Segment) takeout.LegacyEvent {
	return takeout.LegacyEvent{
		ID:              id,
		Kind:            takeout.KindChatMessage,
		Chat:            &takeout.ChatPayload{Segments: segs},
		TimestampMicros: micros,
	}
}

func message(text, created string) takeout.NewMessage {
	m := takeout.NewMessage{Text: strPtr(text)}
	if created != "" {
		m.CreatedDate = strPtr(created)
	}
	return m
}

// staticGroup is an in-memory GroupLoader that records when it is loaded.
type staticGroup struct {
	id    string
	msgs  []takeout.NewMessage
	err   error
	trace *[]string
}

func (g staticGroup) ID() string { return g.id }

func (g staticGroup) Load(ctx context.Context) (*takeout.NewGroup, error) {
	if g.trace != nil {
		*g.trace = append(*g.trace, "load:"+g.id)
	}
	if g.err != nil {
		return nil, g.err
	}
	return &takeout.NewGroup{ID: g.id, Messages: g.msgs}, nil
}
