package takeout

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleHangouts = `{
  "conversations": [
    {
      "conversation": {"conversation_id": {"id": "Ugw1"}},
      "events": [
        {
          "conversation_id": {"id": "Ugw1"},
          "event_id": "7-H0Z7-aaa",
          "event_type": "REGULAR_CHAT_MESSAGE",
          "timestamp": "1443635620000000",
          "chat_message": {"message_content": {"segment": [
            {"type": "LINK", "text": "http://x"},
            {"type": "LINE_BREAK"},
            {"type": "LINK", "text": "http://x"}
          ]}}
        },
        {
          "conversation_id": {"id": "Ugw1"},
          "event_id": "7-H0Z7-bbb",
          "event_type": "ADD_USER",
          "timestamp": 1443635630000000
        }
      ]
    },
    {
      "conversation": {},
      "events": [
        {
          "conversation_id": {"id": "Ugw2"},
          "event_id": "7-H0Z7-ccc",
          "event_type": "REGULAR_CHAT_MESSAGE",
          "timestamp": "1443635640000000",
          "chat_message": {"message_content": {"attachment": []}}
        }
      ]
    }
  ]
}`

func TestDecodeLegacy(t *testing.T) {
	ds, err := DecodeLegacy(strings.NewReader(sampleHangouts))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ds.Conversations) != 2 {
		t.Fatalf("expected 2 conversations, got %d", len(ds.Conversations))
	}
	if ds.EventCount() != 3 {
		t.Errorf("expected 3 events, got %d", ds.EventCount())
	}

	c1 := ds.Conversations[0]
	if c1.ID != "Ugw1" {
		t.Errorf("conversation id = %q", c1.ID)
	}
	ev := c1.Events[0]
	if ev.ID != "7-H0Z7-aaa" || ev.Kind != KindChatMessage || ev.TimestampMicros != 1443635620000000 {
		t.Errorf("event[0] = %+v", ev)
	}
	if ev.ConversationID != "Ugw1" {
		t.Errorf("event conversation id = %q", ev.ConversationID)
	}
	if ev.Chat == nil || len(ev.Chat.Segments) != 3 {
		t.Fatalf("expected 3 segments, got %+v", ev.Chat)
	}
	if ev.Chat.Segments[1].Kind != SegmentLineBreak || ev.Chat.Segments[1].Text != nil {
		t.Errorf("line break segment = %+v", ev.Chat.Segments[1])
	}

	member := c1.Events[1]
	if member.Chat != nil {
		t.Error("membership event should have no chat payload")
	}
	if member.TimestampMicros != 1443635630000000 {
		t.Errorf("numeric timestamp = %d", member.TimestampMicros)
	}
	if member.Kind.CarriesChat() {
		t.Error("ADD_USER must not carry chat")
	}

	c2 := ds.Conversations[1]
	if c2.ID != "Ugw2" {
		t.Errorf("expected conversation id from event, got %q", c2.ID)
	}
	if c2.Events[0].Chat == nil || len(c2.Events[0].Chat.Segments) != 0 {
		t.Errorf("attachment-only message should have an empty payload, got %+v", c2.Events[0].Chat)
	}
}

func TestDecodeLegacy_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not json", `{`},
		{"no conversations", `{}`},
		{"no conversation id", `{"conversations":[{"conversation":{},"events":[]}]}`},
		{"no event id", `{"conversations":[{"conversation":{"conversation_id":{"id":"c"}},"events":[{"timestamp":"1"}]}]}`},
		{"no timestamp", `{"conversations":[{"conversation":{"conversation_id":{"id":"c"}},"events":[{"event_id":"e"}]}]}`},
		{"bad timestamp", `{"conversations":[{"conversation":{"conversation_id":{"id":"c"}},"events":[{"event_id":"e","timestamp":"soon"}]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeLegacy(strings.NewReader(tt.doc)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadLegacy(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Hangouts.json")
	if err := os.WriteFile(path, []byte(sampleHangouts), 0o644); err != nil {
		t.Fatal(err)
	}

	ds, err := LoadLegacy(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ds.Conversations) != 2 {
		t.Errorf("expected 2 conversations, got %d", len(ds.Conversations))
	}
}

func TestLoadLegacy_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadLegacy(filepath.Join(dir, "missing.json"))
	var le *LoadError
	if !errors.As(err, &le) {
		t.Fatalf("expected *LoadError for missing file, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected wrapped ErrNotExist, got %v", err)
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`{"conversations": 3}`), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err = LoadLegacy(bad)
	if !errors.As(err, &le) {
		t.Fatalf("expected *LoadError for malformed file, got %v", err)
	}
	if le.Source != bad {
		t.Errorf("source = %q, want %q", le.Source, bad)
	}
}
