package takeout

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
)

// hoExport mirrors the top level of Hangouts.json.
type hoExport struct {
	Conversations *[]hoConversation `json:"conversations"`
}

type hoConversation struct {
	Conversation struct {
		ConversationID hoID `json:"conversation_id"`
	} `json:"conversation"`
	Events []hoEvent `json:"events"`
}

type hoID struct {
	ID string `json:"id"`
}

type hoEvent struct {
	ConversationID hoID            `json:"conversation_id"`
	EventID        string          `json:"event_id"`
	EventType      string          `json:"event_type"`
	Timestamp      json.RawMessage `json:"timestamp"`
	ChatMessage    *struct {
		MessageContent *struct {
			Segment []Segment `json:"segment"`
		} `json:"message_content"`
	} `json:"chat_message"`
}

// LoadLegacy reads and validates a Hangouts.json export. Any failure is a
// *LoadError.
func LoadLegacy(path string) (*LegacyDataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, loadErr(path, fmt.Errorf("open: %w", err))
	}
	defer f.Close()

	ds, err := DecodeLegacy(f)
	if err != nil {
		return nil, loadErr(path, err)
	}
	return ds, nil
}

// DecodeLegacy decodes a Hangouts export and checks every record once so the
// matcher never sees a partially formed event.
func DecodeLegacy(r io.Reader) (*LegacyDataset, error) {
	var raw hoExport
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if raw.Conversations == nil {
		return nil, errors.New("missing conversations array")
	}

	ds := &LegacyDataset{Conversations: make([]LegacyConversation, 0, len(*raw.Conversations))}
	for ci, rc := range *raw.Conversations {
		convID := rc.Conversation.ConversationID.ID
		if convID == "" && len(rc.Events) > 0 {
			convID = rc.Events[0].ConversationID.ID
		}
		if convID == "" {
			return nil, fmt.Errorf("conversation %d: missing conversation id", ci)
		}

		conv := LegacyConversation{ID: convID, Events: make([]LegacyEvent, 0, len(rc.Events))}
		for ei, re := range rc.Events {
			ev, err := convertEvent(convID, re)
			if err != nil {
				return nil, fmt.Errorf("conversation %s event %d: %w", convID, ei, err)
			}
			conv.Events = append(conv.Events, ev)
		}
		ds.Conversations = append(ds.Conversations, conv)
	}
	return ds, nil
}

func convertEvent(convID string, re hoEvent) (LegacyEvent, error) {
	if re.EventID == "" {
		return LegacyEvent{}, errors.New("missing event_id")
	}
	ts, err := parseMicros(re.Timestamp)
	if err != nil {
		return LegacyEvent{}, fmt.Errorf("event %s: %w", re.EventID, err)
	}

	ev := LegacyEvent{
		ID:              re.EventID,
		ConversationID:  convID,
		Kind:            EventKind(re.EventType),
		TimestampMicros: ts,
	}
	if re.ChatMessage != nil {
		ev.Chat = &ChatPayload{}
		if re.ChatMessage.MessageContent != nil {
			ev.Chat.Segments = re.ChatMessage.MessageContent.Segment
		}
	}
	return ev, nil
}

// parseMicros accepts the timestamp either as a JSON string ("1443629620000000",
// which is what Takeout writes) or as a bare number.
func parseMicros(raw json.RawMessage) (int64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, errors.New("missing timestamp")
	}
	s := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, fmt.Errorf("timestamp: %w", err)
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("timestamp %q is not an integer", s)
	}
	return n, nil
}
