package takeout

// EventKind is the Hangouts event_type of a legacy event.
type EventKind string

const (
	KindChatMessage        EventKind = "REGULAR_CHAT_MESSAGE"
	KindHangoutEvent       EventKind = "HANGOUT_EVENT"
	KindAddUser            EventKind = "ADD_USER"
	KindRemoveUser         EventKind = "REMOVE_USER"
	KindRenameConversation EventKind = "RENAME_CONVERSATION"
)

// CarriesChat reports whether events of this kind hold a chat payload.
// Membership changes, renames and call events do not.
func (k EventKind) CarriesChat() bool {
	return k == KindChatMessage
}

// SegmentKind is the type of one segment of a legacy chat message.
type SegmentKind string

const (
	SegmentText      SegmentKind = "TEXT"
	SegmentLineBreak SegmentKind = "LINE_BREAK"
	SegmentLink      SegmentKind = "LINK"
)

// Segment is one piece of a legacy message body. Text is nil when the export
// omits it, which is normal for LINE_BREAK segments.
type Segment struct {
	Kind SegmentKind `json:"type"`
	Text *string     `json:"text,omitempty"`
}

// ChatPayload is the body of a legacy chat event.
type ChatPayload struct {
	Segments []Segment `json:"segments"`
}

// LegacyEvent is a single event of a Hangouts conversation.
type LegacyEvent struct {
	ID              string       `json:"id"`
	ConversationID  string       `json:"conversation_id"`
	Kind            EventKind    `json:"kind"`
	Chat            *ChatPayload `json:"chat,omitempty"`
	TimestampMicros int64        `json:"timestamp_micros"`
}

// LegacyConversation holds its events in export order.
type LegacyConversation struct {
	ID     string
	Events []LegacyEvent
}

// LegacyDataset is the whole Hangouts export. Conversations keep the order of
// the export's conversations array and events keep the order of each
// conversation's events array; matching depends on both.
type LegacyDataset struct {
	Conversations []LegacyConversation
}

// EventCount returns the number of events across all conversations.
func (d *LegacyDataset) EventCount() int {
	n := 0
	for _, c := range d.Conversations {
		n += len(c.Events)
	}
	return n
}

// WrappedURL is the Google Chat wrapper around annotation URLs.
type WrappedURL struct {
	Value string `json:"private_do_not_access_or_else_safe_url_wrapped_value"`
}

type URLMetadata struct {
	URL *WrappedURL `json:"url,omitempty"`
}

// Annotation is a rich-text annotation on a Google Chat message. Only URL
// metadata is decoded.
type Annotation struct {
	URLMetadata *URLMetadata `json:"url_metadata,omitempty"`
}

// MessageVersion is an earlier edit of a Google Chat message.
type MessageVersion struct {
	CreatedDate *string `json:"created_date,omitempty"`
}

// NewMessage is one message of a Google Chat group.
type NewMessage struct {
	ID               string           `json:"message_id,omitempty"`
	Text             *string          `json:"text,omitempty"`
	CreatedDate      *string          `json:"created_date,omitempty"`
	PreviousVersions []MessageVersion `json:"previous_message_versions,omitempty"`
	Annotations      []Annotation     `json:"annotations,omitempty"`
}

// TextValue returns the message text, or "" when absent.
func (m NewMessage) TextValue() string {
	if m.Text == nil {
		return ""
	}
	return *m.Text
}

// NewGroup is one Google Chat group with messages in export order.
type NewGroup struct {
	ID       string
	Messages []NewMessage
}
