package match

import (
	"strings"

	"github.com/MikeSquared-Agency/reconciler/internal/takeout"
)

// Google Chat writes these notices where Hangouts recorded a call event. They
// have no chat counterpart in the legacy export.
const (
	CallAttemptedEN = "A call has been attempted"
	CallAttemptedFR = "Un appel a été tenté"
)

// CallLinkPrefix marks an annotation that embeds a call link.
const CallLinkPrefix = "https://meet.google.com/"

// Eligible reports whether a Google Chat message takes part in matching.
func Eligible(m takeout.NewMessage) bool {
	text := m.TextValue()
	if text == "" {
		return false
	}
	if strings.HasPrefix(text, CallAttemptedEN) || strings.HasPrefix(text, CallAttemptedFR) {
		return false
	}
	return !hasCallLink(m)
}

// hasCallLink only inspects the first annotation.
func hasCallLink(m takeout.NewMessage) bool {
	if len(m.Annotations) == 0 {
		return false
	}
	meta := m.Annotations[0].URLMetadata
	if meta == nil || meta.URL == nil {
		return false
	}
	return strings.HasPrefix(meta.URL.Value, CallLinkPrefix)
}
