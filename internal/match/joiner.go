package match

import (
	"strings"

	"github.com/MikeSquared-Agency/reconciler/internal/takeout"
)

// linkEcho stands in for a LINK segment that Hangouts repeated after a line
// break. It never survives Join.
const linkEcho = "\x00link-echo\x00"

// Join renders a legacy event's segments as the plain text Google Chat shows
// for the same message. Events without a chat payload join to "".
//
// Hangouts sometimes exports a link as [LINK x, LINE_BREAK, LINK x]; Chat has
// only one x. Exactly that three-segment shape is collapsed.
func Join(e takeout.LegacyEvent) string {
	if e.Chat == nil || len(e.Chat.Segments) == 0 {
		return ""
	}

	var sb strings.Builder
	var prev, prev2 string
	for i, seg := range e.Chat.Segments {
		text := ""
		if seg.Text != nil {
			text = *seg.Text
		}

		resolved := text
		switch {
		case seg.Kind == takeout.SegmentLineBreak && text == "":
			resolved = "\n"
		case seg.Kind == takeout.SegmentLink && i >= 2 && prev == "\n" && text == prev2:
			resolved = linkEcho
		}

		sb.WriteString(resolved)
		prev2, prev = prev, resolved
	}

	return strings.ReplaceAll(sb.String(), "\n"+linkEcho, "")
}
