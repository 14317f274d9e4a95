package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/MikeSquared-Agency/reconciler/internal/match"
	"github.com/MikeSquared-Agency/reconciler/internal/takeout"
)

const maxPreview = 80

// WriteText renders a human readable report. At most limit unmatched events
// are listed; a negative limit lists them all.
func WriteText(w io.Writer, run *Run, limit int) error {
	var sb strings.Builder
	res := run.Result

	fmt.Fprintf(&sb, "=== Reconciliation %s ===\n", run.ID)
	fmt.Fprintf(&sb, "Takeout: %s\n", run.TakeoutDir)
	if run.GroupPrefix != "" {
		fmt.Fprintf(&sb, "Groups: only %q\n", run.GroupPrefix+"*")
	}
	fmt.Fprintf(&sb, "Hangouts: %s conversations, %s events\n",
		humanize.Comma(int64(run.LegacyConversations)), humanize.Comma(int64(run.LegacyEvents)))
	fmt.Fprintf(&sb, "Duration: %s\n\n", run.Duration().Round(time.Millisecond))

	width := 0
	for _, g := range res.Groups {
		width = max(width, len(g.GroupID))
	}
	for _, g := range res.Groups {
		fmt.Fprintf(&sb, "  %-*s  %s\n", width, g.GroupID, ratio(g.Matched, g.Total))
	}

	matched, total := res.Totals()
	fmt.Fprintf(&sb, "\nMatched: %s\n", ratio(matched, total))
	fmt.Fprintf(&sb, "Unmatched Hangouts messages: %s\n", humanize.Comma(int64(len(res.Unmatched))))

	shown := len(res.Unmatched)
	if limit >= 0 && limit < shown {
		shown = limit
	}
	for _, ev := range res.Unmatched[:shown] {
		fmt.Fprintf(&sb, "  %s  %s  %s  %q\n",
			eventTime(ev), ev.ConversationID, ev.ID, preview(match.Join(ev)))
	}
	if rest := len(res.Unmatched) - shown; rest > 0 {
		fmt.Fprintf(&sb, "  ... and %s more\n", humanize.Comma(int64(rest)))
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// Summary is a short Slack-formatted digest of a run.
func Summary(run *Run) string {
	var sb strings.Builder
	res := run.Result
	matched, total := res.Totals()

	sb.WriteString("*Takeout reconciliation*\n")
	fmt.Fprintf(&sb, "Run `%s` over %d groups\n", run.ID, len(res.Groups))
	fmt.Fprintf(&sb, "Matched: %s\n", ratio(matched, total))
	fmt.Fprintf(&sb, "Unmatched Hangouts messages: %s\n", humanize.Comma(int64(len(res.Unmatched))))

	for _, g := range res.Groups {
		if g.Total > 0 && g.Matched < g.Total {
			fmt.Fprintf(&sb, "  - %s: %s\n", g.GroupID, ratio(g.Matched, g.Total))
		}
	}
	return sb.String()
}

func ratio(matched, total int) string {
	pct := 0.0
	if total > 0 {
		pct = 100 * float64(matched) / float64(total)
	}
	return fmt.Sprintf("%s/%s (%.1f%%)", humanize.Comma(int64(matched)), humanize.Comma(int64(total)), pct)
}

func eventTime(ev takeout.LegacyEvent) string {
	return time.UnixMicro(ev.TimestampMicros).UTC().Format(time.RFC3339)
}

func preview(s string) string {
	r := []rune(s)
	if len(r) <= maxPreview {
		return s
	}
	return string(r[:maxPreview]) + "…"
}
