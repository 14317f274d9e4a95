package match

import (
	"time"

	"github.com/MikeSquared-Agency/reconciler/internal/takeout"
)

// entry is one legacy event as the engine sees it. claimed moves from false
// to true at most once and never back.
type entry struct {
	event   *takeout.LegacyEvent
	text    string
	millis  float64
	claimed bool
}

// ledger tracks which legacy events have been consumed without touching the
// dataset it was built from. Entries keep dataset order.
type ledger struct {
	convs [][]entry
}

func newLedger(ds *takeout.LegacyDataset) *ledger {
	l := &ledger{convs: make([][]entry, len(ds.Conversations))}
	for ci := range ds.Conversations {
		events := ds.Conversations[ci].Events
		entries := make([]entry, len(events))
		for ei := range events {
			ev := &events[ei]
			entries[ei] = entry{
				event:  ev,
				text:   Join(*ev),
				millis: legacyMillis(ev.TimestampMicros),
			}
		}
		l.convs[ci] = entries
	}
	return l
}

// first returns the first unclaimed entry, in conversation then event order,
// whose text equals text and whose timestamp is within Tolerance of created.
func (l *ledger) first(text string, created time.Time) *entry {
	for ci := range l.convs {
		for ei := range l.convs[ci] {
			e := &l.convs[ci][ei]
			if e.claimed {
				continue
			}
			if withinMillis(e.millis, created) && e.text == text {
				return e
			}
		}
	}
	return nil
}

func (l *ledger) claim(e *entry) {
	e.claimed = true
}

// unclaimedChat lists the unclaimed events whose kind carries a chat payload.
func (l *ledger) unclaimedChat() []takeout.LegacyEvent {
	var out []takeout.LegacyEvent
	for ci := range l.convs {
		for _, e := range l.convs[ci] {
			if !e.claimed && e.event.Kind.CarriesChat() {
				out = append(out, *e.event)
			}
		}
	}
	return out
}
