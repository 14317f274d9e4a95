package match

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/reconciler/internal/takeout"
)

// Tolerance is the largest gap, exclusive, between two timestamps that still
// denote the same message.
const Tolerance = 2000 * time.Millisecond

// createdLayout parses Google Chat dates such as
// "Wednesday, September 30, 2015 5:53:40 PM UTC" once "at " is removed.
// Names must be English whatever the export language.
const createdLayout = "Monday, January 2, 2006 3:04:05 PM MST"

// zoneOffsets pins the abbreviations Chat exports may carry, so parsing does
// not depend on the host's local zone.
var zoneOffsets = map[string]int{
	"UTC": 0,
	"UT":  0,
	"GMT": 0,
	"EST": -5 * 3600,
	"EDT": -4 * 3600,
	"CST": -6 * 3600,
	"CDT": -5 * 3600,
	"MST": -7 * 3600,
	"MDT": -6 * 3600,
	"PST": -8 * 3600,
	"PDT": -7 * 3600,
}

// TimestampParseError is returned for a created date that does not parse.
// It only ever disqualifies one message.
type TimestampParseError struct {
	Value string
	Err   error
}

func (e *TimestampParseError) Error() string {
	return fmt.Sprintf("parse created date %q: %v", e.Value, e.Err)
}

func (e *TimestampParseError) Unwrap() error {
	return e.Err
}

// EffectiveCreated returns the message's created date, falling back to the
// first previous version's.
func EffectiveCreated(m takeout.NewMessage) (string, bool) {
	if m.CreatedDate != nil {
		return *m.CreatedDate, true
	}
	if len(m.PreviousVersions) > 0 && m.PreviousVersions[0].CreatedDate != nil {
		return *m.PreviousVersions[0].CreatedDate, true
	}
	return "", false
}

// ParseCreated parses a Google Chat created date.
func ParseCreated(s string) (time.Time, error) {
	cleaned := strings.Replace(s, "at ", "", 1)
	t, err := time.Parse(createdLayout, cleaned)
	if err != nil {
		return time.Time{}, &TimestampParseError{Value: s, Err: err}
	}

	name, _ := t.Zone()
	if off, ok := zoneOffsets[name]; ok {
		y, mo, d := t.Date()
		h, mi, sec := t.Clock()
		t = time.Date(y, mo, d, h, mi, sec, t.Nanosecond(), time.FixedZone(name, off))
	}
	return t, nil
}

// Within reports whether a legacy timestamp in microseconds and a Chat
// created date are the same moment. Unparseable dates never match.
func Within(legacyMicros int64, created string) bool {
	t, err := ParseCreated(created)
	if err != nil {
		return false
	}
	return withinMillis(legacyMillis(legacyMicros), t)
}

// legacyMillis keeps the sub-millisecond fraction; nothing is rounded before
// the comparison.
func legacyMillis(micros int64) float64 {
	return float64(micros) / 1000
}

func withinMillis(legacyMs float64, t time.Time) bool {
	return math.Abs(deltaMillis(legacyMs, t)) < float64(Tolerance.Milliseconds())
}

func deltaMillis(legacyMs float64, t time.Time) float64 {
	return legacyMs - float64(t.UnixMilli())
}
