package report

import (
	"encoding/json"
	"io"
)

// WriteJSON writes the full run, including every match and unmatched event.
func WriteJSON(w io.Writer, run *Run) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(run)
}
