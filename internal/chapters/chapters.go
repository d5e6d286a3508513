// Package chapters renders the chapter list appended to a finished job's
// transcript.
package chapters

import (
	"fmt"
	"math"
	"strings"
)

// Entry is one chapter mark.
type Entry struct {
	OffsetSeconds float64 `json:"offset_seconds"`
	Label         string  `json:"label"`
}

// Entries walks the clips in order, starting at offset zero and advancing by
// each clip's duration. durations and labels must have the same length.
func Entries(durations []float64, labels []string) []Entry {
	out := make([]Entry, 0, len(durations))
	offset := 0.0
	for i, d := range durations {
		out = append(out, Entry{OffsetSeconds: offset, Label: labels[i]})
		offset += d
	}
	return out
}

// FormatOffset renders seconds as MM:SS below one hour and HH:MM:SS otherwise.
// Fractional seconds are truncated.
func FormatOffset(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	// Round to microseconds first so accumulated float error does not drop a second.
	us := int64(math.Round(seconds * 1e6))
	total := us / 1_000_000
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h == 0 {
		return fmt.Sprintf("%02d:%02d", m, s)
	}
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// Render formats entries as "<offset> <label>" lines joined by newlines.
func Render(entries []Entry) string {
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = FormatOffset(e.OffsetSeconds) + " " + e.Label
	}
	return strings.Join(lines, "\n")
}

// Build is Render(Entries(durations, labels)).
func Build(durations []float64, labels []string) string {
	return Render(Entries(durations, labels))
}
