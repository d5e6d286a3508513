package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// tone selects the bracketed tag and color of a report line.
type tone int

const (
	toneInfo tone = iota
	toneOK
	toneWarn
	toneError
)

var toneStyles = [...]struct {
	tag   string
	color string
}{
	toneInfo:  {"INFO", "\x1b[34m"},
	toneOK:    {"OK", "\x1b[32m"},
	toneWarn:  {"WARN", "\x1b[33m"},
	toneError: {"ERROR", "\x1b[31m"},
}

const ansiReset = "\x1b[0m"

// stateTone maps job and history states onto report tones.
func stateTone(state string) tone {
	switch strings.ToLower(state) {
	case "succeeded", "running":
		return toneOK
	case "cancelled", "interrupted":
		return toneWarn
	case "failed":
		return toneError
	default:
		return toneInfo
	}
}

// report writes aligned "label: [TAG] message" lines grouped in sections,
// colored only when out is a terminal.
type report struct {
	out      io.Writer
	color    bool
	sections int
	problems int
}

func newReport(out io.Writer) *report {
	return &report{out: out, color: isTerminal(out)}
}

func (r *report) section(title string) {
	if r.sections > 0 {
		fmt.Fprintln(r.out)
	}
	r.sections++
	header := "== " + strings.TrimSpace(title) + " =="
	r.paint(toneInfo, header)
	r.paint(toneInfo, strings.Repeat("-", len(header)))
}

// line prints one entry. Error lines count as problems.
func (r *report) line(t tone, label, message string) {
	if t == toneError {
		r.problems++
	}
	text := fmt.Sprintf("  %-22s [%s]", label+":", toneStyles[t].tag)
	if message != "" {
		text += " " + message
	}
	r.paint(t, text)
}

func (r *report) paint(t tone, text string) {
	if r.color {
		text = toneStyles[t].color + text + ansiReset
	}
	fmt.Fprintln(r.out, text)
}

// isTerminal reports whether writer is an interactive terminal.
func isTerminal(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
