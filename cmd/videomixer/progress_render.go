package main

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"videomixer/internal/encodejob"
	"videomixer/internal/logging"
)

const (
	progressBarWidth    = 30
	progressRedrawEvery = 200 * time.Millisecond
)

// progressRenderer turns encode events into terminal output. On a terminal it
// redraws one line in place; otherwise it prints a line per 10% step.
type progressRenderer struct {
	mu       sync.Mutex
	out      io.Writer
	live     bool
	verbose  bool
	redraw   rate.Sometimes
	sampler  *logging.ProgressSampler
	started  time.Time
	now      func() time.Time
	drawn    bool
	terminal *encodejob.Event
	saved    string
}

func newProgressRenderer(out io.Writer, live, verbose bool) *progressRenderer {
	return &progressRenderer{
		out:     out,
		live:    live,
		verbose: verbose,
		redraw:  rate.Sometimes{Interval: progressRedrawEvery},
		sampler: logging.NewProgressSampler(10),
		now:     time.Now,
	}
}

func (r *progressRenderer) handle(e encodejob.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch e.Type {
	case encodejob.EventStarted:
		r.started = e.Time
		if r.started.IsZero() {
			r.started = r.now()
		}
	case encodejob.EventLog:
		if r.verbose {
			r.clearLine()
			fmt.Fprintln(r.out, e.Line)
		}
	case encodejob.EventProgress:
		r.progress(e.Fraction)
	case encodejob.EventSucceeded, encodejob.EventFailed, encodejob.EventCancelled:
		ev := e
		r.terminal = &ev
		if r.drawn {
			fmt.Fprintln(r.out)
			r.drawn = false
		}
	case encodejob.EventTranscriptSaved:
		r.saved = e.TranscriptPath
	}
}

func (r *progressRenderer) progress(fraction float64) {
	if !r.live {
		if r.sampler.Sample(fraction) {
			fmt.Fprintln(r.out, r.statusText(fraction))
		}
		return
	}
	draw := func() {
		fmt.Fprintf(r.out, "\r%s", r.statusText(fraction))
		r.drawn = true
	}
	if fraction >= 1 {
		draw()
		return
	}
	r.redraw.Do(draw)
}

func (r *progressRenderer) statusText(fraction float64) string {
	filled := int(fraction * progressBarWidth)
	if filled > progressBarWidth {
		filled = progressBarWidth
	}
	bar := strings.Repeat("#", filled) + strings.Repeat(".", progressBarWidth-filled)
	line := fmt.Sprintf("[%s] %5.1f%%", bar, fraction*100)
	if r.started.IsZero() {
		return line
	}
	elapsed := r.now().Sub(r.started)
	line += "  elapsed " + formatClock(elapsed)
	if eta, ok := estimateRemaining(elapsed, fraction); ok {
		line += "  eta " + formatClock(eta)
	}
	return line
}

func (r *progressRenderer) clearLine() {
	if r.live && r.drawn {
		fmt.Fprint(r.out, "\r\x1b[2K")
		r.drawn = false
	}
}

// result returns the terminal event and transcript path observed so far.
func (r *progressRenderer) result() (*encodejob.Event, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.terminal, r.saved
}
