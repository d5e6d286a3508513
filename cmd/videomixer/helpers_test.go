package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"videomixer/internal/encodejob"
)

func TestFormatClock(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{0, "0:00"},
		{-time.Second, "0:00"},
		{59 * time.Second, "0:59"},
		{61*time.Second + 400*time.Millisecond, "1:01"},
		{time.Hour + 2*time.Minute + 3*time.Second, "1:02:03"},
	}
	for _, tc := range cases {
		if got := formatClock(tc.in); got != tc.want {
			t.Fatalf("formatClock(%s) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestEstimateRemaining(t *testing.T) {
	if _, ok := estimateRemaining(time.Minute, 0); ok {
		t.Fatal("expected no estimate at zero progress")
	}
	if _, ok := estimateRemaining(time.Minute, 1); ok {
		t.Fatal("expected no estimate when complete")
	}
	eta, ok := estimateRemaining(time.Minute, 0.25)
	if !ok || eta != 3*time.Minute {
		t.Fatalf("expected 3m remaining, got %s (%v)", eta, ok)
	}
}

func TestFormatBytes(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KiB"},
		{5 << 20, "5.0 MiB"},
		{3 << 30, "3.0 GiB"},
	}
	for _, tc := range cases {
		if got := formatBytes(tc.in); got != tc.want {
			t.Fatalf("formatBytes(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseIndexList(t *testing.T) {
	got, err := parseIndexList([]string{"1,3", " 4 "}, 4)
	if err != nil {
		t.Fatalf("parseIndexList: %v", err)
	}
	if !got[0] || got[1] || !got[2] || !got[3] {
		t.Fatalf("unexpected set %v", got)
	}
	if _, err := parseIndexList([]string{"0"}, 2); err == nil {
		t.Fatal("expected error for index 0")
	}
	if _, err := parseIndexList([]string{"x"}, 2); err == nil {
		t.Fatal("expected error for non-numeric index")
	}
}

func TestTitleCase(t *testing.T) {
	if got := titleCase("transcript_saved"); got != "Transcript Saved" {
		t.Fatalf("titleCase = %q", got)
	}
	if got := titleCase("  "); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}

func TestProgressRendererSampledOutput(t *testing.T) {
	var buf bytes.Buffer
	r := newProgressRenderer(&buf, false, false)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return start.Add(time.Minute) }

	r.handle(encodejob.Event{Type: encodejob.EventStarted, Time: start})
	r.handle(encodejob.Event{Type: encodejob.EventLog, Line: "frame=1"})
	for _, f := range []float64{0.01, 0.02, 0.15, 0.5, 1} {
		r.handle(encodejob.Event{Type: encodejob.EventProgress, Fraction: f})
	}
	r.handle(encodejob.Event{Type: encodejob.EventSucceeded, Chapters: "00:00 A"})
	r.handle(encodejob.Event{Type: encodejob.EventTranscriptSaved, TranscriptPath: "/tmp/log_1.txt"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 sampled lines, got %d:\n%s", len(lines), buf.String())
	}
	if strings.Contains(buf.String(), "frame=1") {
		t.Fatal("log lines should be hidden without verbose")
	}
	requireContains(t, lines[2], "50.0%")
	requireContains(t, lines[2], "eta 1:00")

	terminal, saved := r.result()
	if terminal == nil || terminal.Chapters != "00:00 A" || saved != "/tmp/log_1.txt" {
		t.Fatalf("unexpected result %+v %q", terminal, saved)
	}
}

func TestProgressRendererLiveRedraw(t *testing.T) {
	var buf bytes.Buffer
	r := newProgressRenderer(&buf, true, false)
	r.handle(encodejob.Event{Type: encodejob.EventProgress, Fraction: 0.1})
	r.handle(encodejob.Event{Type: encodejob.EventProgress, Fraction: 0.2})
	r.handle(encodejob.Event{Type: encodejob.EventProgress, Fraction: 1})
	r.handle(encodejob.Event{Type: encodejob.EventSucceeded})

	out := buf.String()
	if strings.Count(out, "\r") != 2 {
		t.Fatalf("expected first draw plus final draw, got %q", out)
	}
	if !strings.HasSuffix(out, "\n") {
		t.Fatalf("expected terminal newline, got %q", out)
	}
}
