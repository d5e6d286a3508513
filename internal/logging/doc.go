// Package logging assembles structured slog loggers and the transcript store
// used by videomixer.
//
// It owns the console and JSON handlers, tees diagnostic output into the log
// directory, and exposes context-aware helpers so encode code can tag log lines
// with job IDs, stages, and correlation IDs. The TranscriptStore persists the
// per-job encoder transcript and keeps only the most recent files.
package logging
