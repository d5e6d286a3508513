package logging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	// MaxRetainedTranscripts is the number of job transcripts kept on disk.
	MaxRetainedTranscripts = 10

	transcriptPrefix  = "log_"
	transcriptSuffix  = ".txt"
	transcriptPattern = transcriptPrefix + "*" + transcriptSuffix
	transcriptLayout  = "20060102_150405"
)

// Transcript accumulates the verbatim text of one job run.
type Transcript struct {
	mu    sync.Mutex
	lines []string
}

// Append adds one line to the transcript.
func (t *Transcript) Append(line string) {
	t.mu.Lock()
	t.lines = append(t.lines, line)
	t.mu.Unlock()
}

// String joins the transcript lines with newlines.
func (t *Transcript) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.lines) == 0 {
		return ""
	}
	return strings.Join(t.lines, "\n") + "\n"
}

// TranscriptStore persists job transcripts and enforces the retention limit.
type TranscriptStore struct {
	Dir    string
	Keep   int
	Logger *slog.Logger

	now func() time.Time
}

// NewTranscriptStore returns a store keeping MaxRetainedTranscripts files in dir.
func NewTranscriptStore(dir string, logger *slog.Logger) *TranscriptStore {
	return &TranscriptStore{Dir: dir, Keep: MaxRetainedTranscripts, Logger: logger}
}

// Persist writes transcript to a new timestamped file and prunes the oldest
// transcripts beyond the retention limit. It returns the written path.
func (s *TranscriptStore) Persist(transcript string) (string, error) {
	if strings.TrimSpace(s.Dir) == "" {
		return "", fmt.Errorf("transcript directory not configured")
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create transcript directory: %w", err)
	}
	now := time.Now
	if s.now != nil {
		now = s.now
	}
	name := transcriptName(now())
	path := filepath.Join(s.Dir, name)
	if err := os.WriteFile(path, []byte(transcript), 0o644); err != nil {
		return "", fmt.Errorf("write transcript: %w", err)
	}

	keep := s.Keep
	if keep <= 0 {
		keep = MaxRetainedTranscripts
	}
	if _, err := PruneOldest(s.Logger, s.Dir, transcriptPattern, keep); err != nil {
		return path, err
	}
	return path, nil
}

// transcriptName stamps a transcript file to microsecond resolution.
func transcriptName(t time.Time) string {
	return fmt.Sprintf("%s%s_%06d%s", transcriptPrefix, t.Format(transcriptLayout), t.Nanosecond()/1000, transcriptSuffix)
}

// TranscriptInfo describes one retained transcript.
type TranscriptInfo struct {
	Path    string    `json:"path"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// List returns retained transcripts, newest first.
func (s *TranscriptStore) List() ([]TranscriptInfo, error) {
	matches, err := filepath.Glob(filepath.Join(s.Dir, transcriptPattern))
	if err != nil {
		return nil, err
	}
	out := make([]TranscriptInfo, 0, len(matches))
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		out = append(out, TranscriptInfo{Path: path, Size: info.Size(), ModTime: info.ModTime()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ModTime.After(out[j].ModTime) })
	return out, nil
}
