package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"
)

func seedTranscripts(t *testing.T, dir string, count int, base time.Time) []string {
	t.Helper()
	paths := make([]string, 0, count)
	for i := 0; i < count; i++ {
		path := filepath.Join(dir, fmt.Sprintf("log_20240101_0000%02d_000000.txt", i))
		if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
			t.Fatalf("write seed: %v", err)
		}
		mtime := base.Add(time.Duration(i) * time.Minute)
		if err := os.Chtimes(path, mtime, mtime); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
		paths = append(paths, path)
	}
	return paths
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, transcriptPattern))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	sort.Strings(matches)
	return matches
}

func TestTranscriptStorePersistPrunesOldest(t *testing.T) {
	dir := t.TempDir()
	seeded := seedTranscripts(t, dir, 11, time.Now().Add(-time.Hour))

	store := NewTranscriptStore(dir, NewNop())
	path, err := store.Persist("frame=1\n")
	if err != nil {
		t.Fatalf("Persist returned error: %v", err)
	}

	remaining := listDir(t, dir)
	if len(remaining) != MaxRetainedTranscripts {
		t.Fatalf("remaining = %d, want %d", len(remaining), MaxRetainedTranscripts)
	}
	for _, gone := range seeded[:2] {
		if _, err := os.Stat(gone); !os.IsNotExist(err) {
			t.Fatalf("expected %s to be removed", gone)
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read persisted transcript: %v", err)
	}
	if string(data) != "frame=1\n" {
		t.Fatalf("transcript = %q", data)
	}
}

func TestTranscriptStoreKeepsNewestWhenAlreadyFull(t *testing.T) {
	dir := t.TempDir()
	seedTranscripts(t, dir, 12, time.Now().Add(-time.Hour))

	store := NewTranscriptStore(dir, nil)
	path, err := store.Persist("done")
	if err != nil {
		t.Fatalf("Persist returned error: %v", err)
	}
	if got := len(listDir(t, dir)); got != MaxRetainedTranscripts {
		t.Fatalf("remaining = %d, want %d", got, MaxRetainedTranscripts)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("new transcript missing: %v", err)
	}
}

func TestTranscriptStoreFilename(t *testing.T) {
	dir := t.TempDir()
	store := NewTranscriptStore(dir, nil)
	store.now = func() time.Time { return time.Date(2024, 3, 9, 14, 5, 7, 123456000, time.UTC) }

	path, err := store.Persist("x")
	if err != nil {
		t.Fatalf("Persist returned error: %v", err)
	}
	if got := filepath.Base(path); got != "log_20240309_140507_123456.txt" {
		t.Fatalf("filename = %q", got)
	}
}

func TestTranscriptStoreSameSecondDoesNotCollide(t *testing.T) {
	dir := t.TempDir()
	store := NewTranscriptStore(dir, nil)
	stamps := []time.Time{
		time.Date(2024, 3, 9, 14, 5, 7, 123456000, time.UTC),
		time.Date(2024, 3, 9, 14, 5, 7, 999999000, time.UTC),
	}
	var paths []string
	for _, ts := range stamps {
		store.now = func() time.Time { return ts }
		path, err := store.Persist(ts.String())
		if err != nil {
			t.Fatalf("Persist returned error: %v", err)
		}
		paths = append(paths, path)
	}
	if paths[0] == paths[1] {
		t.Fatalf("both persists wrote %s", paths[0])
	}
	if got := filepath.Base(paths[1]); got != "log_20240309_140507_999999.txt" {
		t.Fatalf("filename = %q", got)
	}
	if got := len(listDir(t, dir)); got != 2 {
		t.Fatalf("remaining = %d, want 2", got)
	}
}

func TestPruneOldestIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	seedTranscripts(t, dir, 3, time.Now().Add(-time.Hour))
	other := filepath.Join(dir, "videomixer.log")
	if err := os.WriteFile(other, []byte("diag"), 0o644); err != nil {
		t.Fatal(err)
	}

	removed, err := PruneOldest(nil, dir, transcriptPattern, 1)
	if err != nil {
		t.Fatalf("PruneOldest: %v", err)
	}
	if len(removed) != 2 {
		t.Fatalf("removed = %v, want 2 entries", removed)
	}
	if _, err := os.Stat(other); err != nil {
		t.Fatalf("unrelated file removed: %v", err)
	}
}

func TestTranscriptAppend(t *testing.T) {
	var tr Transcript
	if tr.String() != "" {
		t.Fatal("empty transcript should render empty")
	}
	tr.Append("a")
	tr.Append("b")
	if got := tr.String(); got != "a\nb\n" {
		t.Fatalf("String() = %q", got)
	}
}
