package logging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
)

// PruneOldest keeps at most keep files matching pattern in dir, removing the
// oldest by modification time first. Files with equal modification times are
// ordered by name. It returns the removed paths.
func PruneOldest(logger *slog.Logger, dir, pattern string, keep int) ([]string, error) {
	if keep < 0 {
		keep = 0
	}
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	type entry struct {
		path  string
		mtime int64
	}
	entries := make([]entry, 0, len(matches))
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		entries = append(entries, entry{path: path, mtime: info.ModTime().UnixNano()})
	}
	if len(entries) <= keep {
		return nil, nil
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].mtime != entries[j].mtime {
			return entries[i].mtime < entries[j].mtime
		}
		return entries[i].path < entries[j].path
	})

	var removed []string
	for _, e := range entries[:len(entries)-keep] {
		if err := os.Remove(e.path); err != nil {
			if logger != nil {
				WarnWithContext(logger, "log retention: failed to remove file", "log_retention_failed",
					String("path", e.path),
					Error(err),
					String(FieldErrorHint, "check file permissions in the transcript directory"),
					String(FieldImpact, "more transcripts than the retention limit remain on disk"),
				)
			}
			continue
		}
		removed = append(removed, e.path)
	}
	if logger != nil && len(removed) > 0 {
		logger.Debug("log retention pruned files", Int("removed", len(removed)), String("dir", dir))
	}
	return removed, nil
}
