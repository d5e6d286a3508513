package main

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"videomixer/internal/config"
)

// writeJSON prints v indented on the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}

func titleCase(value string) string {
	value = strings.ReplaceAll(strings.TrimSpace(value), "_", " ")
	if value == "" {
		return ""
	}
	return cases.Title(language.Und).String(value)
}

// formatClock renders d as H:MM:SS, or M:SS under an hour.
func formatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d.Round(time.Second) / time.Second)
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// estimateRemaining projects the time left from elapsed work and the
// completed fraction. ok is false until enough progress exists to estimate.
func estimateRemaining(elapsed time.Duration, fraction float64) (time.Duration, bool) {
	if fraction <= 0.01 || fraction >= 1 || elapsed <= 0 {
		return 0, false
	}
	total := float64(elapsed) / fraction
	return time.Duration(total - float64(elapsed)), true
}

func formatBytes(size int64) string {
	const unit = 1024
	if size < unit {
		return strconv.FormatInt(size, 10) + " B"
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(size)/float64(div), "KMGTPE"[exp])
}

func formatSeconds(seconds float64) string {
	if math.IsNaN(seconds) || seconds <= 0 {
		return "0:00"
	}
	return formatClock(time.Duration(seconds * float64(time.Second)))
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

// parseIndexList parses "1,3" style 1-based clip indices into a set of
// 0-based positions bounded by count.
func parseIndexList(raw []string, count int) (map[int]bool, error) {
	out := make(map[int]bool)
	for _, item := range raw {
		for _, part := range strings.Split(item, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			n, err := strconv.Atoi(part)
			if err != nil {
				return nil, fmt.Errorf("invalid clip index %q", part)
			}
			if n < 1 || n > count {
				return nil, fmt.Errorf("clip index %d out of range (1-%d)", n, count)
			}
			out[n-1] = true
		}
	}
	return out, nil
}

func expandPaths(paths []string) ([]string, error) {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		expanded, err := config.ExpandPath(p)
		if err != nil {
			return nil, err
		}
		out = append(out, expanded)
	}
	return out, nil
}
