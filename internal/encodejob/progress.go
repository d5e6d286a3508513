package encodejob

import (
	"bufio"
	"bytes"
	"math"
	"strconv"
	"strings"
)

const progressToken = "out_time_us="

// ParseProgress extracts the fraction from an out_time_us line. It reports
// false for other lines, non-decimal values, or a non-positive total.
func ParseProgress(line string, totalUS int64) (float64, bool) {
	if totalUS <= 0 || !strings.Contains(line, progressToken) {
		return 0, false
	}
	raw := strings.TrimSpace(line[strings.LastIndexByte(line, '=')+1:])
	if raw == "" {
		return 0, false
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	us, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	fraction := float64(us) / float64(totalUS)
	fraction = math.Max(0, math.Min(1, fraction))
	return math.Round(fraction*1e4) / 1e4, true
}

// scanLines splits on '\n' or '\r' so carriage-return status redraws become
// separate lines. Empty tokens are returned and skipped by the caller.
func scanLines(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

var _ bufio.SplitFunc = scanLines
