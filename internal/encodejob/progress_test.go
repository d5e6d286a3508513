package encodejob

import (
	"bufio"
	"strings"
	"testing"
)

func TestParseProgress(t *testing.T) {
	cases := []struct {
		line  string
		total int64
		want  float64
		ok    bool
	}{
		{"out_time_us=5000000", 10_000_000, 0.5, true},
		{"out_time_us=12345678", 10_000_000, 1, true},
		{"out_time_us=1", 30_000_000, 0, true},
		{"out_time_us=3333333", 10_000_000, 0.3333, true},
		{"  out_time_us=2500000  ", 10_000_000, 0.25, true},
		{"out_time_us=N/A", 10_000_000, 0, false},
		{"out_time_us=-9223372036854775807", 10_000_000, 0, false},
		{"out_time_us=", 10_000_000, 0, false},
		{"out_time_ms=5000000", 10_000_000, 0, false},
		{"out_time_us=5000000", 0, 0, false},
		{"frame=10", 10_000_000, 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseProgress(tc.line, tc.total)
		if ok != tc.ok || got != tc.want {
			t.Errorf("ParseProgress(%q, %d) = %v, %v; want %v, %v", tc.line, tc.total, got, ok, tc.want, tc.ok)
		}
	}
}

func TestScanLinesSplitsCarriageReturns(t *testing.T) {
	scanner := bufio.NewScanner(strings.NewReader("a\rb\r\nc\n\nd"))
	scanner.Split(scanLines)
	var got []string
	for scanner.Scan() {
		if scanner.Text() != "" {
			got = append(got, scanner.Text())
		}
	}
	if strings.Join(got, ",") != "a,b,c,d" {
		t.Fatalf("unexpected tokens %v", got)
	}
}
