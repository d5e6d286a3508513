package chapters

import "testing"

func TestBuild(t *testing.T) {
	if got := Build([]float64{30, 45}, []string{"Intro", "Main"}); got != "00:00 Intro\n00:30 Main" {
		t.Fatalf("Build = %q", got)
	}
}

func TestBuildEmpty(t *testing.T) {
	if got := Build(nil, nil); got != "" {
		t.Fatalf("Build(nil) = %q", got)
	}
}

func TestBuildCrossesHour(t *testing.T) {
	got := Build([]float64{3599.9, 1.5, 10}, []string{"a", "b", "c"})
	want := "00:00 a\n59:59 b\n01:00:01 c"
	if got != want {
		t.Fatalf("Build = %q, want %q", got, want)
	}
}

func TestFormatOffset(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "00:00"},
		{59.999, "00:59"},
		{61, "01:01"},
		{3600, "01:00:00"},
		{36000 + 62.5, "10:01:02"},
		{0.1 + 0.2 + 0.7, "00:01"},
		{-3, "00:00"},
	}
	for _, tt := range tests {
		if got := FormatOffset(tt.seconds); got != tt.want {
			t.Errorf("FormatOffset(%v) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestBuildEmptyLabel(t *testing.T) {
	if got := Build([]float64{5, 5}, []string{"", "x"}); got != "00:00 \n00:05 x" {
		t.Fatalf("Build = %q", got)
	}
}
