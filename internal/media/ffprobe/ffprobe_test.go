package ffprobe

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type stubExecutor struct {
	output []byte
	err    error
	binary string
	args   []string
}

func (s *stubExecutor) Run(_ context.Context, binary string, args []string) ([]byte, error) {
	s.binary = binary
	s.args = append([]string(nil), args...)
	return s.output, s.err
}

func newStubProber(output string, err error) (*Prober, *stubExecutor) {
	exec := &stubExecutor{output: []byte(output), err: err}
	return NewProber("ffprobe", WithExecutor(exec)), exec
}

func TestDuration(t *testing.T) {
	tests := []struct {
		name   string
		output string
		err    error
		want   float64
	}{
		{"parsed", `{"format":{"duration":"12.345000"}}`, nil, 12.345},
		{"missing field", `{"format":{}}`, nil, 0},
		{"not numeric", `{"format":{"duration":"N/A"}}`, nil, 0},
		{"malformed json", `{"format":`, nil, 0},
		{"tool failure", ``, errors.New("exit status 1"), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, exec := newStubProber(tt.output, tt.err)
			if got := p.Duration(context.Background(), "clip.mp4"); got != tt.want {
				t.Fatalf("Duration = %v, want %v", got, tt.want)
			}
			want := "-v error -show_entries format=duration -of json clip.mp4"
			if got := strings.Join(exec.args, " "); got != want {
				t.Fatalf("args = %q, want %q", got, want)
			}
		})
	}
}

func TestHasAudioStream(t *testing.T) {
	p, exec := newStubProber(`{"streams":[{"index":1}]}`, nil)
	if !p.HasAudioStream(context.Background(), "a.mp4") {
		t.Fatal("expected audio stream")
	}
	if got := strings.Join(exec.args, " "); !strings.Contains(got, "-select_streams a -show_entries stream=index") {
		t.Fatalf("unexpected args %q", got)
	}

	p, _ = newStubProber(`{"streams":[]}`, nil)
	if p.HasAudioStream(context.Background(), "a.mp4") {
		t.Fatal("expected no audio for empty stream list")
	}
	p, _ = newStubProber(``, errors.New("boom"))
	if p.HasAudioStream(context.Background(), "a.mp4") {
		t.Fatal("expected false on tool failure")
	}
}

func TestCreationTimeConvertsToDisplayZone(t *testing.T) {
	p, _ := newStubProber(`{"format":{"tags":{"creation_time":"2024-03-09T23:30:15.000000Z"}}}`, nil)
	got, ok := p.CreationTime(context.Background(), "clip.mp4")
	if !ok {
		t.Fatal("expected creation time")
	}
	if got.Format("2006-01-02 15:04:05 -0700") != "2024-03-10 08:30:15 +0900" {
		t.Fatalf("creation time = %s", got)
	}

	p, _ = newStubProber(`{"format":{"tags":{"creation_time":"2024-03-09T10:00:00+02:00"}}}`, nil)
	got, ok = p.CreationTime(context.Background(), "clip.mp4")
	if !ok || got.Hour() != 17 {
		t.Fatalf("explicit offset not honored: %v %v", got, ok)
	}
}

func TestCreationTimeAbsent(t *testing.T) {
	for _, output := range []string{`{"format":{}}`, `{"format":{"tags":{"creation_time":"yesterday"}}}`} {
		p, _ := newStubProber(output, nil)
		if _, ok := p.CreationTime(context.Background(), "clip.mp4"); ok {
			t.Fatalf("expected absent for %s", output)
		}
	}
	p, _ := newStubProber(``, errors.New("boom"))
	if _, ok := p.CreationTime(context.Background(), "clip.mp4"); ok {
		t.Fatal("expected absent on tool failure")
	}
}

func TestCreationTimeCustomZone(t *testing.T) {
	exec := &stubExecutor{output: []byte(`{"format":{"tags":{"creation_time":"2024-03-09T12:00:00Z"}}}`)}
	p := NewProber("", WithExecutor(exec), WithLocation(DisplayZone(-5)), WithTimeout(time.Second))
	got, ok := p.CreationTime(context.Background(), "clip.mp4")
	if !ok || got.Hour() != 7 {
		t.Fatalf("got %v %v", got, ok)
	}
	if exec.binary != "ffprobe" {
		t.Fatalf("binary = %q", exec.binary)
	}
}

func TestStreamInfoObserved(t *testing.T) {
	p, exec := newStubProber(`{"streams":[
		{"width":1280,"height":720,"r_frame_rate":"30000/1001"},
		{"r_frame_rate":"0/0","sample_rate":"44100"}
	]}`, nil)
	info, ok := p.StreamInfo(context.Background(), "clip.mp4")
	if !ok {
		t.Fatal("expected stream info")
	}
	if info.Width != observed(1280) || info.Height != observed(720) {
		t.Fatalf("geometry = %+v x %+v", info.Width, info.Height)
	}
	if info.FPS != observed("29.97002997002997") {
		t.Fatalf("fps = %+v", info.FPS)
	}
	if info.SampleRate != observed(44100) {
		t.Fatalf("sample rate = %+v", info.SampleRate)
	}
	if len(info.Fallbacks()) != 0 {
		t.Fatalf("unexpected fallbacks %v", info.Fallbacks())
	}
	if got := strings.Join(exec.args, " "); !strings.Contains(got, "stream=width,height,r_frame_rate,sample_rate:stream_side_data=rotation") {
		t.Fatalf("unexpected args %q", got)
	}
}

func TestStreamInfoRotationSwaps(t *testing.T) {
	for _, rotation := range []string{"90", "-90", "270", "-270"} {
		p, _ := newStubProber(`{"streams":[{"width":1080,"height":1920,"r_frame_rate":"60/1",
			"side_data_list":[{"rotation":`+rotation+`}]}]}`, nil)
		info, ok := p.StreamInfo(context.Background(), "clip.mp4")
		if !ok {
			t.Fatal("expected stream info")
		}
		if info.Width.Value != 1920 || info.Height.Value != 1080 {
			t.Fatalf("rotation %s: got %dx%d, want 1920x1080", rotation, info.Width.Value, info.Height.Value)
		}
	}

	p, _ := newStubProber(`{"streams":[{"width":1080,"height":1920,"side_data_list":[{"rotation":180}]}]}`, nil)
	info, _ := p.StreamInfo(context.Background(), "clip.mp4")
	if info.Width.Value != 1080 || info.Height.Value != 1920 {
		t.Fatalf("180 degree rotation should not swap, got %dx%d", info.Width.Value, info.Height.Value)
	}
}

func TestStreamInfoDefaults(t *testing.T) {
	p, _ := newStubProber(`{"streams":[{"r_frame_rate":"0/0"}]}`, nil)
	info, ok := p.StreamInfo(context.Background(), "clip.mp4")
	if !ok {
		t.Fatal("expected defaults rather than absence")
	}
	if info.Width.Value != DefaultWidth || info.Height.Value != DefaultHeight ||
		info.FPS.Value != DefaultFPS || info.SampleRate.Value != DefaultSampleRate {
		t.Fatalf("unexpected defaults %+v", info)
	}
	if got := strings.Join(info.Fallbacks(), ","); got != "width,height,fps,sample_rate" {
		t.Fatalf("fallbacks = %q", got)
	}
}

func TestStreamInfoAbsent(t *testing.T) {
	for _, tc := range []struct {
		output string
		err    error
	}{
		{`{"streams":[]}`, nil},
		{`{}`, nil},
		{``, errors.New("exit status 1")},
	} {
		p, _ := newStubProber(tc.output, tc.err)
		if _, ok := p.StreamInfo(context.Background(), "clip.mp4"); ok {
			t.Fatalf("expected absent for %q / %v", tc.output, tc.err)
		}
	}
}

func TestParseFrameRate(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"60/1", "60.0", true},
		{"24000/1001", "23.976023976023978", true},
		{"25", "25.0", true},
		{"29.97", "29.97", true},
		{"0/0", "", false},
		{"abc", "", false},
	}
	for _, tt := range tests {
		got, ok := parseFrameRate(tt.raw)
		if got != tt.want || ok != tt.ok {
			t.Errorf("parseFrameRate(%q) = %q,%v want %q,%v", tt.raw, got, ok, tt.want, tt.ok)
		}
	}
}
