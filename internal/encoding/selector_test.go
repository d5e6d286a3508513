package encoding

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
)

type stubExecutor struct {
	output string
	err    error
	calls  int
	args   []string
}

func (s *stubExecutor) Run(_ context.Context, _ string, args []string) ([]byte, error) {
	s.calls++
	s.args = args
	return []byte(s.output), s.err
}

func TestSelectPrefersCandidateOrder(t *testing.T) {
	tests := []struct {
		name   string
		output string
		family string
		want   string
	}{
		{"qsv without cuda", "Hardware acceleration methods:\nvdpau\nqsv\n", "h264", "h264_qsv"},
		{"cuda wins over qsv", "Hardware acceleration methods:\nqsv\ncuda\namf\n", "h264", "h264_nvenc"},
		{"amf only", "Hardware acceleration methods:\namf\n", "hevc", "hevc_amf"},
		{"none present", "Hardware acceleration methods:\nvaapi\ndrm\n", "h264", "libx264"},
		{"hevc fallback", "Hardware acceleration methods:\n", "hevc", "libx265"},
		{"heading ignored", "cuda\nvaapi\n", "h264", "libx264"},
		{"crlf output", "Hardware acceleration methods:\r\ncuda\r\n", "h264", "h264_nvenc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := &stubExecutor{output: tt.output}
			sel := NewSelectorWithExecutor("ffmpeg", nil, exec).Select(context.Background(), tt.family)
			if sel.Encoder != tt.want {
				t.Fatalf("Select(%q) = %q, want %q", tt.family, sel.Encoder, tt.want)
			}
			if exec.calls != 1 {
				t.Fatalf("expected one ffmpeg call, got %d", exec.calls)
			}
			if !strings.Contains(strings.Join(exec.args, " "), "-hwaccels") {
				t.Fatalf("unexpected args %v", exec.args)
			}
		})
	}
}

func TestSelectFallsBackOnToolFailure(t *testing.T) {
	exec := &stubExecutor{err: errors.New("executable file not found")}
	sel := NewSelectorWithExecutor("ffmpeg", nil, exec).Select(context.Background(), "h264")
	if sel.Encoder != "libx264" || !sel.Fallback {
		t.Fatalf("unexpected selection %+v", sel)
	}
}

func TestSoftwareEncoder(t *testing.T) {
	for family, want := range map[string]string{"h264": "libx264", "avc": "libx264", "hevc": "libx265", "vp9": "libx265"} {
		if got := SoftwareEncoder(family); got != want {
			t.Errorf("SoftwareEncoder(%q) = %q, want %q", family, got, want)
		}
	}
}

func TestQualityArgs(t *testing.T) {
	tests := []struct {
		encoder string
		want    []string
	}{
		{"h264_nvenc", []string{"-cq", "17"}},
		{"hevc_qsv", []string{"-global_quality", "17"}},
		{"libx264", []string{"-crf", "17"}},
		{"libx265", []string{"-crf", "17"}},
		{"h264_amf", nil},
	}
	for _, tt := range tests {
		if got := QualityArgs(tt.encoder); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("QualityArgs(%q) = %v, want %v", tt.encoder, got, tt.want)
		}
	}
}
