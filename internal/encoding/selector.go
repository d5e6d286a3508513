package encoding

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"videomixer/internal/logging"
)

// Codec families understood by the selector.
const (
	FamilyH264 = "h264"
	FamilyHEVC = "hevc"
)

// QualityValue is the constant-quality level passed to every encoder.
const QualityValue = "17"

// Candidate maps a hardware accelerator to the encoder suffix it enables.
type Candidate struct {
	Accelerator string
	Suffix      string
}

// Candidates is checked in order; the first accelerator ffmpeg reports wins.
var Candidates = []Candidate{
	{Accelerator: "cuda", Suffix: "_nvenc"},
	{Accelerator: "qsv", Suffix: "_qsv"},
	{Accelerator: "amf", Suffix: "_amf"},
}

// Executor abstracts command execution for the selector.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) ([]byte, error)
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	return cmd.Output()
}

// Selection describes the chosen encoder.
type Selection struct {
	Family       string   `json:"family"`
	Encoder      string   `json:"encoder"`
	Accelerator  string   `json:"accelerator,omitempty"`
	Accelerators []string `json:"accelerators,omitempty"`
	Fallback     bool     `json:"fallback"`
}

// Selector queries ffmpeg for hardware accelerators.
type Selector struct {
	binary  string
	timeout time.Duration
	exec    Executor
	logger  *slog.Logger
}

// NewSelector constructs a Selector for the provided ffmpeg binary.
func NewSelector(binary string, logger *slog.Logger) *Selector {
	return NewSelectorWithExecutor(binary, logger, nil)
}

// NewSelectorWithExecutor allows injecting a custom executor for testing.
func NewSelectorWithExecutor(binary string, logger *slog.Logger, exec Executor) *Selector {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	if exec == nil {
		exec = commandExecutor{}
	}
	return &Selector{
		binary:  binary,
		timeout: 15 * time.Second,
		exec:    exec,
		logger:  logging.NewComponentLogger(logger, "encoder-selector"),
	}
}

// SoftwareEncoder returns the software encoder for a codec family.
func SoftwareEncoder(family string) string {
	if NormalizeFamily(family) == FamilyH264 {
		return "libx264"
	}
	return "libx265"
}

// NormalizeFamily maps codec aliases onto the supported families. Unknown
// values are returned lower-cased and select the libx265 fallback.
func NormalizeFamily(family string) string {
	switch f := strings.ToLower(strings.TrimSpace(family)); f {
	case "", "h264", "avc", "x264":
		return FamilyH264
	case "hevc", "h265", "x265":
		return FamilyHEVC
	default:
		return f
	}
}

// Accelerators lists the hardware accelerators ffmpeg reports. The first line
// of `ffmpeg -hwaccels` is a heading and is skipped.
func (s *Selector) Accelerators(ctx context.Context) ([]string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	output, err := s.exec.Run(ctx, s.binary, []string{"-hide_banner", "-hwaccels"})
	if err != nil {
		return nil, fmt.Errorf("ffmpeg -hwaccels: %w", err)
	}
	return parseAccelerators(string(output)), nil
}

func parseAccelerators(output string) []string {
	lines := strings.Split(strings.ReplaceAll(output, "\r\n", "\n"), "\n")
	if len(lines) <= 1 {
		return nil
	}
	accels := make([]string, 0, len(lines)-1)
	for _, line := range lines[1:] {
		if name := strings.TrimSpace(line); name != "" {
			accels = append(accels, name)
		}
	}
	return accels
}

// Select returns the encoder for family. Query failures fall back to the
// software encoder.
func (s *Selector) Select(ctx context.Context, family string) Selection {
	family = NormalizeFamily(family)
	accels, err := s.Accelerators(ctx)
	if err != nil {
		logging.WarnWithContext(s.logger, "hardware accelerator query failed", "encoder_fallback",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "verify ffmpeg is installed and runnable"),
			logging.String(logging.FieldImpact, "software encoding will be used"),
		)
		return Selection{Family: family, Encoder: SoftwareEncoder(family), Fallback: true}
	}
	sel := Choose(family, accels)
	s.logger.Debug("encoder selected",
		logging.String("encoder", sel.Encoder),
		logging.String("accelerators", strings.Join(accels, ",")),
	)
	return sel
}

// Choose applies the candidate table to a list of reported accelerators.
func Choose(family string, accelerators []string) Selection {
	family = NormalizeFamily(family)
	available := make(map[string]struct{}, len(accelerators))
	for _, a := range accelerators {
		available[a] = struct{}{}
	}
	for _, c := range Candidates {
		if _, ok := available[c.Accelerator]; ok {
			return Selection{
				Family:       family,
				Encoder:      family + c.Suffix,
				Accelerator:  c.Accelerator,
				Accelerators: accelerators,
			}
		}
	}
	return Selection{Family: family, Encoder: SoftwareEncoder(family), Accelerators: accelerators, Fallback: true}
}

// QualityArgs returns the constant-quality flags for an encoder name.
func QualityArgs(encoder string) []string {
	switch {
	case strings.Contains(encoder, "nvenc"):
		return []string{"-cq", QualityValue}
	case strings.Contains(encoder, "qsv"):
		return []string{"-global_quality", QualityValue}
	case strings.Contains(encoder, "libx"):
		return []string{"-crf", QualityValue}
	default:
		return nil
	}
}
