package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"videomixer/internal/logging"
)

// Result represents the subset of ffprobe JSON output the queries request.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes a single stream entry. Pointer fields distinguish an absent
// key from a zero value.
type Stream struct {
	Index        *int       `json:"index"`
	Width        *int       `json:"width"`
	Height       *int       `json:"height"`
	RFrameRate   *string    `json:"r_frame_rate"`
	SampleRate   *string    `json:"sample_rate"`
	SideDataList []SideData `json:"side_data_list"`
}

// SideData carries stream side data such as the display matrix rotation.
type SideData struct {
	Rotation *float64 `json:"rotation"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Duration *string           `json:"duration"`
	Tags     map[string]string `json:"tags"`
}

// Executor abstracts command execution for the prober.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) ([]byte, error)
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	return cmd.Output()
}

// Prober runs ffprobe queries against individual clips.
type Prober struct {
	binary   string
	timeout  time.Duration
	exec     Executor
	location *time.Location
	logger   *slog.Logger
}

// Option configures a Prober.
type Option func(*Prober)

// WithExecutor injects a custom executor, mainly for tests.
func WithExecutor(exec Executor) Option {
	return func(p *Prober) {
		if exec != nil {
			p.exec = exec
		}
	}
}

// WithTimeout bounds each ffprobe invocation.
func WithTimeout(timeout time.Duration) Option {
	return func(p *Prober) { p.timeout = timeout }
}

// WithLocation sets the zone creation timestamps are converted into.
func WithLocation(loc *time.Location) Option {
	return func(p *Prober) {
		if loc != nil {
			p.location = loc
		}
	}
}

// WithLogger attaches a logger for fallback diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Prober) { p.logger = logging.NewComponentLogger(logger, "ffprobe") }
}

// DisplayZone returns the fixed zone used for caption timestamps.
func DisplayZone(offsetHours int) *time.Location {
	return time.FixedZone(fmt.Sprintf("UTC%+d", offsetHours), offsetHours*3600)
}

// NewProber constructs a Prober for the provided ffprobe binary.
func NewProber(binary string, opts ...Option) *Prober {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	p := &Prober{
		binary:   binary,
		exec:     commandExecutor{},
		location: DisplayZone(9),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Prober) query(ctx context.Context, path string, entries ...string) (Result, error) {
	if strings.TrimSpace(path) == "" {
		return Result{}, errors.New("ffprobe: empty path")
	}
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	args := append([]string{"-v", "error"}, entries...)
	args = append(args, "-of", "json", path)
	output, err := p.exec.Run(ctx, p.binary, args)
	if err != nil {
		return Result{}, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	var result Result
	if err := json.Unmarshal(output, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse %s: %w", path, err)
	}
	return result, nil
}

// Duration returns the container duration in seconds, or 0 on any failure.
func (p *Prober) Duration(ctx context.Context, path string) float64 {
	result, err := p.query(ctx, path, "-show_entries", "format=duration")
	if err != nil {
		p.logger.Debug("duration probe failed", logging.String("path", path), logging.Error(err))
		return 0
	}
	if result.Format.Duration == nil {
		p.logger.Debug("duration missing from probe", logging.String("path", path))
		return 0
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(*result.Format.Duration), 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		p.logger.Debug("duration not numeric", logging.String("path", path), logging.String("value", *result.Format.Duration))
		return 0
	}
	return value
}

// HasAudioStream reports whether ffprobe lists at least one audio stream.
func (p *Prober) HasAudioStream(ctx context.Context, path string) bool {
	result, err := p.query(ctx, path, "-select_streams", "a", "-show_entries", "stream=index")
	if err != nil {
		p.logger.Debug("audio probe failed", logging.String("path", path), logging.Error(err))
		return false
	}
	return len(result.Streams) > 0
}

// CreationTime returns the creation_time tag converted into the display zone.
// Missing tags and failed probes both report false.
func (p *Prober) CreationTime(ctx context.Context, path string) (time.Time, bool) {
	result, err := p.query(ctx, path, "-show_entries", "format_tags=creation_time")
	if err != nil {
		p.logger.Debug("creation time probe failed", logging.String("path", path), logging.Error(err))
		return time.Time{}, false
	}
	raw := strings.TrimSpace(result.Format.Tags["creation_time"])
	if raw == "" {
		return time.Time{}, false
	}
	parsed, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		p.logger.Debug("creation time not ISO-8601", logging.String("path", path), logging.String("value", raw))
		return time.Time{}, false
	}
	return parsed.In(p.location), true
}
