package compose

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"videomixer/internal/encodejob"
	"videomixer/internal/encoding"
	"videomixer/internal/logging"
	"videomixer/internal/media/ffprobe"
	"videomixer/internal/metrics"
	"videomixer/internal/services"
)

// Prober is the metadata surface the planner needs.
type Prober interface {
	Duration(ctx context.Context, path string) float64
	HasAudioStream(ctx context.Context, path string) bool
	CreationTime(ctx context.Context, path string) (time.Time, bool)
	StreamInfo(ctx context.Context, path string) (ffprobe.StreamInfo, bool)
}

// EncoderSelector picks a hardware or software encoder for a codec family.
type EncoderSelector interface {
	Select(ctx context.Context, family string) encoding.Selection
}

// ClipInfo is everything probed about one input clip.
type ClipInfo struct {
	Path         string    `json:"path"`
	Duration     float64   `json:"duration_seconds"`
	HasAudio     bool      `json:"has_audio"`
	Created      time.Time `json:"created,omitempty"`
	HasCreated   bool      `json:"has_created"`
	Caption      bool      `json:"caption"`
	CaptionText  string    `json:"caption_text"`
	ChapterLabel string    `json:"chapter_label"`
}

// Plan is a fully resolved composition ready to encode.
type Plan struct {
	Settings        Settings            `json:"settings"`
	Params          EffectiveParameters `json:"params"`
	Clips           []ClipInfo          `json:"clips"`
	Graph           string              `json:"graph"`
	Encoder         encoding.Selection  `json:"encoder"`
	Args            []string            `json:"args"`
	TotalDurationUS int64               `json:"total_duration_us"`
}

// Durations returns per-clip durations in clip order.
func (p *Plan) Durations() []float64 {
	out := make([]float64, len(p.Clips))
	for i, c := range p.Clips {
		out[i] = c.Duration
	}
	return out
}

// ChapterLabels returns per-clip chapter labels in clip order.
func (p *Plan) ChapterLabels() []string {
	out := make([]string, len(p.Clips))
	for i, c := range p.Clips {
		out[i] = c.ChapterLabel
	}
	return out
}

// Spec converts the plan into an encode job specification.
func (p *Plan) Spec(binary string) encodejob.Spec {
	return encodejob.Spec{
		Binary:          binary,
		Args:            append([]string(nil), p.Args...),
		Output:          p.Settings.Output,
		Encoder:         p.Encoder.Encoder,
		Durations:       p.Durations(),
		ChapterLabels:   p.ChapterLabels(),
		TotalDurationUS: p.TotalDurationUS,
	}
}

// Planner probes clips and builds plans.
type Planner struct {
	prober      Prober
	selector    EncoderSelector
	logger      *slog.Logger
	concurrency int
}

// NewPlanner constructs a Planner. A nil selector disables hardware encoding.
func NewPlanner(prober Prober, selector EncoderSelector, logger *slog.Logger) *Planner {
	return &Planner{
		prober:      prober,
		selector:    selector,
		logger:      logging.NewComponentLogger(logger, "compose"),
		concurrency: 4,
	}
}

// Plan validates settings, probes every clip, and builds the ffmpeg arguments.
func (p *Planner) Plan(ctx context.Context, s Settings) (*Plan, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	ctx = services.WithStage(ctx, "plan")
	logger := logging.WithContext(ctx, p.logger)

	flags := s.CaptionFlags()
	clips := make([]ClipInfo, len(s.Clips))
	var first ffprobe.StreamInfo
	var firstOK bool

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	g.Go(func() error {
		first, firstOK = p.prober.StreamInfo(gctx, s.Clips[0])
		return gctx.Err()
	})
	for i, path := range s.Clips {
		i, path := i, path
		g.Go(func() error {
			clips[i] = p.probeClip(gctx, path, flags[i])
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, services.Wrap(services.ErrTransient, "plan", "probe clips", "probing interrupted", err)
	}

	reportFallbacks(logger, s.Clips[0], first, firstOK)
	params := Resolve(s, first, firstOK)

	graph, err := BuildGraph(s, params, clips)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "plan", "build graph", "", err)
	}

	sel := encoding.Selection{Family: encoding.NormalizeFamily(s.Codec)}
	sel.Encoder = encoding.SoftwareEncoder(sel.Family)
	sel.Fallback = true
	if s.HWEncode && p.selector != nil {
		sel = p.selector.Select(ctx, sel.Family)
	}

	total := 0.0
	for _, c := range clips {
		total += c.Duration
	}

	plan := &Plan{
		Settings:        s,
		Params:          params,
		Clips:           clips,
		Graph:           graph,
		Encoder:         sel,
		Args:            BuildArgs(s.Clips, graph, sel.Encoder, s.Preset, params.SampleRate, s.Output),
		TotalDurationUS: int64(math.Round(total * 1e6)),
	}
	logger.Info("composition planned",
		logging.Int("clips", len(clips)),
		logging.String("geometry", fmt.Sprintf("%dx%d", params.Width, params.Height)),
		logging.String("fps", params.FPS),
		logging.Int("sample_rate", params.SampleRate),
		logging.String("encoder", sel.Encoder),
		logging.Float64("total_seconds", total),
	)
	return plan, nil
}

func (p *Planner) probeClip(ctx context.Context, path string, caption bool) ClipInfo {
	info := ClipInfo{Path: path, Caption: caption}
	info.Duration = p.prober.Duration(ctx, path)
	info.HasAudio = p.prober.HasAudioStream(ctx, path)
	info.Created, info.HasCreated = p.prober.CreationTime(ctx, path)
	info.CaptionText = CaptionText(info.Created, info.HasCreated)
	info.ChapterLabel = ChapterLabel(info.CaptionText)
	return info
}

func reportFallbacks(logger *slog.Logger, path string, info ffprobe.StreamInfo, ok bool) {
	fields := info.Fallbacks()
	if !ok {
		fields = ffprobe.DefaultStreamInfo().Fallbacks()
	}
	if len(fields) == 0 {
		return
	}
	for _, f := range fields {
		metrics.ProbeFallbacksTotal.WithLabelValues(f).Inc()
	}
	logging.WarnWithContext(logger, "stream probe fell back to defaults", "probe_fallback",
		logging.String("path", path),
		logging.String("fields", strings.Join(fields, ",")),
		logging.String(logging.FieldErrorHint, "set width, height, fps or sample_rate explicitly"),
		logging.String(logging.FieldImpact, "output geometry uses default values"),
	)
}
