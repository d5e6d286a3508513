package ffprobe

import (
	"context"
	"math"
	"strconv"
	"strings"

	"videomixer/internal/logging"
)

// Fallback values used when a stream property cannot be observed.
const (
	DefaultWidth      = 1920
	DefaultHeight     = 1080
	DefaultFPS        = "60.0"
	DefaultSampleRate = 48000
)

// Value pairs a probed property with whether ffprobe actually reported it.
type Value[T any] struct {
	Value    T
	Observed bool
}

func observed[T any](v T) Value[T] { return Value[T]{Value: v, Observed: true} }

func fallback[T any](v T) Value[T] { return Value[T]{Value: v} }

// StreamInfo holds the geometry, frame rate, and sample rate of a clip.
// Width and Height are already swapped for 90 and 270 degree rotations.
type StreamInfo struct {
	Width      Value[int]
	Height     Value[int]
	FPS        Value[string]
	SampleRate Value[int]
	Rotation   int
}

// Fallbacks lists the properties that were filled with defaults.
func (s StreamInfo) Fallbacks() []string {
	var out []string
	if !s.Width.Observed {
		out = append(out, "width")
	}
	if !s.Height.Observed {
		out = append(out, "height")
	}
	if !s.FPS.Observed {
		out = append(out, "fps")
	}
	if !s.SampleRate.Observed {
		out = append(out, "sample_rate")
	}
	return out
}

// DefaultStreamInfo returns the all-fallback descriptor.
func DefaultStreamInfo() StreamInfo {
	return StreamInfo{
		Width:      fallback(DefaultWidth),
		Height:     fallback(DefaultHeight),
		FPS:        fallback(DefaultFPS),
		SampleRate: fallback(DefaultSampleRate),
	}
}

// StreamInfo reads width, height, frame rate, and sample rate from the first
// stream exposing each property. It reports false only when ffprobe fails or
// lists no streams; otherwise missing properties carry defaults.
func (p *Prober) StreamInfo(ctx context.Context, path string) (StreamInfo, bool) {
	result, err := p.query(ctx, path,
		"-show_entries", "stream=width,height,r_frame_rate,sample_rate:stream_side_data=rotation")
	if err != nil {
		p.logger.Debug("stream probe failed", logging.String("path", path), logging.Error(err))
		return StreamInfo{}, false
	}
	if len(result.Streams) == 0 {
		p.logger.Debug("stream probe returned no streams", logging.String("path", path))
		return StreamInfo{}, false
	}
	info := parseStreams(result.Streams)
	if missing := info.Fallbacks(); len(missing) > 0 {
		p.logger.Debug("stream probe used defaults",
			logging.String("path", path),
			logging.String("fields", strings.Join(missing, ",")),
		)
	}
	return info, true
}

func parseStreams(streams []Stream) StreamInfo {
	info := DefaultStreamInfo()

	var video, audio *Stream
	for i := range streams {
		if video == nil && streams[i].Width != nil {
			video = &streams[i]
		}
		if audio == nil && streams[i].SampleRate != nil {
			audio = &streams[i]
		}
	}

	if video != nil {
		info.Width = observed(*video.Width)
		if video.Height != nil {
			info.Height = observed(*video.Height)
		}
		if video.RFrameRate != nil {
			if fps, ok := parseFrameRate(*video.RFrameRate); ok {
				info.FPS = observed(fps)
			}
		}
		for _, sd := range video.SideDataList {
			if sd.Rotation != nil {
				info.Rotation = int(*sd.Rotation)
				break
			}
		}
	}
	if audio != nil {
		if rate, err := strconv.Atoi(strings.TrimSpace(*audio.SampleRate)); err == nil {
			info.SampleRate = observed(rate)
		}
	}

	switch abs(info.Rotation) {
	case 90, 270:
		info.Width, info.Height = info.Height, info.Width
	}
	return info
}

// parseFrameRate converts an ffprobe rational such as 30000/1001 into a
// decimal string. Integral rates keep a trailing ".0".
func parseFrameRate(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	var value float64
	if num, den, ok := strings.Cut(raw, "/"); ok {
		n, err := strconv.ParseInt(strings.TrimSpace(num), 10, 64)
		if err != nil {
			return "", false
		}
		d, err := strconv.ParseInt(strings.TrimSpace(den), 10, 64)
		if err != nil || d == 0 {
			return "", false
		}
		value = float64(n) / float64(d)
	} else {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return "", false
		}
		value = parsed
	}
	if math.IsNaN(value) || math.IsInf(value, 0) || value <= 0 {
		return "", false
	}
	return FormatDecimal(value), true
}

// FormatDecimal renders v with the shortest round-trip representation and at
// least one fractional digit.
func FormatDecimal(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".") {
		s += ".0"
	}
	return s
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
