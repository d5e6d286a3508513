package compose

import (
	"strconv"

	"videomixer/internal/media/ffprobe"
)

// Source records where an effective parameter came from.
type Source string

const (
	SourceOverride Source = "override"
	SourceProbe    Source = "probe"
	SourceDefault  Source = "default"
)

// EffectiveParameters are the geometry, frame rate, and sample rate shared by
// every clip's filter chain.
type EffectiveParameters struct {
	Width      int               `json:"width"`
	Height     int               `json:"height"`
	FPS        string            `json:"fps"`
	SampleRate int               `json:"sample_rate"`
	Sources    map[string]Source `json:"sources"`
}

// Resolve picks each parameter from the explicit override, then the first
// clip's probe, then the hard default.
func Resolve(s Settings, first ffprobe.StreamInfo, probed bool) EffectiveParameters {
	if !probed {
		first = ffprobe.DefaultStreamInfo()
	}
	params := EffectiveParameters{Sources: make(map[string]Source, 4)}

	params.Width, params.Sources["width"] = pickInt(s.Width, first.Width)
	params.Height, params.Sources["height"] = pickInt(s.Height, first.Height)
	params.SampleRate, params.Sources["sample_rate"] = pickInt(s.SampleRate, first.SampleRate)
	if s.FPS != nil {
		params.FPS, params.Sources["fps"] = strconv.Itoa(*s.FPS), SourceOverride
	} else {
		params.FPS, params.Sources["fps"] = first.FPS.Value, probeSource(first.FPS.Observed)
	}
	return params
}

func pickInt(override *int, probed ffprobe.Value[int]) (int, Source) {
	if override != nil {
		return *override, SourceOverride
	}
	return probed.Value, probeSource(probed.Observed)
}

func probeSource(observed bool) Source {
	if observed {
		return SourceProbe
	}
	return SourceDefault
}
