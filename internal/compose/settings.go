package compose

import (
	"fmt"
	"regexp"

	"videomixer/internal/config"
)

var (
	mp4Pattern   = regexp.MustCompile(`\.mp4$`)
	colorPattern = regexp.MustCompile(`^0x([0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)
	fontPattern  = regexp.MustCompile(`\.(ttf|otf|ttc|woff2?)$`)
)

// Presets lists the accepted encoder preset names.
var Presets = []string{
	"ultrafast", "superfast", "veryfast", "faster", "fast", "medium", "slow", "slower", "veryslow", "placebo",
	"p1", "p2", "p3", "p4", "p5", "p6", "p7",
	"balanced", "speed", "quality",
}

// Settings is one composition request.
type Settings struct {
	Clips              []string `json:"clips"`
	NeedCaption        []bool   `json:"need_caption"`
	Output             string   `json:"output"`
	CaptionMargin      int      `json:"caption_margin"`
	CaptionSize        int      `json:"caption_size"`
	CaptionColor       string   `json:"caption_color"`
	CaptionBorderColor string   `json:"caption_border_color"`
	BorderWidthRatio   float64  `json:"border_width_ratio"`
	CaptionDisplay     int      `json:"caption_display_seconds"`
	CaptionFont        string   `json:"caption_font,omitempty"`
	BackgroundColor    string   `json:"background_color"`
	Width              *int     `json:"width,omitempty"`
	Height             *int     `json:"height,omitempty"`
	FPS                *int     `json:"fps,omitempty"`
	SampleRate         *int     `json:"sample_rate,omitempty"`
	Preset             string   `json:"preset"`
	HWEncode           bool     `json:"hw_encode"`
	Codec              string   `json:"codec,omitempty"`
}

// DefaultSettings returns settings seeded from configuration. Clips are left
// empty for the caller.
func DefaultSettings(cfg *config.Config) Settings {
	if cfg == nil {
		d := config.Default()
		cfg = &d
	}
	return Settings{
		Output:             "./output.mp4",
		CaptionMargin:      cfg.Caption.Margin,
		CaptionSize:        cfg.Caption.Size,
		CaptionColor:       cfg.Caption.Color,
		CaptionBorderColor: cfg.Caption.BorderColor,
		BorderWidthRatio:   cfg.Caption.BorderWidthRatio,
		CaptionDisplay:     cfg.Caption.DisplaySeconds,
		CaptionFont:        cfg.Caption.Font,
		BackgroundColor:    cfg.Output.BackgroundColor,
		Preset:             cfg.Output.Preset,
		HWEncode:           cfg.Output.HWEncode,
		Codec:              cfg.Output.Codec,
	}
}

// Validate reports every invalid field at once.
func (s Settings) Validate() error {
	verr := &ValidationError{}
	if len(s.Clips) == 0 {
		verr.add("clips", "at least one clip is required")
	}
	for i, clip := range s.Clips {
		if !mp4Pattern.MatchString(clip) {
			verr.add(fmt.Sprintf("clips[%d]", i), "must end with .mp4")
		}
	}
	if !mp4Pattern.MatchString(s.Output) {
		verr.add("output", "must end with .mp4")
	}
	for _, f := range []struct {
		field string
		value int
	}{
		{"caption_margin", s.CaptionMargin},
		{"caption_size", s.CaptionSize},
		{"caption_display_seconds", s.CaptionDisplay},
	} {
		if f.value < 0 {
			verr.add(f.field, "must be >= 0")
		}
	}
	for _, f := range []struct {
		field string
		value *int
	}{
		{"width", s.Width},
		{"height", s.Height},
		{"fps", s.FPS},
		{"sample_rate", s.SampleRate},
	} {
		if f.value != nil && *f.value < 0 {
			verr.add(f.field, "must be >= 0")
		}
	}
	for _, f := range []struct {
		field string
		value string
	}{
		{"caption_color", s.CaptionColor},
		{"caption_border_color", s.CaptionBorderColor},
		{"background_color", s.BackgroundColor},
	} {
		if !colorPattern.MatchString(f.value) {
			verr.add(f.field, "must be a 0x-prefixed 6 or 8 digit hex color")
		}
	}
	if s.BorderWidthRatio < 0 || s.BorderWidthRatio > 1 {
		verr.add("border_width_ratio", "must be between 0 and 1")
	}
	if s.CaptionFont != "" && !fontPattern.MatchString(s.CaptionFont) {
		verr.add("caption_font", "must be a .ttf, .otf, .ttc, .woff or .woff2 file")
	}
	if !validPreset(s.Preset) {
		verr.add("preset", fmt.Sprintf("unknown preset %q", s.Preset))
	}
	return verr.orNil()
}

func validPreset(p string) bool {
	for _, candidate := range Presets {
		if p == candidate {
			return true
		}
	}
	return false
}

// CaptionFlags returns per-clip caption flags. A flag list whose length does
// not match the clip list is replaced with captions for every clip.
func (s Settings) CaptionFlags() []bool {
	if len(s.NeedCaption) == len(s.Clips) {
		return append([]bool(nil), s.NeedCaption...)
	}
	flags := make([]bool, len(s.Clips))
	for i := range flags {
		flags[i] = true
	}
	return flags
}

// BorderWidth is the caption size scaled by the border ratio, truncated.
func (s Settings) BorderWidth() int {
	return int(float64(s.CaptionSize) * s.BorderWidthRatio)
}
