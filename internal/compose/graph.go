package compose

import (
	"fmt"
	"strconv"

	fg "videomixer/internal/filtergraph"
	"videomixer/internal/media/ffprobe"
)

// Final output labels mapped into the container.
const (
	OutVideo = "outv"
	OutAudio = "outa"
)

func videoLabel(i int) string { return "v_" + strconv.Itoa(i) }

func audioLabel(i int) string { return "a_" + strconv.Itoa(i) }

// audioFormat is the format conversion applied to every audio chain.
var audioFormat = fg.F("aformat", "sample_fmts=fltp", "channel_layouts=stereo")

// BuildGraph renders the per-clip normalize, caption, and audio chains followed
// by the concat filter.
func BuildGraph(s Settings, params EffectiveParameters, clips []ClipInfo) (string, error) {
	g := fg.New(OutVideo, OutAudio)
	concatInputs := make([]fg.Pad, 0, 2*len(clips))

	for i, clip := range clips {
		g.Add(videoChain(i, s, params, clip))
		g.Add(audioChain(i, params, clip))
		concatInputs = append(concatInputs, fg.Link(videoLabel(i)), fg.Link(audioLabel(i)))
	}

	g.Add(fg.Chain{
		Inputs:  concatInputs,
		Filters: []fg.Filter{fg.F("concat", fg.KV("n", len(clips)), "v=1", "a=1")},
		Outputs: []fg.Pad{fg.Link(OutVideo), fg.Link(OutAudio)},
	})

	graph, err := g.String()
	if err != nil {
		return "", fmt.Errorf("build filter graph: %w", err)
	}
	return graph, nil
}

func videoChain(i int, s Settings, params EffectiveParameters, clip ClipInfo) fg.Chain {
	w, h := params.Width, params.Height
	chain := fg.Chain{
		Inputs: []fg.Pad{fg.Stream(i, "v")},
		Filters: []fg.Filter{
			fg.F("fps", params.FPS),
			fg.F("scale", strconv.Itoa(w), strconv.Itoa(h), "force_original_aspect_ratio=decrease"),
			fg.F("pad", strconv.Itoa(w), strconv.Itoa(h), "(ow-iw)/2", "(oh-ih)/2", s.BackgroundColor),
			fg.F("setsar", "1"),
		},
		Outputs: []fg.Pad{fg.Link(videoLabel(i))},
	}
	if clip.Caption {
		chain.Append(drawtext(s, clip.CaptionText))
	}
	return chain
}

func drawtext(s Settings, text string) fg.Filter {
	args := []string{fg.KV("text", fg.Quote(text))}
	if s.CaptionFont != "" {
		args = append(args, fg.KV("fontfile", fg.Quote(fg.EscapePath(s.CaptionFont))))
	}
	args = append(args,
		fg.KV("fontcolor", s.CaptionColor),
		fg.KV("bordercolor", s.CaptionBorderColor),
		fg.KV("borderw", s.BorderWidth()),
		fg.KV("fontsize", s.CaptionSize),
		fg.KV("x", s.CaptionMargin),
		fg.KV("y", s.CaptionMargin),
		fg.KV("enable", fg.Quote(fmt.Sprintf("between(t,0,%d)", s.CaptionDisplay))),
	)
	return fg.F("drawtext", args...)
}

func audioChain(i int, params EffectiveParameters, clip ClipInfo) fg.Chain {
	if clip.HasAudio {
		return fg.Chain{
			Inputs: []fg.Pad{fg.Stream(i, "a")},
			Filters: []fg.Filter{
				fg.F("aresample", strconv.Itoa(params.SampleRate), "cutoff=0.95", "dither_method=triangular"),
				audioFormat,
			},
			Outputs: []fg.Pad{fg.Link(audioLabel(i))},
		}
	}
	return fg.Chain{
		Filters: []fg.Filter{
			fg.F("aevalsrc", "0", fg.KV("d", ffprobe.FormatDecimal(clip.Duration)), fg.KV("s", params.SampleRate), "c=stereo"),
			audioFormat,
		},
		Outputs: []fg.Pad{fg.Link(audioLabel(i))},
	}
}
