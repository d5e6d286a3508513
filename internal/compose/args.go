package compose

import (
	"strconv"

	"videomixer/internal/encoding"
)

// Fixed audio encoding parameters for every output.
const (
	AudioCodec   = "aac"
	AudioBitrate = "320k"
)

// BuildArgs assembles the ffmpeg argument list, excluding the binary.
// Progress key=value lines are requested on stdout.
func BuildArgs(clips []string, graph, encoder, preset string, sampleRate int, output string) []string {
	args := make([]string, 0, 24+2*len(clips))
	args = append(args, "-y", "-progress", "-")
	for _, clip := range clips {
		args = append(args, "-i", clip)
	}
	args = append(args,
		"-filter_complex", graph,
		"-map", "["+OutVideo+"]",
		"-map", "["+OutAudio+"]",
		"-c:v", encoder,
	)
	args = append(args, encoding.QualityArgs(encoder)...)
	args = append(args,
		"-preset", preset,
		"-c:a", AudioCodec,
		"-b:a", AudioBitrate,
		"-ar", strconv.Itoa(sampleRate),
		"-fps_mode", "vfr",
		output,
	)
	return args
}
