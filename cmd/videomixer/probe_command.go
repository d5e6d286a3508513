package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"videomixer/internal/compose"
)

type probeReport struct {
	Path       string    `json:"path"`
	Duration   float64   `json:"duration_seconds"`
	HasAudio   bool      `json:"has_audio"`
	Created    time.Time `json:"created,omitempty"`
	HasCreated bool      `json:"has_created"`
	Caption    string    `json:"caption"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	FPS        string    `json:"fps"`
	SampleRate int       `json:"sample_rate"`
	Rotation   int       `json:"rotation"`
	Fallbacks  []string  `json:"fallbacks,omitempty"`
}

func newProbeCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "probe <clip>...",
		Short: "Show the metadata compose would use for each clip",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			paths, err := expandPaths(args)
			if err != nil {
				return err
			}
			runCtx := commandCtx(cmd)

			prober := ctx.prober(cfg, logger)
			reports := make([]probeReport, 0, len(paths))
			for _, path := range paths {
				created, hasCreated := prober.CreationTime(runCtx, path)
				info, _ := prober.StreamInfo(runCtx, path)
				reports = append(reports, probeReport{
					Path:       path,
					Duration:   prober.Duration(runCtx, path),
					HasAudio:   prober.HasAudioStream(runCtx, path),
					Created:    created,
					HasCreated: hasCreated,
					Caption:    compose.ChapterLabel(compose.CaptionText(created, hasCreated)),
					Width:      info.Width.Value,
					Height:     info.Height.Value,
					FPS:        info.FPS.Value,
					SampleRate: info.SampleRate.Value,
					Rotation:   info.Rotation,
					Fallbacks:  info.Fallbacks(),
				})
			}

			if jsonOutput {
				return writeJSON(cmd, reports)
			}
			rows := make([][]string, 0, len(reports))
			for _, r := range reports {
				fallbacks := "-"
				if len(r.Fallbacks) > 0 {
					fallbacks = strings.Join(r.Fallbacks, ",")
				}
				rows = append(rows, []string{
					filepath.Base(r.Path),
					formatSeconds(r.Duration),
					fmt.Sprintf("%dx%d", r.Width, r.Height),
					r.FPS,
					fmt.Sprint(r.SampleRate),
					yesNo(r.HasAudio),
					r.Caption,
					fallbacks,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Clip", "Length", "Size", "FPS", "Rate", "Audio", "Created", "Defaulted"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON")
	return cmd
}
