package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"videomixer/internal/chapters"
	"videomixer/internal/compose"
)

func newChaptersCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "chapters <clip>...",
		Short: "Print the chapter list for clips without encoding",
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
			durations := make([]float64, len(paths))
			labels := make([]string, len(paths))
			for i, path := range paths {
				durations[i] = prober.Duration(runCtx, path)
				created, ok := prober.CreationTime(runCtx, path)
				labels[i] = compose.ChapterLabel(compose.CaptionText(created, ok))
			}

			if jsonOutput {
				return writeJSON(cmd, chapters.Entries(durations, labels))
			}
			fmt.Fprintln(cmd.OutOrStdout(), chapters.Build(durations, labels))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON")
	return cmd
}
