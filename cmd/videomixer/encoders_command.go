package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"videomixer/internal/encoding"
)

func newEncodersCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var codec string

	cmd := &cobra.Command{
		Use:   "encoders",
		Short: "Show hardware accelerators and the encoder compose would pick",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			runCtx := commandCtx(cmd)
			family := codec
			if !cmd.Flags().Changed("codec") {
				family = cfg.Output.Codec
			}

			selection := encoding.NewSelector(cfg.Tools.FFmpeg, logger).Select(runCtx, family)
			if jsonOutput {
				return writeJSON(cmd, selection)
			}

			out := cmd.OutOrStdout()
			accels := "none"
			if len(selection.Accelerators) > 0 {
				accels = strings.Join(selection.Accelerators, ", ")
			}
			fmt.Fprintf(out, "Accelerators: %s\n", accels)
			fmt.Fprintf(out, "Family:       %s\n", selection.Family)
			fmt.Fprintf(out, "Hardware:     %s\n", selection.Encoder)
			fmt.Fprintf(out, "Software:     %s\n", encoding.SoftwareEncoder(selection.Family))
			if selection.Fallback {
				fmt.Fprintln(out, "No supported accelerator found; --hw falls back to software encoding.")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON")
	cmd.Flags().StringVar(&codec, "codec", "", "Codec family (h264 or hevc)")
	return cmd
}
