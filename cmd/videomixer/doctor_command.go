package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"videomixer/internal/config"
	"videomixer/internal/deps"
	"videomixer/internal/encoding"
	"videomixer/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check tools, directories, and hardware encoders",
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
			rep := newReport(cmd.OutOrStdout())

			rep.section("Configuration")
			if ctx.configSeen {
				rep.line(toneOK, "Config file", ctx.configPath)
			} else {
				rep.line(toneWarn, "Config file", "not found, using defaults")
			}
			rep.line(toneInfo, "History", cfg.Paths.HistoryDB)
			if cfg.Notifications.NtfyTopic != "" {
				rep.line(toneInfo, "Notifications", cfg.Notifications.NtfyTopic)
			} else {
				rep.line(toneInfo, "Notifications", "disabled")
			}

			rep.section("Dependencies")
			for _, s := range preflight.CheckSystemDeps(runCtx, cfg) {
				rep.line(depTone(s), s.Name, depDetail(s))
			}

			rep.section("Filesystem")
			dir := strings.TrimSpace(outputDir)
			if dir != "" {
				if dir, err = config.ExpandPath(dir); err != nil {
					return err
				}
			}
			for _, r := range preflight.RunAll(runCtx, cfg, dir) {
				t := toneOK
				if !r.Passed {
					t = toneError
				}
				rep.line(t, r.Name, r.Detail)
			}

			rep.section("Encoders")
			selection := encoding.NewSelector(cfg.Tools.FFmpeg, logger).Select(runCtx, cfg.Output.Codec)
			if selection.Fallback {
				rep.line(toneWarn, "Hardware", "none available, software "+selection.Encoder)
			} else {
				rep.line(toneOK, "Hardware", selection.Encoder+" via "+selection.Accelerator)
			}

			if rep.problems > 0 {
				return fmt.Errorf("doctor found %d problem(s)", rep.problems)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Also check this output directory")
	return cmd
}

func depTone(s deps.Status) tone {
	switch {
	case s.Available:
		return toneOK
	case s.Optional:
		return toneWarn
	default:
		return toneError
	}
}

func depDetail(s deps.Status) string {
	if !s.Available {
		return s.Detail
	}
	if s.Version != "" {
		return s.Path + " (" + s.Version + ")"
	}
	return s.Path
}
