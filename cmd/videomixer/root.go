package main

import (
	"github.com/spf13/cobra"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func newRootCommand() *cobra.Command {
	var configFlag string
	var logLevelFlag string

	ctx := newCommandContext(&configFlag, &logLevelFlag)

	rootCmd := &cobra.Command{
		Use:           "videomixer",
		Short:         "Join clips into one captioned MP4 with chapters",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Override the configured log level (debug, info, warn, error)")

	rootCmd.AddGroup(
		&cobra.Group{ID: "encode", Title: "Encoding:"},
		&cobra.Group{ID: "inspect", Title: "Inspection:"},
		&cobra.Group{ID: "server", Title: "API server:"},
		&cobra.Group{ID: "admin", Title: "Maintenance:"},
	)
	for _, entry := range []struct {
		group string
		cmd   *cobra.Command
	}{
		{"encode", newComposeCommand(ctx)},
		{"inspect", newProbeCommand(ctx)},
		{"inspect", newEncodersCommand(ctx)},
		{"inspect", newChaptersCommand(ctx)},
		{"inspect", newHistoryCommand(ctx)},
		{"inspect", newLogsCommand(ctx)},
		{"server", newServeCommand(ctx)},
		{"server", newStatusCommand(ctx)},
		{"server", newCancelCommand(ctx)},
		{"admin", newDoctorCommand(ctx)},
		{"admin", newTestNotifyCommand(ctx)},
		{"admin", newConfigCommand(ctx)},
	} {
		entry.cmd.GroupID = entry.group
		rootCmd.AddCommand(entry.cmd)
	}

	return rootCmd
}
