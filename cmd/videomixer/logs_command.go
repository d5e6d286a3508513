package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"videomixer/internal/logging"
	"videomixer/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "List retained job transcripts",
		RunE: func(cmd *cobra.Command, args []string) error {
			transcripts, err := listTranscripts(ctx)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, transcripts)
			}
			out := cmd.OutOrStdout()
			if len(transcripts) == 0 {
				fmt.Fprintln(out, "No transcripts retained")
				return nil
			}
			rows := make([][]string, 0, len(transcripts))
			for i, t := range transcripts {
				rows = append(rows, []string{
					strconv.Itoa(i + 1),
					filepath.Base(t.Path),
					formatTimestamp(t.ModTime),
					formatBytes(t.Size),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"#", "Transcript", "Written", "Size"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight},
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON")

	cmd.AddCommand(&cobra.Command{
		Use:   "show [n]",
		Short: "Print a transcript (1 is the newest)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index := 1
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n < 1 {
					return fmt.Errorf("invalid transcript number %q", args[0])
				}
				index = n
			}
			transcripts, err := listTranscripts(ctx)
			if err != nil {
				return err
			}
			if index > len(transcripts) {
				return fmt.Errorf("transcript %d not found (%d retained)", index, len(transcripts))
			}
			file, err := os.Open(transcripts[index-1].Path)
			if err != nil {
				return fmt.Errorf("open transcript: %w", err)
			}
			defer file.Close()
			_, err = io.Copy(cmd.OutOrStdout(), file)
			return err
		},
	})

	cmd.AddCommand(newLogsTailCommand(ctx))

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the diagnostic log path",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cfg.DiagnosticLogPath())
			return nil
		},
	})
	return cmd
}

func newLogsTailCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool

	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Print the end of the diagnostic log",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := cfg.DiagnosticLogPath()
			out := cmd.OutOrStdout()

			tail, offset, err := logs.Last(path, lines)
			if err != nil {
				return err
			}
			for _, line := range tail {
				fmt.Fprintln(out, line)
			}
			if !follow {
				return nil
			}
			err = logs.Follow(commandCtx(cmd), path, offset, logs.DefaultPollInterval, func(line string) {
				fmt.Fprintln(out, line)
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 20, "Number of lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines until interrupted")
	return cmd
}

func listTranscripts(ctx *commandContext) ([]logging.TranscriptInfo, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	return logging.NewTranscriptStore(cfg.Paths.TranscriptDir, nil).List()
}
