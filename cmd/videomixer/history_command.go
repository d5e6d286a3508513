package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"videomixer/internal/history"
	"videomixer/internal/services"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent encode jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistory(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.List(commandCtx(cmd), limit)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, records)
			}
			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "No jobs recorded")
				return nil
			}
			rows := make([][]string, 0, len(records))
			for _, r := range records {
				elapsed := "-"
				if d := r.Elapsed(); d > 0 {
					elapsed = formatClock(d)
				}
				rows = append(rows, []string{
					shortID(r.ID),
					titleCase(r.State),
					formatTimestamp(r.StartedAt),
					elapsed,
					fmt.Sprint(r.Clips),
					r.Encoder,
					filepath.Base(r.Output),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "State", "Started", "Elapsed", "Clips", "Encoder", "Output"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of jobs to show (0 for all)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON")

	cmd.AddCommand(newHistoryShowCommand(ctx))
	cmd.AddCommand(newHistoryPruneCommand(ctx))
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one job in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistory(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			record, err := findRecord(commandCtx(cmd), store, args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, record)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:         %s\n", record.ID)
			fmt.Fprintf(out, "State:      %s\n", titleCase(record.State))
			fmt.Fprintf(out, "Output:     %s\n", record.Output)
			fmt.Fprintf(out, "Encoder:    %s\n", record.Encoder)
			fmt.Fprintf(out, "Clips:      %d\n", record.Clips)
			fmt.Fprintf(out, "Started:    %s\n", formatTimestamp(record.StartedAt))
			fmt.Fprintf(out, "Finished:   %s\n", formatTimestamp(record.FinishedAt))
			fmt.Fprintf(out, "Progress:   %.1f%%\n", record.Fraction*100)
			fmt.Fprintf(out, "Exit code:  %d\n", record.ExitCode)
			if record.Error != "" {
				fmt.Fprintf(out, "Error:      %s\n", record.Error)
			}
			if record.TranscriptPath != "" {
				fmt.Fprintf(out, "Transcript: %s\n", record.TranscriptPath)
			}
			fmt.Fprintf(out, "Command:    %s\n", record.Command)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON")
	return cmd
}

func newHistoryPruneCommand(ctx *commandContext) *cobra.Command {
	var keep int
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete all but the most recent jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			if keep < 0 {
				return fmt.Errorf("--keep must be non-negative")
			}
			store, err := openHistory(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			removed, err := store.Prune(commandCtx(cmd), keep)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d job(s)\n", removed)
			return nil
		},
	}
	cmd.Flags().IntVar(&keep, "keep", 100, "Number of jobs to keep")
	return cmd
}

func openHistory(ctx *commandContext) (*history.Store, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	return history.Open(cfg)
}

// findRecord accepts a full job ID or a unique prefix of one.
func findRecord(ctx context.Context, store *history.Store, id string) (history.Record, error) {
	record, err := store.Get(ctx, id)
	if err == nil || !errors.Is(err, services.ErrNotFound) {
		return record, err
	}
	all, lerr := store.List(ctx, 0)
	if lerr != nil {
		return history.Record{}, lerr
	}
	var match *history.Record
	for i := range all {
		if len(all[i].ID) >= len(id) && all[i].ID[:len(id)] == id {
			if match != nil {
				return history.Record{}, fmt.Errorf("job id prefix %q is ambiguous", id)
			}
			match = &all[i]
		}
	}
	if match == nil {
		return history.Record{}, err
	}
	return *match, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func commandCtx(cmd *cobra.Command) context.Context {
	if c := cmd.Context(); c != nil {
		return c
	}
	return context.Background()
}
