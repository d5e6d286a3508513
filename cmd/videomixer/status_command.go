package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"videomixer/internal/api"
	"videomixer/internal/config"
	"videomixer/internal/encodejob"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the job running on the local API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			client, err := apiClient(cfg)
			if err != nil {
				return err
			}
			runCtx := commandCtx(cmd)
			out := cmd.OutOrStdout()

			current, err := client.Current(runCtx)
			if api.IsUnavailable(err) {
				return printOfflineStatus(cmd, ctx, jsonOutput)
			}
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, current)
			}
			rep := newReport(out)
			rep.line(toneOK, "API server", cfg.Paths.APIBind)
			printJobStatus(rep, current.Job)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON")
	return cmd
}

func newCancelCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel",
		Short: "Cancel the job running on the local API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			client, err := apiClient(cfg)
			if err != nil {
				return err
			}
			resp, err := client.Cancel(commandCtx(cmd))
			if api.IsUnavailable(err) {
				return fmt.Errorf("no API server at %s; stop a foreground compose with Ctrl-C", cfg.Paths.APIBind)
			}
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !resp.Cancelled {
				fmt.Fprintln(out, "No job running")
				return nil
			}
			fmt.Fprintf(out, "Cancelled job %s\n", shortID(resp.Job.ID))
			return nil
		},
	}
}

func apiClient(cfg *config.Config) (*api.Client, error) {
	bind := cfg.Paths.APIBind
	if host, port, ok := strings.Cut(bind, ":"); ok && (host == "" || host == "0.0.0.0") {
		bind = "127.0.0.1:" + port
	}
	return api.NewClient(bind, cfg.Paths.APIToken)
}

func printOfflineStatus(cmd *cobra.Command, ctx *commandContext, jsonOutput bool) error {
	store, err := openHistory(ctx)
	if err != nil {
		return err
	}
	defer store.Close()
	records, err := store.List(commandCtx(cmd), 1)
	if err != nil {
		return err
	}
	if jsonOutput {
		return writeJSON(cmd, map[string]any{"api": false, "last": records})
	}

	rep := newReport(cmd.OutOrStdout())
	rep.line(toneWarn, "API server", "not running")
	if len(records) == 0 {
		rep.line(toneInfo, "Last job", "none recorded")
		return nil
	}
	r := records[0]
	rep.line(stateTone(r.State), "Last job", fmt.Sprintf("%s %s %s", shortID(r.ID), titleCase(r.State), formatTimestamp(r.StartedAt)))
	if r.Output != "" {
		rep.line(toneInfo, "Output", r.Output)
	}
	return nil
}

func printJobStatus(rep *report, job encodejob.Snapshot) {
	t := stateTone(string(job.State))
	switch job.State {
	case encodejob.StateIdle:
		rep.line(t, "Job", "idle")
	case encodejob.StateRunning:
		rep.line(t, "Job", fmt.Sprintf("%s running %.1f%%", shortID(job.ID), job.Fraction*100))
		rep.line(toneInfo, "Output", job.Output)
	case encodejob.StateFailed:
		rep.line(t, "Job", fmt.Sprintf("%s failed: %s", shortID(job.ID), job.Error))
	default:
		rep.line(t, "Job", fmt.Sprintf("%s %s", shortID(job.ID), titleCase(string(job.State))))
	}
}
