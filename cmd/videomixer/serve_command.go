package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"videomixer/internal/api"
	"videomixer/internal/compose"
	"videomixer/internal/logging"
	"videomixer/internal/metrics"
	"videomixer/internal/notifications"
	"videomixer/internal/runlock"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string
	var rps float64
	var burst int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and event stream",
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

			registry := prometheus.NewRegistry()
			registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			metrics.Register(registry)

			controller, store, cleanup, err := ctx.controller(cfg, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			opts := []api.ServerOption{
				api.WithLogger(logger),
				api.WithTranscripts(logging.NewTranscriptStore(cfg.Paths.TranscriptDir, logger)),
				api.WithDefaults(compose.DefaultSettings(cfg)),
				api.WithFFmpeg(cfg.Tools.FFmpeg),
				api.WithToken(cfg.Paths.APIToken),
				api.WithMetrics(registry),
				api.WithRateLimit(rps, burst),
			}
			if store != nil {
				opts = append(opts, api.WithHistory(store))
				if err := recoverInterrupted(runCtx, cfg.LockPath(), store.MarkInterrupted); err != nil {
					logging.WarnWithContext(logger, "history recovery failed", "history_recovery_failed",
						logging.Error(err),
						logging.String(logging.FieldImpact, "stale jobs may still show as running"),
					)
				}
			}

			notifier := notifications.Subscriber(
				notifications.NewService(cfg),
				controller.Current,
				time.Duration(cfg.Notifications.RequestTimeoutSeconds)*time.Second,
				logger,
			)
			defer controller.Subscribe(notifier)()

			server := api.NewServer(ctx.planner(cfg, logger), controller, opts...)
			defer server.Close()

			address := strings.TrimSpace(bind)
			if address == "" {
				address = cfg.Paths.APIBind
			}
			addr, err := server.Start(runCtx, address)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Listening on http://%s\n", addr)

			<-runCtx.Done()
			logger.Info("shutting down")
			stopCtx, cancel := context.WithTimeout(context.Background(), cancelGrace)
			defer cancel()
			if cancelled, err := controller.Cancel(stopCtx); err != nil {
				logging.WarnWithContext(logger, "cancel on shutdown failed", "shutdown_cancel_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "ffmpeg may still be running"),
				)
			} else if cancelled {
				logger.Info("running encode cancelled")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (defaults to api_bind)")
	cmd.Flags().Float64Var(&rps, "rate", 20, "Requests per second allowed across all clients")
	cmd.Flags().IntVar(&burst, "burst", 40, "Request burst size")
	return cmd
}

// recoverInterrupted marks jobs left running by a dead process. It only runs
// when no other process on this host holds the encode lock.
func recoverInterrupted(ctx context.Context, lockPath string, mark func(context.Context, time.Time) (int64, error)) error {
	lock, err := runlock.New(lockPath)
	if err != nil {
		return err
	}
	_, err = runlock.WithLock(lock, func() error {
		_, err := mark(ctx, time.Now())
		return err
	})
	return err
}
