package main

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"videomixer/internal/compose"
	"videomixer/internal/config"
	"videomixer/internal/encodejob"
	"videomixer/internal/encoding"
	"videomixer/internal/history"
	"videomixer/internal/logging"
	"videomixer/internal/media/ffprobe"
	"videomixer/internal/runlock"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configSeen bool
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			cfg.Logging.Level = strings.ToLower(strings.TrimSpace(*c.logLevelFlag))
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configSeen = exists
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) prober(cfg *config.Config, logger *slog.Logger) *ffprobe.Prober {
	return ffprobe.NewProber(cfg.Tools.FFprobe,
		ffprobe.WithTimeout(time.Duration(cfg.Tools.ProbeTimeoutSeconds)*time.Second),
		ffprobe.WithLocation(ffprobe.DisplayZone(cfg.Caption.TimezoneOffsetHours)),
		ffprobe.WithLogger(logger),
	)
}

func (c *commandContext) planner(cfg *config.Config, logger *slog.Logger) *compose.Planner {
	return compose.NewPlanner(c.prober(cfg, logger), encoding.NewSelector(cfg.Tools.FFmpeg, logger), logger)
}

// controller builds an encode controller with transcript retention, the host
// lock, and history when it can be opened. The returned cleanup closes history.
func (c *commandContext) controller(cfg *config.Config, logger *slog.Logger) (*encodejob.Controller, *history.Store, func(), error) {
	lock, err := runlock.ForConfig(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	opts := []encodejob.Option{
		encodejob.WithTranscriptStore(logging.NewTranscriptStore(cfg.Paths.TranscriptDir, logger)),
		encodejob.WithLocker(lock),
	}
	cleanup := func() {}
	store, err := history.Open(cfg)
	if err != nil {
		logging.WarnWithContext(logger, "history unavailable", "history_open_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "jobs will not be recorded"),
		)
		store = nil
	} else {
		opts = append(opts, encodejob.WithRecorder(store))
		cleanup = func() { _ = store.Close() }
	}
	return encodejob.NewController(logger, opts...), store, cleanup, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
