package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"videomixer/internal/compose"
	"videomixer/internal/config"
	"videomixer/internal/encodejob"
	"videomixer/internal/logging"
	"videomixer/internal/notifications"
	"videomixer/internal/preflight"
)

const cancelGrace = 30 * time.Second

type composeOptions struct {
	output       string
	noCaption    []string
	width        int
	height       int
	fps          int
	sampleRate   int
	preset       string
	hwEncode     bool
	codec        string
	font         string
	captionSize  int
	captionColor string
	margin       int
	display      int
	background   string
	dryRun       bool
	jsonOutput   bool
	verbose      bool
}

func newComposeCommand(ctx *commandContext) *cobra.Command {
	var opts composeOptions

	cmd := &cobra.Command{
		Use:   "compose <clip>...",
		Short: "Concatenate clips into one captioned MP4",
		Long: `Concatenate clips in the order given into a single MP4.

Every clip is scaled and padded to a common canvas, captioned with its
creation time, and listed as a chapter in the final report.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			settings, err := buildSettings(cmd, cfg, args, opts)
			if err != nil {
				return err
			}
			return runCompose(cmd, ctx, cfg, settings, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.output, "output", "o", "./output.mp4", "Output file path")
	flags.StringSliceVar(&opts.noCaption, "no-caption", nil, "1-based clip indices to leave uncaptioned (e.g. 2,4)")
	flags.IntVar(&opts.width, "width", 0, "Output width (defaults to the first clip)")
	flags.IntVar(&opts.height, "height", 0, "Output height (defaults to the first clip)")
	flags.IntVar(&opts.fps, "fps", 0, "Output frame rate (defaults to the first clip)")
	flags.IntVar(&opts.sampleRate, "sample-rate", 0, "Audio sample rate (defaults to the first clip)")
	flags.StringVar(&opts.preset, "preset", "", "Encoder speed preset")
	flags.BoolVar(&opts.hwEncode, "hw", false, "Use a hardware encoder when one is available")
	flags.StringVar(&opts.codec, "codec", "", "Codec family (h264 or hevc)")
	flags.StringVar(&opts.font, "font", "", "Caption font file")
	flags.IntVar(&opts.captionSize, "caption-size", 0, "Caption font size in pixels")
	flags.StringVar(&opts.captionColor, "caption-color", "", "Caption text color")
	flags.IntVar(&opts.margin, "caption-margin", 0, "Caption offset from the top-left corner")
	flags.IntVar(&opts.display, "caption-seconds", 0, "How long each caption stays visible")
	flags.StringVar(&opts.background, "background", "", "Padding color")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "Print the plan without encoding")
	flags.BoolVar(&opts.jsonOutput, "json", false, "Emit the plan or result as JSON")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Stream ffmpeg output")
	return cmd
}

// buildSettings layers flags the user set over configured defaults.
func buildSettings(cmd *cobra.Command, cfg *config.Config, args []string, opts composeOptions) (compose.Settings, error) {
	settings := compose.DefaultSettings(cfg)

	clips, err := expandPaths(args)
	if err != nil {
		return settings, err
	}
	settings.Clips = clips

	skip, err := parseIndexList(opts.noCaption, len(clips))
	if err != nil {
		return settings, err
	}
	settings.NeedCaption = make([]bool, len(clips))
	for i := range clips {
		settings.NeedCaption[i] = !skip[i]
	}

	output, err := config.ExpandPath(opts.output)
	if err != nil {
		return settings, err
	}
	settings.Output = output

	flags := cmd.Flags()
	intOverride := func(name string, value int) *int {
		if !flags.Changed(name) {
			return nil
		}
		v := value
		return &v
	}
	settings.Width = intOverride("width", opts.width)
	settings.Height = intOverride("height", opts.height)
	settings.FPS = intOverride("fps", opts.fps)
	settings.SampleRate = intOverride("sample-rate", opts.sampleRate)

	if flags.Changed("preset") {
		settings.Preset = opts.preset
	}
	if flags.Changed("hw") {
		settings.HWEncode = opts.hwEncode
	}
	if flags.Changed("codec") {
		settings.Codec = opts.codec
	}
	if flags.Changed("font") {
		font, err := config.ExpandPath(opts.font)
		if err != nil {
			return settings, err
		}
		settings.CaptionFont = font
	}
	if flags.Changed("caption-size") {
		settings.CaptionSize = opts.captionSize
	}
	if flags.Changed("caption-color") {
		settings.CaptionColor = opts.captionColor
	}
	if flags.Changed("caption-margin") {
		settings.CaptionMargin = opts.margin
	}
	if flags.Changed("caption-seconds") {
		settings.CaptionDisplay = opts.display
	}
	if flags.Changed("background") {
		settings.BackgroundColor = opts.background
	}
	return settings, nil
}

func runCompose(cmd *cobra.Command, ctx *commandContext, cfg *config.Config, settings compose.Settings, opts composeOptions) error {
	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}
	runCtx := commandCtx(cmd)
	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()

	plan, err := ctx.planner(cfg, logger).Plan(runCtx, settings)
	if err != nil {
		return describePlanError(err)
	}

	if opts.dryRun {
		if opts.jsonOutput {
			return writeJSON(cmd, plan)
		}
		printPlan(out, plan)
		return nil
	}

	if failed := preflight.Failed(preflight.RunAll(runCtx, cfg, filepath.Dir(plan.Settings.Output))); len(failed) > 0 {
		parts := make([]string, 0, len(failed))
		for _, r := range failed {
			parts = append(parts, fmt.Sprintf("%s: %s", r.Name, r.Detail))
		}
		return fmt.Errorf("preflight failed: %s", strings.Join(parts, "; "))
	}

	controller, _, cleanup, err := ctx.controller(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	renderer := newProgressRenderer(errOut, isTerminal(errOut) && !opts.verbose, opts.verbose)
	unsubscribe := controller.Subscribe(renderer.handle)
	defer unsubscribe()

	if _, err := controller.Start(runCtx, plan.Spec(cfg.Tools.FFmpeg)); err != nil {
		if errors.Is(err, encodejob.ErrHostBusy) {
			return fmt.Errorf("another encode is running on this host: %w", err)
		}
		return err
	}

	snap, err := waitForJob(runCtx, controller)
	if err != nil {
		return err
	}
	terminal, transcript := renderer.result()
	notifyFinished(runCtx, cfg, logger, snap, chaptersOf(terminal))

	if opts.jsonOutput {
		return writeJSON(cmd, composeResult{Job: snap, Chapters: chaptersOf(terminal), Transcript: transcript})
	}

	switch snap.State {
	case encodejob.StateSucceeded:
		fmt.Fprintf(out, "Wrote %s in %s\n", snap.Output, formatClock(snap.FinishedAt.Sub(snap.StartedAt)))
		if chapters := chaptersOf(terminal); chapters != "" {
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Chapters:")
			fmt.Fprintln(out, chapters)
		}
		if transcript != "" {
			fmt.Fprintf(out, "\nTranscript: %s\n", transcript)
		}
		return nil
	case encodejob.StateCancelled:
		return context.Canceled
	default:
		return fmt.Errorf("encode failed (exit %d): %s", snap.ExitCode, snap.Error)
	}
}

// waitForJob blocks until the job ends. Interrupting runCtx cancels the
// encode and waits for ffmpeg to stop.
func waitForJob(runCtx context.Context, controller *encodejob.Controller) (encodejob.Snapshot, error) {
	snap, err := controller.Wait(runCtx)
	if err == nil {
		return snap, nil
	}
	cancelCtx, cancel := context.WithTimeout(context.Background(), cancelGrace)
	defer cancel()
	if _, cerr := controller.Cancel(cancelCtx); cerr != nil {
		return encodejob.Snapshot{}, fmt.Errorf("cancel encode: %w", cerr)
	}
	return controller.Wait(cancelCtx)
}

// notifyFinished delivers the job alert before the process exits.
func notifyFinished(ctx context.Context, cfg *config.Config, logger *slog.Logger, snap encodejob.Snapshot, chapters string) {
	svc := notifications.NewService(cfg)
	if !notifications.Enabled(svc) {
		return
	}
	if ctx.Err() != nil {
		ctx = context.Background()
	}
	sendCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Notifications.RequestTimeoutSeconds)*time.Second)
	defer cancel()
	if err := svc.NotifyJobFinished(sendCtx, snap, chapters); err != nil {
		logging.WarnWithContext(logger, "job notification failed", "notification_failed",
			logging.String(logging.FieldJobID, snap.ID),
			logging.Error(err),
			logging.String(logging.FieldImpact, "no push alert for this job"),
		)
	}
}

type composeResult struct {
	Job        encodejob.Snapshot `json:"job"`
	Chapters   string             `json:"chapters,omitempty"`
	Transcript string             `json:"transcript,omitempty"`
}

func chaptersOf(e *encodejob.Event) string {
	if e == nil {
		return ""
	}
	return e.Chapters
}

func describePlanError(err error) error {
	var verr *compose.ValidationError
	if !errors.As(err, &verr) {
		return err
	}
	lines := make([]string, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		lines = append(lines, fmt.Sprintf("  %s: %s", f.Field, f.Message))
	}
	return &displayError{text: "invalid settings:\n" + strings.Join(lines, "\n"), cause: err}
}

// displayError replaces an error's message for the terminal while keeping
// it classifiable.
type displayError struct {
	text  string
	cause error
}

func (e *displayError) Error() string { return e.text }

func (e *displayError) Unwrap() error { return e.cause }

func printPlan(out io.Writer, plan *compose.Plan) {
	fmt.Fprintf(out, "Output:      %s\n", plan.Settings.Output)
	fmt.Fprintf(out, "Canvas:      %dx%d @ %s fps, %d Hz\n", plan.Params.Width, plan.Params.Height, plan.Params.FPS, plan.Params.SampleRate)
	encoder := plan.Encoder.Encoder
	if plan.Encoder.Accelerator != "" {
		encoder += " (" + plan.Encoder.Accelerator + ")"
	}
	fmt.Fprintf(out, "Encoder:     %s\n", encoder)
	fmt.Fprintf(out, "Duration:    %s\n\n", formatSeconds(float64(plan.TotalDurationUS)/1e6))

	rows := make([][]string, 0, len(plan.Clips))
	for i, c := range plan.Clips {
		caption := "-"
		if c.Caption {
			caption = c.ChapterLabel
		}
		rows = append(rows, []string{
			fmt.Sprint(i + 1),
			filepath.Base(c.Path),
			formatSeconds(c.Duration),
			yesNo(c.HasAudio),
			caption,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"#", "Clip", "Length", "Audio", "Caption"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignLeft},
	))
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Filter graph:")
	fmt.Fprintln(out, plan.Graph)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Command:")
	fmt.Fprintln(out, strings.Join(append([]string{"ffmpeg"}, plan.Args...), " "))
}
