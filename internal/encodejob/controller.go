package encodejob

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"videomixer/internal/chapters"
	"videomixer/internal/logging"
	"videomixer/internal/metrics"
	"videomixer/internal/services"
)

const (
	markerFinished   = "----Process finished----"
	markerError      = "----Process error----"
	markerTerminated = "----Process terminated----"
	chapterHeading   = "Chapter"

	maxLineBytes = 1 << 20
)

// TranscriptStore persists a finished job transcript.
type TranscriptStore interface {
	Persist(transcript string) (string, error)
}

// Recorder receives job lifecycle records, typically for history.
type Recorder interface {
	RecordStart(ctx context.Context, snap Snapshot, spec Spec) error
	RecordFinish(ctx context.Context, snap Snapshot) error
}

// Locker guards against concurrent encodes from other processes on the host.
type Locker interface {
	TryLock() (bool, error)
	Unlock() error
}

// Option configures a Controller.
type Option func(*Controller)

// WithRunner overrides the process runner.
func WithRunner(r Runner) Option {
	return func(c *Controller) {
		if r != nil {
			c.runner = r
		}
	}
}

// WithTranscriptStore sets where successful transcripts are persisted.
func WithTranscriptStore(s TranscriptStore) Option {
	return func(c *Controller) { c.store = s }
}

// WithRecorder attaches a lifecycle recorder.
func WithRecorder(r Recorder) Option {
	return func(c *Controller) { c.recorder = r }
}

// WithLocker attaches a host-wide lock held for the duration of each job.
func WithLocker(l Locker) Option {
	return func(c *Controller) { c.locker = l }
}

// Controller runs one encode job at a time and publishes its events.
type Controller struct {
	runner   Runner
	store    TranscriptStore
	recorder Recorder
	locker   Locker
	logger   *slog.Logger
	now      func() time.Time

	mu      sync.Mutex
	current *job
	last    *job

	subMu   sync.RWMutex
	subs    map[int]func(Event)
	nextSub int
}

type job struct {
	id     string
	spec   Spec
	proc   Process
	logger *slog.Logger

	state           State
	fraction        float64
	progressed      bool
	cancelRequested bool
	started         time.Time
	finished        time.Time
	exitCode        int
	errMsg          string
	transcriptPath  string

	transcript logging.Transcript
	sampler    *logging.ProgressSampler
	done       chan struct{}
}

// NewController constructs a controller that runs real ffmpeg processes
// unless overridden by options.
func NewController(logger *slog.Logger, opts ...Option) *Controller {
	c := &Controller{
		runner: ExecRunner{},
		logger: logging.NewComponentLogger(logger, "encodejob"),
		now:    time.Now,
		subs:   make(map[int]func(Event)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Subscribe registers fn for every future event. Events for a job arrive in
// emission order from a single goroutine; fn must not block for long.
func (c *Controller) Subscribe(fn func(Event)) func() {
	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.subMu.Unlock()
	return func() {
		c.subMu.Lock()
		delete(c.subs, id)
		c.subMu.Unlock()
	}
}

func (c *Controller) emit(e Event) {
	if e.Time.IsZero() {
		e.Time = c.now()
	}
	c.subMu.RLock()
	handlers := make([]func(Event), 0, len(c.subs))
	for _, fn := range c.subs {
		handlers = append(handlers, fn)
	}
	c.subMu.RUnlock()
	for _, fn := range handlers {
		fn(e)
	}
}

// Start launches spec and returns the running job's snapshot.
func (c *Controller) Start(ctx context.Context, spec Spec) (Snapshot, error) {
	if len(spec.Args) == 0 {
		return Snapshot{}, services.Wrap(services.ErrValidation, "encode", "start", "no ffmpeg arguments", nil)
	}
	if strings.TrimSpace(spec.Binary) == "" {
		spec.Binary = "ffmpeg"
	}

	j, err := c.register(ctx, spec)
	if err != nil {
		return Snapshot{}, err
	}
	snap := c.snapshotOf(j)

	metrics.JobsStartedTotal.Inc()
	metrics.JobRunning.Set(1)
	metrics.JobProgress.Set(0)
	j.logger.Info("encode started",
		logging.String(logging.FieldEventType, "encode_started"),
		logging.String("encoder", spec.Encoder),
		logging.String("output", spec.Output),
		logging.Int("clips", len(spec.Durations)),
	)
	j.logger.Debug("ffmpeg command", logging.String("command", commandLine(spec)))
	if c.recorder != nil {
		if err := c.recorder.RecordStart(ctx, snap, spec); err != nil {
			logging.WarnWithContext(j.logger, "history record failed", "history_write_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "job will be missing from history"),
			)
		}
	}

	c.emit(Event{JobID: j.id, Type: EventStarted, Line: commandLine(spec)})
	go c.monitor(j)
	return snap, nil
}

func (c *Controller) register(ctx context.Context, spec Spec) (*job, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != nil {
		return nil, ErrJobAlreadyRunning
	}
	if c.locker != nil {
		ok, err := c.locker.TryLock()
		if err != nil {
			return nil, services.Wrap(services.ErrTransient, "encode", "acquire host lock", "", err)
		}
		if !ok {
			return nil, ErrHostBusy
		}
	}
	proc, err := c.runner.Start(spec.Binary, spec.Args)
	if err != nil {
		c.releaseLock()
		return nil, services.Wrap(services.ErrExternalTool, "encode", "start ffmpeg", spec.Binary, err)
	}

	id := uuid.NewString()
	j := &job{
		id:      id,
		spec:    spec,
		proc:    proc,
		logger:  logging.WithContext(services.WithJobID(ctx, id), c.logger),
		state:   StateRunning,
		started: c.now(),
		sampler: logging.NewProgressSampler(10),
		done:    make(chan struct{}),
	}
	c.current = j
	return j, nil
}

func (c *Controller) releaseLock() {
	if c.locker == nil {
		return
	}
	if err := c.locker.Unlock(); err != nil {
		c.logger.Warn("release host lock failed", logging.Error(err))
	}
}

// Cancel terminates the running job and waits until its terminal event has
// been emitted. It reports false when no job was running.
func (c *Controller) Cancel(ctx context.Context) (bool, error) {
	c.mu.Lock()
	j := c.current
	if j == nil || j.state != StateRunning {
		c.mu.Unlock()
		return false, nil
	}
	first := !j.cancelRequested
	j.cancelRequested = true
	c.mu.Unlock()

	if first {
		j.logger.Info("cancel requested", logging.String(logging.FieldEventType, "encode_cancel_requested"))
		if err := j.proc.Terminate(); err != nil {
			j.logger.Warn("terminate ffmpeg failed", logging.Error(err))
		}
	}
	select {
	case <-j.done:
		return true, nil
	case <-ctx.Done():
		return true, ctx.Err()
	}
}

// Wait blocks until the current or most recent job has fully finished,
// including transcript and history writes, and returns its snapshot.
func (c *Controller) Wait(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	j := c.current
	if j == nil {
		j = c.last
	}
	c.mu.Unlock()
	if j != nil {
		select {
		case <-j.done:
		case <-ctx.Done():
			return Snapshot{}, ctx.Err()
		}
	}
	snap, _ := c.Current()
	return snap, nil
}

// Current returns the running job, or the most recently finished one. The
// boolean is false when no job has ever run.
func (c *Controller) Current() (Snapshot, bool) {
	c.mu.Lock()
	j := c.current
	if j == nil {
		j = c.last
	}
	c.mu.Unlock()
	if j == nil {
		return Snapshot{State: StateIdle}, false
	}
	return c.snapshotOf(j), true
}

func (c *Controller) snapshotOf(j *job) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		ID:             j.id,
		State:          j.state,
		Fraction:       j.fraction,
		Output:         j.spec.Output,
		Encoder:        j.spec.Encoder,
		Clips:          len(j.spec.Durations),
		StartedAt:      j.started,
		FinishedAt:     j.finished,
		ExitCode:       j.exitCode,
		Error:          j.errMsg,
		TranscriptPath: j.transcriptPath,
	}
}

func (c *Controller) monitor(j *job) {
	output := j.proc.Output()
	scanner := bufio.NewScanner(output)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	scanner.Split(scanLines)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		j.transcript.Append(line)
		c.emit(Event{JobID: j.id, Type: EventLog, Line: line})
		if fraction, ok := ParseProgress(line, j.spec.TotalDurationUS); ok {
			c.progress(j, fraction)
		}
	}
	if err := scanner.Err(); err != nil {
		j.logger.Warn("ffmpeg output read failed", logging.Error(err))
		_, _ = io.Copy(io.Discard, output)
	}

	exitCode, waitErr := j.proc.Wait()
	c.finish(j, exitCode, waitErr)
}

func (c *Controller) progress(j *job, fraction float64) {
	c.mu.Lock()
	if j.progressed && fraction <= j.fraction {
		c.mu.Unlock()
		return
	}
	j.fraction = fraction
	j.progressed = true
	c.mu.Unlock()

	metrics.JobProgress.Set(fraction)
	if j.sampler.Sample(fraction) {
		j.logger.Info("encode progress", logging.Float64("percent", fraction*100))
	}
	c.emit(Event{JobID: j.id, Type: EventProgress, Fraction: fraction})
}

func (c *Controller) finish(j *job, exitCode int, waitErr error) {
	c.mu.Lock()
	state := StateFailed
	switch {
	case j.cancelRequested:
		state = StateCancelled
	case waitErr == nil && exitCode == 0:
		state = StateSucceeded
	}
	j.state = state
	j.exitCode = exitCode
	j.finished = c.now()
	switch {
	case state != StateFailed:
	case waitErr != nil:
		j.errMsg = waitErr.Error()
	default:
		j.errMsg = fmt.Sprintf("ffmpeg exited with status %d", exitCode)
	}
	c.mu.Unlock()

	elapsed := j.finished.Sub(j.started)
	metrics.JobRunning.Set(0)
	metrics.JobsFinishedTotal.WithLabelValues(string(state)).Inc()

	terminal := Event{JobID: j.id, ExitCode: exitCode}
	switch state {
	case StateSucceeded:
		c.progress(j, 1)
		metrics.EncodeDuration.Observe(elapsed.Seconds())
		terminal.Type = EventSucceeded
		terminal.Chapters = chapters.Build(j.spec.Durations, j.spec.ChapterLabels)
		j.transcript.Append(markerFinished)
		j.transcript.Append("\n" + chapterHeading)
		j.transcript.Append(terminal.Chapters)
		j.logger.Info("encode finished",
			logging.String(logging.FieldEventType, "encode_succeeded"),
			logging.Duration("elapsed", elapsed),
			logging.String("output", j.spec.Output),
		)
	case StateCancelled:
		terminal.Type = EventCancelled
		j.transcript.Append(markerTerminated)
		j.logger.Info("encode cancelled",
			logging.String(logging.FieldEventType, "encode_cancelled"),
			logging.Duration("elapsed", elapsed),
		)
	default:
		terminal.Type = EventFailed
		terminal.Error = j.errMsg
		j.transcript.Append(markerError)
		logging.ErrorWithContext(j.logger, "encode failed", "encode_failed",
			logging.Int("exit_code", exitCode),
			logging.String("error", j.errMsg),
			logging.String(logging.FieldErrorHint, "inspect the job transcript for ffmpeg diagnostics"),
		)
	}

	c.releaseLock()
	c.mu.Lock()
	c.current = nil
	c.last = j
	c.mu.Unlock()

	c.emit(terminal)

	if state == StateSucceeded && c.store != nil {
		path, err := c.store.Persist(j.transcript.String())
		if err != nil {
			logging.WarnWithContext(j.logger, "transcript persist failed", "transcript_write_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "job transcript is not saved"),
			)
		}
		if path != "" {
			c.mu.Lock()
			j.transcriptPath = path
			c.mu.Unlock()
			c.emit(Event{JobID: j.id, Type: EventTranscriptSaved, TranscriptPath: path})
		}
	}

	if c.recorder != nil {
		if err := c.recorder.RecordFinish(context.Background(), c.snapshotOf(j)); err != nil {
			logging.WarnWithContext(j.logger, "history record failed", "history_write_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "job outcome will be missing from history"),
			)
		}
	}
	close(j.done)
}

func commandLine(spec Spec) string {
	return strings.Join(append([]string{spec.Binary}, spec.Args...), " ")
}
