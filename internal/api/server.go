package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"videomixer/internal/compose"
	"videomixer/internal/encodejob"
	"videomixer/internal/history"
	"videomixer/internal/logging"
)

// Planner turns settings into an encode plan.
type Planner interface {
	Plan(ctx context.Context, s compose.Settings) (*compose.Plan, error)
}

// JobController runs encode jobs.
type JobController interface {
	Start(ctx context.Context, spec encodejob.Spec) (encodejob.Snapshot, error)
	Cancel(ctx context.Context) (bool, error)
	Current() (encodejob.Snapshot, bool)
	Subscribe(fn func(encodejob.Event)) func()
}

// HistoryStore lists past jobs.
type HistoryStore interface {
	List(ctx context.Context, limit int) ([]history.Record, error)
}

// TranscriptLister lists retained job transcripts.
type TranscriptLister interface {
	List() ([]logging.TranscriptInfo, error)
}

type Server struct {
	planner     Planner
	jobs        JobController
	history     HistoryStore
	transcripts TranscriptLister
	defaults    compose.Settings
	ffmpeg      string
	token       string
	gatherer    prometheus.Gatherer
	rps         float64
	burst       int
	progressRPS float64

	logger      *slog.Logger
	handler     http.Handler
	hub         *wsHub
	progress    *rate.Limiter
	unsubscribe func()
	httpServer  *http.Server
}

type ServerOption func(*Server)

func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) { s.logger = logger }
}

func WithHistory(store HistoryStore) ServerOption {
	return func(s *Server) { s.history = store }
}

func WithTranscripts(lister TranscriptLister) ServerOption {
	return func(s *Server) { s.transcripts = lister }
}

// WithDefaults sets the settings a request body is decoded on top of.
func WithDefaults(settings compose.Settings) ServerOption {
	return func(s *Server) { s.defaults = settings }
}

// WithFFmpeg sets the encoder binary passed to started jobs.
func WithFFmpeg(binary string) ServerOption {
	return func(s *Server) { s.ffmpeg = binary }
}

// WithToken requires a bearer token on API routes.
func WithToken(token string) ServerOption {
	return func(s *Server) { s.token = token }
}

// WithMetrics mounts /metrics for gatherer.
func WithMetrics(gatherer prometheus.Gatherer) ServerOption {
	return func(s *Server) { s.gatherer = gatherer }
}

// WithRateLimit overrides the global request rate limit.
func WithRateLimit(rps float64, burst int) ServerOption {
	return func(s *Server) {
		s.rps = rps
		s.burst = burst
	}
}

// WithProgressRate caps progress messages per second sent to websocket clients.
func WithProgressRate(perSecond float64) ServerOption {
	return func(s *Server) { s.progressRPS = perSecond }
}

// NewServer wires routes and subscribes to jobs for the event stream.
func NewServer(planner Planner, jobs JobController, opts ...ServerOption) *Server {
	s := &Server{
		planner:     planner,
		jobs:        jobs,
		defaults:    compose.DefaultSettings(nil),
		ffmpeg:      "ffmpeg",
		rps:         20,
		burst:       40,
		progressRPS: 4,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.NewComponentLogger(s.logger, "api")
	s.progress = rate.NewLimiter(rate.Limit(s.progressRPS), 1)

	s.hub = newWSHub(s.logger)
	go s.hub.run()
	if jobs != nil {
		s.unsubscribe = jobs.Subscribe(s.forward)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/jobs", s.handleCreateJob)
	mux.HandleFunc("GET /api/jobs/current", s.handleCurrentJob)
	mux.HandleFunc("DELETE /api/jobs/current", s.handleCancelJob)
	mux.HandleFunc("GET /api/history", s.handleHistory)
	mux.HandleFunc("GET /api/transcripts", s.handleTranscripts)
	mux.HandleFunc("GET /api/events", s.handleEvents)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	s.handler = recoveryMiddleware(s.logger,
		requestIDMiddleware(
			rateLimitMiddleware(s.rps, s.burst,
				metricsMiddleware(
					loggingMiddleware(s.logger,
						authMiddleware(s.token, mux))))))
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// forward relays controller events to websocket clients. Lifecycle events
// always go out; progress is rate limited except for completion.
func (s *Server) forward(e encodejob.Event) {
	switch e.Type {
	case encodejob.EventLog:
		s.hub.Broadcast(string(e.Type), e)
	case encodejob.EventProgress:
		if e.Fraction >= 1 {
			s.hub.BroadcastReliable(string(e.Type), e)
		} else if s.progress.Allow() {
			s.hub.Broadcast(string(e.Type), e)
		}
	default:
		s.hub.BroadcastReliable(string(e.Type), e)
	}
}

// Start listens on bind and serves until ctx is cancelled or Close is called.
func (s *Server) Start(ctx context.Context, bind string) (net.Addr, error) {
	listener, err := net.Listen("tcp", bind)
	if err != nil {
		return nil, fmt.Errorf("api listen: %w", err)
	}
	s.httpServer = &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		s.shutdown()
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return listener.Addr(), nil
}

func (s *Server) shutdown() {
	if s.httpServer == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.httpServer.Shutdown(shutdownCtx)
}

// Close stops the HTTP server, detaches from the controller, and disconnects
// websocket clients.
func (s *Server) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	s.hub.Close()
	s.shutdown()
}
