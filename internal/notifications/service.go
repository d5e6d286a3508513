package notifications

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"videomixer/internal/config"
	"videomixer/internal/encodejob"
	"videomixer/internal/logging"
)

const userAgent = "videomixer/1.0"

// Service sends job notifications.
type Service interface {
	NotifyJobFinished(ctx context.Context, job encodejob.Snapshot, chapters string) error
	TestNotification(ctx context.Context) error
}

// NewService builds an ntfy-backed service, or a no-op one when
// notifications.ntfy_topic is empty.
func NewService(cfg *config.Config) Service {
	if cfg == nil || strings.TrimSpace(cfg.Notifications.NtfyTopic) == "" {
		return noopService{}
	}
	timeout := time.Duration(cfg.Notifications.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint: strings.TrimSpace(cfg.Notifications.NtfyTopic),
		client:   &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether svc actually delivers messages.
func Enabled(svc Service) bool {
	_, noop := svc.(noopService)
	return svc != nil && !noop
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyJobFinished(ctx context.Context, job encodejob.Snapshot, chapters string) error {
	return n.send(ctx, jobPayload(job, chapters))
}

func jobPayload(job encodejob.Snapshot, chapters string) payload {
	name := filepath.Base(job.Output)
	elapsed := "0s"
	if !job.FinishedAt.IsZero() && !job.StartedAt.IsZero() {
		elapsed = job.FinishedAt.Sub(job.StartedAt).Round(time.Second).String()
	}
	switch job.State {
	case encodejob.StateSucceeded:
		message := fmt.Sprintf("✅ %s ready (%d clips, %s)", name, job.Clips, elapsed)
		if chapters = strings.TrimSpace(chapters); chapters != "" {
			message += "\n\n" + chapters
		}
		return payload{
			title:   "videomixer - Encode Complete",
			message: message,
			tags:    []string{"videomixer", "encode", "completed"},
		}
	case encodejob.StateCancelled:
		return payload{
			title:    "videomixer - Encode Cancelled",
			message:  fmt.Sprintf("⏹ %s cancelled after %s", name, elapsed),
			tags:     []string{"videomixer", "encode", "cancelled"},
			priority: "low",
		}
	default:
		message := fmt.Sprintf("❌ %s failed after %s", name, elapsed)
		if job.Error != "" {
			message += "\n" + job.Error
		}
		return payload{
			title:    "videomixer - Encode Failed",
			message:  message,
			tags:     []string{"videomixer", "encode", "error"},
			priority: "high",
		}
	}
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "videomixer - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"videomixer", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Subscriber returns an encodejob subscriber that notifies on terminal
// events. Delivery runs in the background so the controller is never held up
// by the network; lookup supplies the finished job's snapshot.
func Subscriber(svc Service, lookup func() (encodejob.Snapshot, bool), timeout time.Duration, logger *slog.Logger) func(encodejob.Event) {
	logger = logging.NewComponentLogger(logger, "notifications")
	return func(e encodejob.Event) {
		if !e.Type.Terminal() || !Enabled(svc) {
			return
		}
		snap, ok := lookup()
		if !ok || snap.ID != e.JobID {
			return
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			if err := svc.NotifyJobFinished(ctx, snap, e.Chapters); err != nil {
				logging.WarnWithContext(logger, "job notification failed", "notification_failed",
					logging.String(logging.FieldJobID, e.JobID),
					logging.Error(err),
					logging.String(logging.FieldImpact, "no push alert for this job"),
				)
			}
		}()
	}
}

type noopService struct{}

func (noopService) NotifyJobFinished(context.Context, encodejob.Snapshot, string) error { return nil }

func (noopService) TestNotification(context.Context) error { return nil }
