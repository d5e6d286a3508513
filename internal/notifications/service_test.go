package notifications_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"videomixer/internal/config"
	"videomixer/internal/encodejob"
	"videomixer/internal/notifications"
)

type capturedRequest struct {
	title    string
	tags     string
	priority string
	agent    string
	body     string
}

func newCaptureServer(t *testing.T) (*httptest.Server, <-chan capturedRequest) {
	t.Helper()
	requests := make(chan capturedRequest, 4)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		requests <- capturedRequest{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			agent:    r.Header.Get("User-Agent"),
			body:     string(body),
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)
	return server, requests
}

func configWithTopic(topic string) *config.Config {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = topic
	return &cfg
}

func finishedJob(state encodejob.State) encodejob.Snapshot {
	started := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	return encodejob.Snapshot{
		ID:         "job-1",
		State:      state,
		Output:     "/videos/out/mix.mp4",
		Clips:      3,
		StartedAt:  started,
		FinishedAt: started.Add(90 * time.Second),
		ExitCode:   1,
		Error:      "Conversion failed!",
	}
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	svc := notifications.NewService(configWithTopic(""))
	if notifications.Enabled(svc) {
		t.Fatal("expected disabled service without a topic")
	}
	if err := svc.NotifyJobFinished(context.Background(), finishedJob(encodejob.StateSucceeded), ""); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
	if err := svc.TestNotification(context.Background()); err != nil {
		t.Fatalf("expected noop test notification to return nil, got %v", err)
	}
}

func TestNotifyJobFinishedFormatsByState(t *testing.T) {
	tests := []struct {
		name           string
		state          encodejob.State
		chapters       string
		expectTitle    string
		expectBody     []string
		expectTags     string
		expectPriority string
	}{
		{
			name:        "succeeded",
			state:       encodejob.StateSucceeded,
			chapters:    "00:00 Clip A\n00:12 Clip B\n",
			expectTitle: "videomixer - Encode Complete",
			expectBody:  []string{"mix.mp4 ready (3 clips, 1m30s)", "00:12 Clip B"},
			expectTags:  "videomixer,encode,completed",
		},
		{
			name:           "failed",
			state:          encodejob.StateFailed,
			expectTitle:    "videomixer - Encode Failed",
			expectBody:     []string{"mix.mp4 failed after 1m30s", "Conversion failed!"},
			expectTags:     "videomixer,encode,error",
			expectPriority: "high",
		},
		{
			name:           "cancelled",
			state:          encodejob.StateCancelled,
			expectTitle:    "videomixer - Encode Cancelled",
			expectBody:     []string{"mix.mp4 cancelled after 1m30s"},
			expectTags:     "videomixer,encode,cancelled",
			expectPriority: "low",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, requests := newCaptureServer(t)
			svc := notifications.NewService(configWithTopic(server.URL))

			if err := svc.NotifyJobFinished(context.Background(), finishedJob(tt.state), tt.chapters); err != nil {
				t.Fatalf("NotifyJobFinished returned error: %v", err)
			}
			got := <-requests
			if got.title != tt.expectTitle {
				t.Fatalf("title = %q, want %q", got.title, tt.expectTitle)
			}
			if got.tags != tt.expectTags {
				t.Fatalf("tags = %q, want %q", got.tags, tt.expectTags)
			}
			if got.priority != tt.expectPriority {
				t.Fatalf("priority = %q, want %q", got.priority, tt.expectPriority)
			}
			if !strings.HasPrefix(got.agent, "videomixer/") {
				t.Fatalf("unexpected user agent %q", got.agent)
			}
			for _, want := range tt.expectBody {
				if !strings.Contains(got.body, want) {
					t.Fatalf("body %q missing %q", got.body, want)
				}
			}
		})
	}
}

func TestNotifyReportsServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic is reserved", http.StatusForbidden)
	}))
	defer server.Close()

	svc := notifications.NewService(configWithTopic(server.URL))
	err := svc.TestNotification(context.Background())
	if err == nil || !strings.Contains(err.Error(), "403") || !strings.Contains(err.Error(), "topic is reserved") {
		t.Fatalf("expected 403 error with body, got %v", err)
	}
}

type recordingService struct {
	mu   sync.Mutex
	jobs []encodejob.Snapshot
	done chan struct{}
}

func (r *recordingService) NotifyJobFinished(_ context.Context, job encodejob.Snapshot, _ string) error {
	r.mu.Lock()
	r.jobs = append(r.jobs, job)
	r.mu.Unlock()
	close(r.done)
	return nil
}

func (r *recordingService) TestNotification(context.Context) error { return nil }

func TestSubscriberNotifiesOnTerminalEventsOnly(t *testing.T) {
	svc := &recordingService{done: make(chan struct{})}
	job := finishedJob(encodejob.StateSucceeded)
	lookups := 0
	handler := notifications.Subscriber(svc, func() (encodejob.Snapshot, bool) {
		lookups++
		return job, true
	}, time.Second, nil)

	handler(encodejob.Event{JobID: job.ID, Type: encodejob.EventProgress, Fraction: 0.5})
	handler(encodejob.Event{JobID: job.ID, Type: encodejob.EventLog, Line: "frame=1"})
	if lookups != 0 {
		t.Fatalf("expected no lookups for non-terminal events, got %d", lookups)
	}

	handler(encodejob.Event{JobID: job.ID, Type: encodejob.EventSucceeded})
	select {
	case <-svc.done:
	case <-time.After(2 * time.Second):
		t.Fatal("notification was not sent")
	}
	svc.mu.Lock()
	defer svc.mu.Unlock()
	if len(svc.jobs) != 1 || svc.jobs[0].ID != "job-1" {
		t.Fatalf("unexpected notified jobs: %+v", svc.jobs)
	}
}
