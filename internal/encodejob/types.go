package encodejob

import (
	"errors"
	"time"
)

var (
	// ErrJobAlreadyRunning is returned by Start while another job is active.
	ErrJobAlreadyRunning = errors.New("an encode job is already running")
	// ErrHostBusy is returned when another process holds the host encode lock.
	ErrHostBusy = errors.New("another videomixer process is encoding")
)

// State is the job lifecycle state.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
	StateCancelled State = "cancelled"
)

// Terminal reports whether s is a final state.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed || s == StateCancelled
}

// EventType discriminates controller events.
type EventType string

const (
	EventStarted         EventType = "started"
	EventLog             EventType = "log"
	EventProgress        EventType = "progress"
	EventSucceeded       EventType = "succeeded"
	EventFailed          EventType = "failed"
	EventCancelled       EventType = "cancelled"
	EventTranscriptSaved EventType = "transcript_saved"
)

// Terminal reports whether the event ends a job.
func (t EventType) Terminal() bool {
	return t == EventSucceeded || t == EventFailed || t == EventCancelled
}

// Event is published to subscribers in emission order.
type Event struct {
	JobID          string    `json:"job_id"`
	Type           EventType `json:"type"`
	Time           time.Time `json:"time"`
	Line           string    `json:"line,omitempty"`
	Fraction       float64   `json:"fraction,omitempty"`
	ExitCode       int       `json:"exit_code,omitempty"`
	Error          string    `json:"error,omitempty"`
	Chapters       string    `json:"chapters,omitempty"`
	TranscriptPath string    `json:"transcript_path,omitempty"`
}

// Spec is everything needed to run one encode.
type Spec struct {
	Binary          string    `json:"binary"`
	Args            []string  `json:"args"`
	Output          string    `json:"output"`
	Encoder         string    `json:"encoder"`
	Durations       []float64 `json:"durations"`
	ChapterLabels   []string  `json:"chapter_labels"`
	TotalDurationUS int64     `json:"total_duration_us"`
}

// Snapshot is a point-in-time copy of a job's state.
type Snapshot struct {
	ID             string    `json:"id"`
	State          State     `json:"state"`
	Fraction       float64   `json:"fraction"`
	Output         string    `json:"output"`
	Encoder        string    `json:"encoder"`
	Clips          int       `json:"clips"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at,omitempty"`
	ExitCode       int       `json:"exit_code"`
	Error          string    `json:"error,omitempty"`
	TranscriptPath string    `json:"transcript_path,omitempty"`
}
