package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"videomixer/internal/encodejob"
	"videomixer/internal/services"
)

// StateInterrupted marks jobs whose process disappeared without reporting.
const StateInterrupted = "interrupted"

// Record is one row of job history.
type Record struct {
	ID             string    `json:"id"`
	State          string    `json:"state"`
	Output         string    `json:"output"`
	Encoder        string    `json:"encoder"`
	Clips          int       `json:"clips"`
	Command        string    `json:"command"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at,omitempty"`
	Fraction       float64   `json:"fraction"`
	ExitCode       int       `json:"exit_code"`
	Error          string    `json:"error,omitempty"`
	TranscriptPath string    `json:"transcript_path,omitempty"`
}

// Elapsed returns the run time, or zero while unfinished.
func (r Record) Elapsed() time.Duration {
	if r.FinishedAt.IsZero() || r.StartedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

const recordColumns = "id, state, output, encoder, clips, command, started_at, finished_at, fraction, exit_code, error_message, transcript_path"

// RecordStart inserts a row for a newly started job.
func (s *Store) RecordStart(ctx context.Context, snap encodejob.Snapshot, spec encodejob.Spec) error {
	command := strings.Join(append([]string{spec.Binary}, spec.Args...), " ")
	_, err := s.exec(ctx,
		`INSERT INTO jobs (id, state, output, encoder, clips, command, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		snap.ID, string(snap.State), snap.Output, snap.Encoder, snap.Clips, command, formatTime(snap.StartedAt),
	)
	if err != nil {
		return fmt.Errorf("insert job %s: %w", snap.ID, err)
	}
	return nil
}

// RecordFinish stores the terminal state of a job.
func (s *Store) RecordFinish(ctx context.Context, snap encodejob.Snapshot) error {
	res, err := s.exec(ctx,
		`UPDATE jobs SET state = ?, finished_at = ?, fraction = ?, exit_code = ?, error_message = ?, transcript_path = ?
		 WHERE id = ?`,
		string(snap.State), formatTime(snap.FinishedAt), snap.Fraction, snap.ExitCode, snap.Error, snap.TranscriptPath, snap.ID,
	)
	if err != nil {
		return fmt.Errorf("update job %s: %w", snap.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return services.Wrap(services.ErrNotFound, "history", "record finish", "job "+snap.ID, nil)
	}
	return nil
}

// List returns up to limit jobs, newest first. A non-positive limit returns all.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	query := "SELECT " + recordColumns + " FROM jobs ORDER BY started_at DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Get returns the job with id.
func (s *Store) Get(ctx context.Context, id string) (Record, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+recordColumns+" FROM jobs WHERE id = ?", id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, services.Wrap(services.ErrNotFound, "history", "get", "job "+id, nil)
	}
	return rec, err
}

// MarkInterrupted closes out rows still marked running. Call it only while
// holding the host encode lock, when no job can legitimately be running.
func (s *Store) MarkInterrupted(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.exec(ctx,
		"UPDATE jobs SET state = ?, finished_at = ?, error_message = ? WHERE state = ?",
		StateInterrupted, formatTime(now), "process exited without reporting an outcome", string(encodejob.StateRunning),
	)
	if err != nil {
		return 0, fmt.Errorf("mark interrupted jobs: %w", err)
	}
	return res.RowsAffected()
}

// Prune deletes all but the newest keep rows.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := s.exec(ctx,
		`DELETE FROM jobs WHERE id NOT IN (SELECT id FROM jobs ORDER BY started_at DESC LIMIT ?)`,
		keep,
	)
	if err != nil {
		return 0, fmt.Errorf("prune history: %w", err)
	}
	return res.RowsAffected()
}

func scanRecord(scanner interface{ Scan(dest ...any) error }) (Record, error) {
	var (
		rec         Record
		startedRaw  sql.NullString
		finishedRaw sql.NullString
	)
	if err := scanner.Scan(
		&rec.ID,
		&rec.State,
		&rec.Output,
		&rec.Encoder,
		&rec.Clips,
		&rec.Command,
		&startedRaw,
		&finishedRaw,
		&rec.Fraction,
		&rec.ExitCode,
		&rec.Error,
		&rec.TranscriptPath,
	); err != nil {
		return Record{}, err
	}
	rec.StartedAt = parseTime(startedRaw)
	rec.FinishedAt = parseTime(finishedRaw)
	return rec, nil
}

var _ encodejob.Recorder = (*Store)(nil)
