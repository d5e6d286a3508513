package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"videomixer/internal/compose"
	"videomixer/internal/encodejob"
	"videomixer/internal/history"
	"videomixer/internal/logging"
	"videomixer/internal/services"
)

const (
	maxSettingsBytes    = 1 << 20
	defaultHistoryLimit = 50
	cancelTimeout       = 30 * time.Second
)

// CreateJobResponse is returned by POST /api/jobs.
type CreateJobResponse struct {
	Job  encodejob.Snapshot `json:"job"`
	Plan *compose.Plan      `json:"plan"`
}

// CurrentJobResponse is returned by GET /api/jobs/current.
type CurrentJobResponse struct {
	Job    encodejob.Snapshot `json:"job"`
	Active bool               `json:"active"`
}

// CancelJobResponse is returned by DELETE /api/jobs/current.
type CancelJobResponse struct {
	Cancelled bool               `json:"cancelled"`
	Job       encodejob.Snapshot `json:"job"`
}

// HistoryResponse is returned by GET /api/history.
type HistoryResponse struct {
	Jobs []history.Record `json:"jobs"`
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	if snap, _ := s.jobs.Current(); snap.State == encodejob.StateRunning {
		writeError(w, http.StatusConflict, "job_running", "an encode job is already running")
		return
	}

	settings := s.defaults
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSettingsBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&settings); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	plan, err := s.planner.Plan(r.Context(), settings)
	if err != nil {
		var verr *compose.ValidationError
		if errors.As(err, &verr) {
			writeValidationError(w, verr)
			return
		}
		status := statusForKind(services.Kind(err))
		if status >= http.StatusInternalServerError {
			logging.ErrorWithContext(logging.WithContext(r.Context(), s.logger), "plan failed", "plan_failed", logging.Error(err))
		}
		writeError(w, status, "plan_failed", err.Error())
		return
	}

	snap, err := s.jobs.Start(context.WithoutCancel(r.Context()), plan.Spec(s.ffmpeg))
	switch {
	case err == nil:
	case errors.Is(err, encodejob.ErrJobAlreadyRunning), errors.Is(err, encodejob.ErrHostBusy):
		writeError(w, http.StatusConflict, "job_running", err.Error())
		return
	case services.Kind(err) == "external_tool":
		writeError(w, http.StatusBadGateway, "encoder_unavailable", err.Error())
		return
	default:
		writeError(w, http.StatusInternalServerError, "start_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, CreateJobResponse{Job: snap, Plan: plan})
}

func (s *Server) handleCurrentJob(w http.ResponseWriter, _ *http.Request) {
	snap, _ := s.jobs.Current()
	writeJSON(w, http.StatusOK, CurrentJobResponse{Job: snap, Active: snap.State == encodejob.StateRunning})
}

func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), cancelTimeout)
	defer cancel()
	cancelled, err := s.jobs.Cancel(ctx)
	if err != nil {
		writeError(w, http.StatusGatewayTimeout, "cancel_timeout", err.Error())
		return
	}
	snap, _ := s.jobs.Current()
	writeJSON(w, http.StatusOK, CancelJobResponse{Cancelled: cancelled, Job: snap})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusNotFound, "history_disabled", "job history is not configured")
		return
	}
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	records, err := s.history.List(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "history_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, HistoryResponse{Jobs: records})
}

func (s *Server) handleTranscripts(w http.ResponseWriter, _ *http.Request) {
	if s.transcripts == nil {
		writeError(w, http.StatusNotFound, "transcripts_disabled", "transcript storage is not configured")
		return
	}
	infos, err := s.transcripts.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "transcripts_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transcripts": infos})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("ws upgrade failed", logging.Error(err))
		return
	}
	client := &wsClient{
		hub:  s.hub,
		conn: conn,
		send: make(chan []byte, 256),
	}
	snap, _ := s.jobs.Current()
	if payload, err := encodeMessage("snapshot", snap); err == nil {
		client.send <- payload
	}
	select {
	case s.hub.register <- client:
	case <-s.hub.done:
		conn.Close()
		return
	}
	go client.writePump()
	go client.readPump()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
