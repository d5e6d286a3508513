package api

import (
	"encoding/json"
	"net/http"

	"videomixer/internal/compose"
)

type errorEnvelope struct {
	Error errorPayload `json:"error"`
}

type errorPayload struct {
	Code    string               `json:"code"`
	Message string               `json:"message"`
	Fields  []compose.FieldError `json:"fields,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorEnvelope{Error: errorPayload{Code: code, Message: message}})
}

func writeValidationError(w http.ResponseWriter, verr *compose.ValidationError) {
	writeJSON(w, http.StatusBadRequest, errorEnvelope{Error: errorPayload{
		Code:    "invalid_settings",
		Message: verr.Error(),
		Fields:  verr.Fields,
	}})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// statusForKind maps a services error kind onto an HTTP status.
func statusForKind(kind string) int {
	switch kind {
	case "validation", "configuration":
		return http.StatusBadRequest
	case "not_found":
		return http.StatusNotFound
	case "external_tool":
		return http.StatusBadGateway
	case "timeout":
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
