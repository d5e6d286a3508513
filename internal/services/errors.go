package services

import (
	"errors"
	"strings"
)

// Markers classify failures. Every *Error carries exactly one of them.
var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

var markerKinds = []struct {
	marker error
	kind   string
}{
	{ErrValidation, "validation"},
	{ErrConfiguration, "configuration"},
	{ErrNotFound, "not_found"},
	{ErrExternalTool, "external_tool"},
	{ErrTimeout, "timeout"},
	{ErrTransient, "transient"},
}

// Error is a classified failure raised at a named stage of the pipeline
// ("plan", "encode", "history").
type Error struct {
	Marker    error
	Stage     string
	Operation string
	Detail    string
	Err       error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Marker.Error())
	b.WriteString(": ")
	b.WriteString(e.location())
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) location() string {
	parts := make([]string, 0, 3)
	for _, part := range []string{e.Stage, e.Operation, e.Detail} {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}

// Unwrap exposes both the marker and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Marker}
	}
	return []error{e.Marker, e.Err}
}

// Wrap tags err with marker and the stage/operation it failed in. A nil
// marker is treated as ErrTransient.
func Wrap(marker error, stage, operation, detail string, err error) error {
	if marker == nil {
		marker = ErrTransient
	}
	return &Error{Marker: marker, Stage: stage, Operation: operation, Detail: detail, Err: err}
}

// Kind returns a stable snake_case name for err's marker, or "" when err
// carries none.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, mk := range markerKinds {
		if errors.Is(err, mk.marker) {
			return mk.kind
		}
	}
	return ""
}

// IsUserError reports whether err was caused by caller input or configuration
// rather than by the environment.
func IsUserError(err error) bool {
	switch Kind(err) {
	case "validation", "configuration", "not_found":
		return true
	}
	return false
}
