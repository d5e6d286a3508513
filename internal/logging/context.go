package logging

import (
	"context"
	"log/slog"

	"videomixer/internal/services"
)

// ContextFields returns the job, stage and correlation attributes carried by
// ctx, skipping unset ones.
func ContextFields(ctx context.Context) []slog.Attr {
	scope := services.ScopeFrom(ctx)
	var fields []slog.Attr
	for _, f := range []struct{ key, value string }{
		{FieldJobID, scope.JobID},
		{FieldStage, scope.Stage},
		{FieldCorrelationID, scope.RequestID},
	} {
		if f.value != "" {
			fields = append(fields, slog.String(f.key, f.value))
		}
	}
	return fields
}

// WithContext returns logger augmented with the fields derived from ctx.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if fields := ContextFields(ctx); len(fields) > 0 {
		return logger.With(Args(fields...)...)
	}
	return logger
}
