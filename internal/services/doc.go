// Package services defines shared utilities consumed by the composition
// pipeline and its external tool integrations.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, pipeline stages, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper so callers can classify
//     failures (validation vs external tool vs configuration) with errors.Is.
//
// Use these helpers when wiring new pipeline logic so error handling and
// observability stay uniform across probing, planning, and encoding.
package services
