// Package services defines shared utilities consumed by the encode dispatcher
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, stage names, worker slots, and
//     correlation identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that keep failure
//     classification consistent across components.
//
// Use these helpers when wiring new dispatch logic so operational behaviour
// (error handling, observability) stays uniform across the pipeline.
package services
