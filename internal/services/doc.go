// Package services defines shared utilities consumed by the workflow lanes
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, lane names, and correlation
//     identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that keep failure
//     classification (transient vs conflict vs configuration) uniform across
//     the pipeline and the HTTP edge.
//
// Use these helpers when wiring new lane logic so operational behaviour
// (error handling, observability) stays uniform across the pipeline.
package services
