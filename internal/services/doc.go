// Package services defines shared utilities consumed by the job stages and the
// external tool adapters.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, stems, and part ordinals
//     for logging and tracing.
//   - Structured error markers plus the Wrap helper that keep probe, part
//     validation, remux, and alignment failures distinguishable with errors.Is.
//   - ExitCode, which maps those markers onto CLI exit statuses.
//
// Use these helpers when wiring new stage logic so failures stay classified the
// same way across the pipeline.
package services
