// Package logging builds the slog loggers gopsplice writes to stderr and to
// gopsplice.log.
//
// The console handler prefixes each line with a bracketed job tag built from
// the stem, part, stage and run fields that WithContext attaches, so an
// interrupted attempt and its resume are easy to follow in one file. The JSON
// handler keeps those fields as plain keys for machine consumption.
package logging
