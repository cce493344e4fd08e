// Package journal keeps a diagnostic history of encode attempts in SQLite.
//
// Every attempt records its run id, stem, the resume decision it acted on, the
// part it produced and how it ended. The journal is never consulted when
// computing a resume point; parts on disk remain the only source of truth.
// Attempts still marked running when the next attempt for the same stem takes
// the lock are flagged as interrupted.
package journal
