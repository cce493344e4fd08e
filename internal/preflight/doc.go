// Package preflight provides readiness checks for the directories and
// external tools gopsplice depends on.
//
// The job runner calls RunAll before taking the stem lock so a doomed encode
// fails in seconds rather than after hours of work. The CLI "gopsplice check"
// command prints the same results together with CheckSystemDeps.
package preflight
