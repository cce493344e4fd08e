// Package main hosts the gopsplice CLI entrypoint and command graph.
//
// The Cobra command tree exposes the encode job (resume from surviving parts,
// encode the remainder, merge), keyframe planning without encoding, part and
// attempt inspection, a standalone merge, and configuration scaffolding. It
// resolves configuration and logging once so subcommands only wire flags to
// the internal packages.
//
// Keep this package lean: behaviour belongs in internal/job and friends; the
// commands here translate flags and render results.
package main
