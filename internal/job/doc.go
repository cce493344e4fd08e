// Package job runs one crash-tolerant encode attempt for a stem.
//
// An attempt takes the per-stem lock, scans existing parts to decide where
// to start, plans keyframes for the remaining frames, encodes a new part and
// finally merges all parts into the output. Killing an attempt at any point
// leaves the work directory in a state the next attempt can resume from.
//
// Planner holds the keyframe half on its own so "gopsplice plan" can run it
// without touching parts.
package job
