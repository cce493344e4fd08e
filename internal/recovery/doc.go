// Package recovery decides where an interrupted encode resumes.
//
// Every encoder invocation writes one part named {stem}_part_{NNN}.{ext}. On
// startup Scan probes each existing part for its last keyframe: that frame
// is where the next part must begin, because everything after it belongs to
// an unfinished GOP. Parts without a keyframe beyond frame 0 carry no usable
// progress and are deleted. The resume offset is the sum of the surviving
// parts' last keyframes and is never persisted; it is derived again on every
// run from the files themselves.
//
// Deletion is limited to names that match the exact stem and part pattern so
// that concurrent jobs sharing a work directory are never touched.
package recovery
