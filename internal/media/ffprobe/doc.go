// Package ffprobe runs ffprobe for the two questions gopsplice asks of a
// video: how many frames it has, and which of those frames are keyframes.
//
// FrameCount sizes a source before planning. Keyframes lists I-picture
// indices for part validation when the container is not raw Annex-B. Inspect
// returns the stream and format report used by the encode summary.
package ffprobe
