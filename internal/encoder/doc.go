// Package encoder drives an external video encoder (x264, x265 or
// SvtAv1EncApp) that reads Y4M frames on stdin and writes one encode part.
//
// Args builds the command line for a part, including the keyframe config and
// zone overrides. Start launches the process and returns a Session that
// accepts frames. Pump moves frames from a producer into a Session on two
// goroutines so decoding and encoding overlap.
package encoder
