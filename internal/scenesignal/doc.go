// Package scenesignal produces the scene-cut hints and luma-difference series
// consumed by the keyframe aligner.
//
// The ffmpeg adapter decodes a frame range once through the scdet and
// signalstats filters and reports both signals relative to the range start.
// Hints are cached per job stem and start frame so that a resumed encode does
// not decode the clip again; the luma series is never cached and is probed
// lazily over the sub-range the aligner's fallback actually needs.
package scenesignal
