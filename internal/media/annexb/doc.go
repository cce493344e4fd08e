// Package annexb scans raw H.264 and H.265 elementary streams for picture
// boundaries and random-access keyframes without spawning ffprobe.
//
// Only NAL unit headers and the first slice byte are inspected, so scanning a
// multi-gigabyte part reads the file once with constant memory. A truncated
// trailing NAL unit, as left behind by a killed encoder, is tolerated.
package annexb
