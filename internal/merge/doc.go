// Package merge splices recovered encode parts into one elementary stream.
//
// Each earlier part is cut right before its last keyframe, because the part
// that follows it re-encoded that GOP from the same global frame. The cut is
// done by remuxing through Matroska: mkvmerge splits and appends on block
// boundaries, then mkvextract writes the joined track back out as a raw
// stream. A merge either completes, leaving only the output, or fails with
// every input part untouched and nothing at the output path.
package merge
