// Package keyframes turns noisy scene-cut hints into keyframe positions that
// favour hierarchical GOP structures.
//
// Align walks the hint list from frame 0 and, for every window of hints between
// the minimum and maximum scene length, prefers the candidate whose distance
// from the previous keyframe is k*S+1 for the largest structure S in 32, 16, 8,
// 4, 2. When no hint falls within the maximum scene length, a statistical
// fallback looks for motion peaks in the luma-difference series and otherwise
// forces a cut at the maximum scene length.
//
// The package is pure apart from the LumaProvider port, so every decision can
// be reproduced in tests without probing a clip.
package keyframes
