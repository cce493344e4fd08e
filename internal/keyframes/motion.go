package keyframes

import (
	"context"
	"fmt"
	"math"
	"slices"

	"gopsplice/internal/services"
)

const (
	// MotionWindow is the sliding window used for median and MAD thresholds.
	MotionWindow = 25
	// MotionSigma scales the MAD above the median that counts as motion.
	MotionSigma = 3.0
)

// fallback places a keyframe inside [current+MinStill, current+Max] when no
// hint is available. Motion points aligned to a fallback structure win,
// otherwise the cut is forced at current+Max.
func fallback(ctx context.Context, current int, params Params, luma LumaProvider) (Decision, error) {
	low := current + params.MinStillSceneLength
	high := current + params.MaxSceneLength
	forced := Decision{Frame: high, Source: SourceForced}

	if luma == nil {
		return Decision{}, services.Wrap(services.ErrProbe, "align", "luma diff", "no luma provider configured", nil)
	}
	diffs, err := luma.LumaDiff(ctx, low, high+1)
	if err != nil {
		return Decision{}, services.Wrap(services.ErrProbe, "align", "luma diff", fmt.Sprintf("frames %d-%d", low, high), err)
	}
	if want := high - low + 1; len(diffs) != want {
		return Decision{}, services.Wrap(
			services.ErrProbe,
			"align",
			"luma diff",
			fmt.Sprintf("frames %d-%d: expected %d samples, got %d", low, high, want, len(diffs)),
			nil,
		)
	}

	points := MotionPoints(diffs)
	if len(points) == 0 {
		return forced, nil
	}
	candidates := make([]int, len(points))
	for i, p := range points {
		candidates[i] = low + p
	}
	if frame, structure, ok := alignedCandidate(current, candidates, FallbackStructures); ok {
		return Decision{Frame: frame, Source: SourceMotion, Structure: structure}, nil
	}
	return forced, nil
}

// MotionPoints returns the indices whose value exceeds the local threshold
// median + MotionSigma*MAD.
func MotionPoints(diffs []float64) []int {
	thresholds := Thresholds(diffs)
	var points []int
	for i, v := range diffs {
		if math.IsNaN(v) {
			continue
		}
		if v > thresholds[i] {
			points = append(points, i)
		}
	}
	return points
}

// Thresholds computes a motion threshold per sample from a centred sliding
// window. The first and last half-window samples reuse the nearest computed
// threshold. Series shorter than the window share one threshold.
func Thresholds(diffs []float64) []float64 {
	n := len(diffs)
	out := make([]float64, n)
	if n == 0 {
		return out
	}
	half := MotionWindow / 2
	if n < MotionWindow {
		t := threshold(diffs)
		for i := range out {
			out[i] = t
		}
		return out
	}
	for i := half; i < n-half; i++ {
		out[i] = threshold(diffs[i-half : i+half+1])
	}
	for i := 0; i < half; i++ {
		out[i] = out[half]
		out[n-1-i] = out[n-1-half]
	}
	return out
}

func threshold(window []float64) float64 {
	med := median(window)
	deviations := make([]float64, 0, len(window))
	for _, v := range window {
		if math.IsNaN(v) {
			continue
		}
		deviations = append(deviations, math.Abs(v-med))
	}
	return med + MotionSigma*median(deviations)
}

func median(values []float64) float64 {
	sorted := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			sorted = append(sorted, v)
		}
	}
	if len(sorted) == 0 {
		return 0
	}
	slices.Sort(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
