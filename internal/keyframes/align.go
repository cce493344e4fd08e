package keyframes

import (
	"context"
	"fmt"
	"slices"

	"gopsplice/internal/services"
)

// HintStructures lists the hierarchical structures tried for hint windows,
// largest first.
var HintStructures = []int{32, 16, 8, 4, 2}

// FallbackStructures lists the structures tried for motion points when the
// hint source went quiet. Finer structures are left out on purpose.
var FallbackStructures = []int{32, 16, 8}

// Params bounds the scene lengths the aligner may produce.
type Params struct {
	MinSceneLength      int
	MaxSceneLength      int
	MinStillSceneLength int
}

// Validate reports whether the parameters describe a usable window.
func (p Params) Validate() error {
	switch {
	case p.MinSceneLength < 1:
		return services.Wrap(services.ErrValidation, "align", "params", fmt.Sprintf("min scene length must be positive, got %d", p.MinSceneLength), nil)
	case p.MaxSceneLength < p.MinSceneLength:
		return services.Wrap(services.ErrValidation, "align", "params", fmt.Sprintf("max scene length %d below min %d", p.MaxSceneLength, p.MinSceneLength), nil)
	case p.MinStillSceneLength < p.MinSceneLength || p.MinStillSceneLength > p.MaxSceneLength:
		return services.Wrap(services.ErrValidation, "align", "params", fmt.Sprintf("min still scene length %d outside [%d, %d]", p.MinStillSceneLength, p.MinSceneLength, p.MaxSceneLength), nil)
	}
	return nil
}

// Source records why a keyframe was placed.
type Source string

const (
	SourceStart        Source = "start"
	SourceHintAligned  Source = "hint-aligned"
	SourceHintLatest   Source = "hint-latest"
	SourceMotion       Source = "motion-aligned"
	SourceForced       Source = "forced"
	SourceTrailingHint Source = "trailing-hint"
)

// Decision is one keyframe along with the rule that chose it. Structure is
// zero unless an aligned pick was made.
type Decision struct {
	Frame     int    `json:"frame" yaml:"frame"`
	Source    Source `json:"source" yaml:"source"`
	Structure int    `json:"structure,omitempty" yaml:"structure,omitempty"`
}

// LumaProvider produces luma differences for the half-open frame range
// [start, end), one value per frame.
type LumaProvider interface {
	LumaDiff(ctx context.Context, start, end int) ([]float64, error)
}

// LumaFunc adapts a function to LumaProvider.
type LumaFunc func(ctx context.Context, start, end int) ([]float64, error)

// LumaDiff implements LumaProvider.
func (f LumaFunc) LumaDiff(ctx context.Context, start, end int) ([]float64, error) {
	return f(ctx, start, end)
}

// Align returns the keyframe list for a clip of totalFrames frames.
func Align(ctx context.Context, hints []int, totalFrames int, params Params, luma LumaProvider) ([]int, error) {
	decisions, err := AlignDetailed(ctx, hints, totalFrames, params, luma)
	if err != nil {
		return nil, err
	}
	return Frames(decisions), nil
}

// Frames flattens decisions into a keyframe list.
func Frames(decisions []Decision) []int {
	frames := make([]int, len(decisions))
	for i, d := range decisions {
		frames[i] = d.Frame
	}
	return frames
}

// AlignDetailed is Align with the reason for every keyframe attached.
func AlignDetailed(ctx context.Context, hints []int, totalFrames int, params Params, luma LumaProvider) ([]Decision, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if totalFrames < 0 {
		return nil, services.Wrap(services.ErrValidation, "align", "params", fmt.Sprintf("negative frame count %d", totalFrames), nil)
	}

	hints = NormalizeHints(hints, totalFrames)
	decisions := []Decision{{Frame: 0, Source: SourceStart}}
	current := 0
	next := 0

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for next < len(hints) && hints[next] <= current {
			next++
		}
		for next < len(hints)-1 && hints[next]-current < params.MinSceneLength {
			next++
		}
		// Only the last hint can still be too close here. Keep it only when no
		// forced cut can follow, so the short gap stays the final one.
		if next < len(hints) && hints[next]-current < params.MinSceneLength && current+params.MaxSceneLength < totalFrames {
			next++
		}

		var decision Decision
		switch {
		case next < len(hints) && hints[next]-current < params.MinSceneLength:
			decision = Decision{Frame: hints[next], Source: SourceTrailingHint}
		case next < len(hints) && hints[next]-current <= params.MaxSceneLength:
			end := next
			for end < len(hints) && hints[end]-current <= params.MaxSceneLength {
				end++
			}
			decision = pickHint(current, hints[next:end])
		case current+params.MaxSceneLength < totalFrames:
			picked, err := fallback(ctx, current, params, luma)
			if err != nil {
				return nil, err
			}
			decision = picked
		default:
			return decisions, nil
		}

		if decision.Frame <= current {
			return nil, services.Wrap(
				services.ErrAlignmentStall,
				"align",
				"advance",
				fmt.Sprintf("candidate %d does not advance past %d", decision.Frame, current),
				nil,
			)
		}
		decisions = append(decisions, decision)
		current = decision.Frame
	}
}

// pickHint chooses among the hints in one window. candidates must be sorted
// and non-empty.
func pickHint(current int, candidates []int) Decision {
	if frame, structure, ok := alignedCandidate(current, candidates, HintStructures); ok {
		return Decision{Frame: frame, Source: SourceHintAligned, Structure: structure}
	}
	return Decision{Frame: candidates[len(candidates)-1], Source: SourceHintLatest}
}

// alignedCandidate scans candidates latest to earliest for each structure in
// order and returns the first whose distance from current is k*S+1.
func alignedCandidate(current int, candidates []int, structures []int) (int, int, bool) {
	for _, structure := range structures {
		for i := len(candidates) - 1; i >= 0; i-- {
			if (candidates[i]-current)%structure == 1 {
				return candidates[i], structure, true
			}
		}
	}
	return 0, 0, false
}

// NormalizeHints sorts and deduplicates hints and drops positions that cannot
// become keyframes: frame 0 is implicit and the clip end is never emitted.
func NormalizeHints(hints []int, totalFrames int) []int {
	out := make([]int, 0, len(hints))
	for _, h := range hints {
		if h > 0 && h < totalFrames {
			out = append(out, h)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
