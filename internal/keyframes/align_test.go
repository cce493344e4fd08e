package keyframes

import (
	"context"
	"errors"
	"math/rand/v2"
	"slices"
	"testing"

	"gopsplice/internal/services"
)

func constantLuma(value float64) LumaFunc {
	return func(_ context.Context, start, end int) ([]float64, error) {
		out := make([]float64, end-start)
		for i := range out {
			out[i] = value
		}
		return out, nil
	}
}

func TestAlignPrefersLargestStructure(t *testing.T) {
	params := Params{MinSceneLength: 9, MaxSceneLength: 64, MinStillSceneLength: 48}
	got, err := AlignDetailed(context.Background(), []int{17, 33}, 90, params, nil)
	if err != nil {
		t.Fatalf("AlignDetailed returned error: %v", err)
	}
	if frames := Frames(got); !slices.Equal(frames, []int{0, 33}) {
		t.Fatalf("unexpected keyframes: %v", frames)
	}
	if got[1].Source != SourceHintAligned || got[1].Structure != 32 {
		t.Fatalf("expected 32-aligned hint, got %+v", got[1])
	}
}

func TestAlignTakesLatestCandidateWithoutMatch(t *testing.T) {
	params := Params{MinSceneLength: 9, MaxSceneLength: 64, MinStillSceneLength: 48}
	got, err := AlignDetailed(context.Background(), []int{20, 30, 40}, 60, params, nil)
	if err != nil {
		t.Fatalf("AlignDetailed returned error: %v", err)
	}
	if frames := Frames(got); !slices.Equal(frames, []int{0, 40}) {
		t.Fatalf("unexpected keyframes: %v", frames)
	}
	if got[1].Source != SourceHintLatest {
		t.Fatalf("expected latest-hint pick, got %+v", got[1])
	}
}

func TestAlignSkipsCloseHintsUnlessLast(t *testing.T) {
	params := Params{MinSceneLength: 9, MaxSceneLength: 64, MinStillSceneLength: 48}

	got, err := Align(context.Background(), []int{5, 40}, 60, params, nil)
	if err != nil {
		t.Fatalf("Align returned error: %v", err)
	}
	if !slices.Equal(got, []int{0, 40}) {
		t.Fatalf("expected close hint to be merged, got %v", got)
	}

	detailed, err := AlignDetailed(context.Background(), []int{33, 40}, 80, params, nil)
	if err != nil {
		t.Fatalf("AlignDetailed returned error: %v", err)
	}
	if frames := Frames(detailed); !slices.Equal(frames, []int{0, 33, 40}) {
		t.Fatalf("expected trailing hint to be kept, got %v", frames)
	}
	if detailed[2].Source != SourceTrailingHint {
		t.Fatalf("expected trailing-hint source, got %+v", detailed[2])
	}
}

func TestAlignMergesCloseLastHintBeforeForcedCuts(t *testing.T) {
	params := Params{MinSceneLength: 9, MaxSceneLength: 64, MinStillSceneLength: 48}

	got, err := AlignDetailed(context.Background(), []int{33, 40}, 200, params, constantLuma(1.5))
	if err != nil {
		t.Fatalf("AlignDetailed returned error: %v", err)
	}
	if frames := Frames(got); !slices.Equal(frames, []int{0, 33, 97, 161}) {
		t.Fatalf("expected the close hint to be merged, got %v", frames)
	}
	for _, d := range got[2:] {
		if d.Source != SourceForced {
			t.Fatalf("expected forced cuts after the last hint, got %+v", d)
		}
	}
}

func TestAlignDropsHintsOutsideClip(t *testing.T) {
	params := Params{MinSceneLength: 9, MaxSceneLength: 64, MinStillSceneLength: 48}
	got, err := Align(context.Background(), []int{0, 33, 33, 60, 90}, 60, params, nil)
	if err != nil {
		t.Fatalf("Align returned error: %v", err)
	}
	if !slices.Equal(got, []int{0, 33}) {
		t.Fatalf("unexpected keyframes: %v", got)
	}
}

func TestAlignForcesCutAtMaxWithoutMotion(t *testing.T) {
	params := Params{MinSceneLength: 33, MaxSceneLength: 257, MinStillSceneLength: 193}
	var ranges [][2]int
	luma := LumaFunc(func(ctx context.Context, start, end int) ([]float64, error) {
		ranges = append(ranges, [2]int{start, end})
		return constantLuma(1.5)(ctx, start, end)
	})

	got, err := AlignDetailed(context.Background(), nil, 600, params, luma)
	if err != nil {
		t.Fatalf("AlignDetailed returned error: %v", err)
	}
	if frames := Frames(got); !slices.Equal(frames, []int{0, 257, 514}) {
		t.Fatalf("unexpected keyframes: %v", frames)
	}
	for _, d := range got[1:] {
		if d.Source != SourceForced {
			t.Fatalf("expected forced cut, got %+v", d)
		}
	}
	want := [][2]int{{193, 258}, {450, 515}}
	if !slices.Equal(ranges, want) {
		t.Fatalf("luma requested over %v, want %v", ranges, want)
	}
}

func TestAlignUsesAlignedMotionPoint(t *testing.T) {
	params := Params{MinSceneLength: 33, MaxSceneLength: 257, MinStillSceneLength: 193}
	luma := LumaFunc(func(_ context.Context, start, end int) ([]float64, error) {
		out := make([]float64, end-start)
		for i := range out {
			switch start + i {
			case 225, 240:
				out[i] = 40
			}
		}
		return out, nil
	})

	got, err := AlignDetailed(context.Background(), nil, 300, params, luma)
	if err != nil {
		t.Fatalf("AlignDetailed returned error: %v", err)
	}
	if frames := Frames(got); !slices.Equal(frames, []int{0, 225}) {
		t.Fatalf("unexpected keyframes: %v", frames)
	}
	if got[1].Source != SourceMotion || got[1].Structure != 32 {
		t.Fatalf("expected 32-aligned motion point, got %+v", got[1])
	}
}

func TestAlignForcesCutWhenMotionUnaligned(t *testing.T) {
	params := Params{MinSceneLength: 33, MaxSceneLength: 257, MinStillSceneLength: 193}
	luma := LumaFunc(func(_ context.Context, start, end int) ([]float64, error) {
		out := make([]float64, end-start)
		out[240-start] = 40
		return out, nil
	})

	got, err := Align(context.Background(), nil, 300, params, luma)
	if err != nil {
		t.Fatalf("Align returned error: %v", err)
	}
	if !slices.Equal(got, []int{0, 257}) {
		t.Fatalf("unexpected keyframes: %v", got)
	}
}

func TestAlignLumaFailureIsFatal(t *testing.T) {
	params := Params{MinSceneLength: 33, MaxSceneLength: 257, MinStillSceneLength: 193}
	tests := []struct {
		name string
		luma LumaProvider
	}{
		{name: "nil provider", luma: nil},
		{name: "probe error", luma: LumaFunc(func(context.Context, int, int) ([]float64, error) {
			return nil, errors.New("ffmpeg exited 1")
		})},
		{name: "short series", luma: LumaFunc(func(context.Context, int, int) ([]float64, error) {
			return []float64{1, 2, 3}, nil
		})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Align(context.Background(), nil, 600, params, tt.luma)
			if !errors.Is(err, services.ErrProbe) {
				t.Fatalf("expected ErrProbe, got %v", err)
			}
		})
	}
}

func TestAlignRejectsInvalidParams(t *testing.T) {
	tests := []Params{
		{MinSceneLength: 0, MaxSceneLength: 10, MinStillSceneLength: 5},
		{MinSceneLength: 20, MaxSceneLength: 10, MinStillSceneLength: 15},
		{MinSceneLength: 10, MaxSceneLength: 50, MinStillSceneLength: 60},
	}
	for _, params := range tests {
		if _, err := Align(context.Background(), nil, 100, params, nil); !errors.Is(err, services.ErrValidation) {
			t.Fatalf("expected ErrValidation for %+v, got %v", params, err)
		}
	}
}

func TestAlignHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	params := Params{MinSceneLength: 9, MaxSceneLength: 64, MinStillSceneLength: 48}
	if _, err := Align(ctx, []int{33}, 90, params, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func noisyLuma(_ context.Context, start, end int) ([]float64, error) {
	out := make([]float64, end-start)
	for i := range out {
		frame := uint64(start + i)
		out[i] = float64((frame*2654435761)%97) / 10
	}
	return out, nil
}

func randomHints(rng *rand.Rand, total int) []int {
	count := rng.IntN(total/20 + 1)
	hints := make([]int, count)
	for i := range hints {
		hints[i] = rng.IntN(total + 10)
	}
	return hints
}

func TestAlignKeyframeInvariants(t *testing.T) {
	params := Params{MinSceneLength: 33, MaxSceneLength: 257, MinStillSceneLength: 193}
	rng := rand.New(rand.NewPCG(7, 11))

	for iter := 0; iter < 300; iter++ {
		total := rng.IntN(4000)
		hints := randomHints(rng, total)

		got, err := AlignDetailed(context.Background(), hints, total, params, LumaFunc(noisyLuma))
		if err != nil {
			t.Fatalf("iteration %d: AlignDetailed returned error: %v", iter, err)
		}
		if got[0].Frame != 0 {
			t.Fatalf("iteration %d: first keyframe %d, want 0", iter, got[0].Frame)
		}
		for i := 1; i < len(got); i++ {
			gap := got[i].Frame - got[i-1].Frame
			if gap <= 0 {
				t.Fatalf("iteration %d: keyframes not strictly increasing: %v", iter, Frames(got))
			}
			if gap > params.MaxSceneLength {
				t.Fatalf("iteration %d: gap %d exceeds max at %d", iter, gap, got[i].Frame)
			}
			if gap < params.MinSceneLength && (i != len(got)-1 || got[i].Source != SourceTrailingHint) {
				t.Fatalf("iteration %d: gap %d below min at %+v", iter, gap, got[i])
			}
		}
		last := got[len(got)-1].Frame
		if total > 0 && last >= total {
			t.Fatalf("iteration %d: clip end %d emitted as keyframe", iter, total)
		}
		if total-last > params.MaxSceneLength {
			t.Fatalf("iteration %d: final gap %d exceeds max", iter, total-last)
		}
	}
}

func TestAlignIsIdempotent(t *testing.T) {
	params := Params{MinSceneLength: 33, MaxSceneLength: 257, MinStillSceneLength: 193}
	rng := rand.New(rand.NewPCG(3, 5))
	hints := randomHints(rng, 5000)

	first, err := Align(context.Background(), hints, 5000, params, LumaFunc(noisyLuma))
	if err != nil {
		t.Fatalf("Align returned error: %v", err)
	}
	second, err := Align(context.Background(), slices.Clone(hints), 5000, params, LumaFunc(noisyLuma))
	if err != nil {
		t.Fatalf("Align returned error: %v", err)
	}
	if !slices.Equal(first, second) {
		t.Fatalf("keyframes differ between runs:\n%v\n%v", first, second)
	}
}

func TestNormalizeHints(t *testing.T) {
	got := NormalizeHints([]int{50, -3, 0, 12, 12, 99, 100, 7}, 100)
	if !slices.Equal(got, []int{7, 12, 50, 99}) {
		t.Fatalf("unexpected hints: %v", got)
	}
}
