package keyframes

import (
	"slices"
	"testing"
)

func TestThresholdsReplicateEdges(t *testing.T) {
	diffs := make([]float64, 40)
	for i := range diffs {
		diffs[i] = float64(i)
	}
	got := Thresholds(diffs)
	half := MotionWindow / 2
	for i := 0; i < half; i++ {
		if got[i] != got[half] {
			t.Fatalf("threshold[%d]=%v, want replicated %v", i, got[i], got[half])
		}
		if got[len(got)-1-i] != got[len(got)-1-half] {
			t.Fatalf("threshold[%d]=%v, want replicated %v", len(got)-1-i, got[len(got)-1-i], got[len(got)-1-half])
		}
	}
	// Window 0..24 has median 12 and MAD 6.
	if got[half] != 12+MotionSigma*6 {
		t.Fatalf("unexpected threshold %v", got[half])
	}
}

func TestThresholdsShortSeries(t *testing.T) {
	got := Thresholds([]float64{1, 1, 1, 9})
	for _, v := range got {
		if v != 1 {
			t.Fatalf("expected shared threshold 1, got %v", got)
		}
	}
}

func TestMotionPoints(t *testing.T) {
	diffs := make([]float64, 30)
	for i := range diffs {
		diffs[i] = 2
	}
	diffs[4] = 20
	diffs[27] = 18
	if got := MotionPoints(diffs); !slices.Equal(got, []int{4, 27}) {
		t.Fatalf("unexpected motion points: %v", got)
	}
	if got := MotionPoints(make([]float64, 30)); len(got) != 0 {
		t.Fatalf("expected no motion in flat series, got %v", got)
	}
}

func TestMedian(t *testing.T) {
	if got := median([]float64{5, 1, 3}); got != 3 {
		t.Fatalf("odd median = %v", got)
	}
	if got := median([]float64{4, 1, 3, 2}); got != 2.5 {
		t.Fatalf("even median = %v", got)
	}
	if got := median(nil); got != 0 {
		t.Fatalf("empty median = %v", got)
	}
}
