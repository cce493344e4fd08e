package scenesignal

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"gopsplice/internal/services"
)

type fakeSource struct {
	signal Signal
	err    error
	calls  [][2]int
}

func (f *fakeSource) Signal(_ context.Context, start, end int) (Signal, error) {
	f.calls = append(f.calls, [2]int{start, end})
	return f.signal, f.err
}

func (f *fakeSource) LumaDiff(_ context.Context, start, end int) ([]float64, error) {
	f.calls = append(f.calls, [2]int{start, end})
	out := make([]float64, end-start)
	for i := range out {
		out[i] = float64(start + i)
	}
	return out, f.err
}

func TestCacheLoadProbesOnceThenHits(t *testing.T) {
	dir := t.TempDir()
	cache := Cache{Dir: dir, Stem: "ep01"}
	src := &fakeSource{signal: Signal{Hints: []int{40, 97}, Luma: []float64{0, 1, 2}}}

	first, err := cache.Load(context.Background(), src, 216, 1000)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if first.Hit || !slices.Equal(first.Hints, []int{40, 97}) || len(first.Luma) != 3 {
		t.Fatalf("unexpected first probe %+v", first)
	}
	data, err := os.ReadFile(filepath.Join(dir, "ep01_scenes_216.txt"))
	if err != nil {
		t.Fatalf("expected cache file: %v", err)
	}
	if string(data) != "40\n97\n" {
		t.Fatalf("unexpected cache content %q", data)
	}

	second, err := cache.Load(context.Background(), src, 216, 1000)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !second.Hit || !slices.Equal(second.Hints, first.Hints) || second.Luma != nil {
		t.Fatalf("unexpected cached probe %+v", second)
	}
	if len(src.calls) != 1 {
		t.Fatalf("expected one probe, got %d", len(src.calls))
	}
}

func TestCacheLoadCachesEmptyHintSet(t *testing.T) {
	cache := Cache{Dir: t.TempDir(), Stem: "ep01"}
	src := &fakeSource{}

	if _, err := cache.Load(context.Background(), src, 0, 100); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	probe, err := cache.Load(context.Background(), src, 0, 100)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !probe.Hit || len(probe.Hints) != 0 {
		t.Fatalf("expected cached empty hint set, got %+v", probe)
	}
}

func TestCacheLoadPropagatesProbeFailure(t *testing.T) {
	dir := t.TempDir()
	cache := Cache{Dir: dir, Stem: "ep01"}
	src := &fakeSource{err: services.Wrap(services.ErrProbe, "scene signal", "ffmpeg scdet", "", errors.New("exit 1"))}

	if _, err := cache.Load(context.Background(), src, 0, 100); !errors.Is(err, services.ErrProbe) {
		t.Fatalf("expected ErrProbe, got %v", err)
	}
	if _, err := os.Stat(cache.Path(0)); !os.IsNotExist(err) {
		t.Fatalf("expected no cache file after failure, got %v", err)
	}
}

func TestCacheLoadRejectsCorruptFile(t *testing.T) {
	cache := Cache{Dir: t.TempDir(), Stem: "ep01"}
	if err := os.WriteFile(cache.Path(0), []byte("12\nabc\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := cache.Load(context.Background(), &fakeSource{}, 0, 100); !errors.Is(err, services.ErrProbe) {
		t.Fatalf("expected ErrProbe, got %v", err)
	}
}

func TestWindowServesKnownValuesThenProbes(t *testing.T) {
	src := &fakeSource{}
	window := Window{Source: src, Offset: 216, Known: []float64{9, 8, 7, 6}}

	got, err := window.LumaDiff(context.Background(), 1, 3)
	if err != nil {
		t.Fatalf("LumaDiff returned error: %v", err)
	}
	if !slices.Equal(got, []float64{8, 7}) || len(src.calls) != 0 {
		t.Fatalf("expected in-memory values, got %v with %d probes", got, len(src.calls))
	}

	got, err = window.LumaDiff(context.Background(), 193, 196)
	if err != nil {
		t.Fatalf("LumaDiff returned error: %v", err)
	}
	if !slices.Equal(got, []float64{409, 410, 411}) {
		t.Fatalf("expected offset probe, got %v", got)
	}
	if !slices.Equal(src.calls, [][2]int{{409, 412}}) {
		t.Fatalf("unexpected probe ranges %v", src.calls)
	}
}
