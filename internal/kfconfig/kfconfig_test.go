package kfconfig

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		frames []int
		want   string
		ok     bool
	}{
		{name: "svt", format: FormatSvt, frames: []int{0, 33, 97}, want: "ForceKeyFrames : 0f,33f,97f", ok: true},
		{name: "qpfile", format: FormatQPFile, frames: []int{0, 33}, want: "0 I -1\n33 I -1\n", ok: true},
		{name: "empty", format: FormatSvt, frames: nil, want: "", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Render(tt.format, tt.frames)
			if got != tt.want || ok != tt.ok {
				t.Fatalf("Render() = %q, %v; want %q, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestEmitterEnsureWritesOnce(t *testing.T) {
	dir := t.TempDir()
	emitter := Emitter{Dir: dir, Stem: "ep01", Format: FormatQPFile}

	path, written, err := emitter.Ensure(context.Background(), 216, []int{0, 33})
	if err != nil {
		t.Fatalf("Ensure returned error: %v", err)
	}
	if !written {
		t.Fatal("expected first call to write the config")
	}
	if want := filepath.Join(dir, "ep01_keyframes_216.txt"); path != want {
		t.Fatalf("path = %q, want %q", path, want)
	}

	again, written, err := emitter.Ensure(context.Background(), 216, []int{0, 65})
	if err != nil {
		t.Fatalf("Ensure returned error: %v", err)
	}
	if written || again != path {
		t.Fatalf("expected cache hit, got path=%q written=%v", again, written)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "0 I -1\n33 I -1\n" {
		t.Fatalf("cached config was rewritten: %q", data)
	}
}

func TestEmitterEnsureSkipsEmptyList(t *testing.T) {
	dir := t.TempDir()
	emitter := Emitter{Dir: dir, Stem: "ep01", Format: FormatSvt}

	path, written, err := emitter.Ensure(context.Background(), 0, nil)
	if err != nil {
		t.Fatalf("Ensure returned error: %v", err)
	}
	if path != "" || written {
		t.Fatalf("expected no config, got %q %v", path, written)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty work dir, found %d entries", len(entries))
	}
}

func TestEmitterPathUsesFormatExtension(t *testing.T) {
	emitter := Emitter{Dir: "/work", Stem: "movie", Format: FormatSvt}
	if got := emitter.Path(0); got != filepath.Join("/work", "movie_keyframes_0.cfg") {
		t.Fatalf("unexpected path %q", got)
	}
}
