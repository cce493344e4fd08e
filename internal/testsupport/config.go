package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"gopsplice/internal/config"
)

// ConfigOption tweaks a test config before its directories are created. base
// is the temp root holding work, logs and state.
type ConfigOption func(t testing.TB, base string, cfg *config.Config)

// NewConfig returns a debug-level config rooted in a fresh temp directory.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.WorkDir = filepath.Join(base, "work")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Logging.Level = "debug"
	for _, opt := range opts {
		opt(t, base, &cfg)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// BaseDir returns the temp root behind a config built by NewConfig.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.WorkDir)
}

func WithEncoder(kind string) ConfigOption {
	return func(_ testing.TB, _ string, cfg *config.Config) {
		cfg.Encoder.Kind = kind
	}
}

// WithSceneLengths sets the min, max and still-scene lengths used by the
// aligner.
func WithSceneLengths(minLen, maxLen, minStill int) ConfigOption {
	return func(_ testing.TB, _ string, cfg *config.Config) {
		cfg.Scene.MinSceneLength = minLen
		cfg.Scene.MaxSceneLength = maxLen
		cfg.Scene.MinStillSceneLength = minStill
	}
}

// WithStubbedBinaries puts no-op executables named after each tool first on
// PATH. With no names it stubs ffmpeg, ffprobe, the MKVToolNix pair and x265.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(t testing.TB, base string, _ *config.Config) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe", "mkvmerge", "mkvextract", "x265"}
		}
		bin := filepath.Join(base, "bin")
		if err := os.MkdirAll(bin, 0o755); err != nil {
			t.Fatalf("mkdir bin dir: %v", err)
		}
		for _, name := range names {
			if err := os.WriteFile(filepath.Join(bin, name), []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
				t.Fatalf("write stub %s: %v", name, err)
			}
		}
		t.Setenv("PATH", bin+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}
