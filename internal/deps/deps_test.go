package deps

import (
	"os"
	"path/filepath"
	"testing"

	"gopsplice/internal/config"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Unset", Command: "  ", Optional: true},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Resolved != present {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[0].Detail != "" {
		t.Fatalf("unexpected detail for available dependency: %s", results[0].Detail)
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary to be unavailable with detail, got %#v", results[1])
	}
	if results[2].Detail != "command not configured" {
		t.Fatalf("unexpected detail for unset command: %q", results[2].Detail)
	}

	missing := Missing(results)
	if len(missing) != 1 || missing[0].Name != "Missing" {
		t.Fatalf("Missing = %#v", missing)
	}
}

func TestRequirementsFollowConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Encoder.Kind = config.EncoderSvtAv1
	cfg.Source.Kind = config.SourceVSPipe
	cfg.Probe.Method = config.ProbeAnnexB

	reqs := Requirements(&cfg)
	byName := map[string]Requirement{}
	for _, r := range reqs {
		byName[r.Name] = r
	}
	if byName["Encoder"].Command != "SvtAv1EncApp" {
		t.Fatalf("encoder command = %q", byName["Encoder"].Command)
	}
	if !byName["FFprobe"].Optional {
		t.Fatal("ffprobe should be optional with the annexb probe")
	}
	if byName["VapourSynth vspipe"].Command != "vspipe" {
		t.Fatalf("missing vspipe requirement: %#v", reqs)
	}
	if byName["MKVToolNix mkvmerge"].Command != "mkvmerge" {
		t.Fatalf("missing mkvmerge requirement: %#v", reqs)
	}
}

func TestRequirementsCustomEncoderBinary(t *testing.T) {
	cfg := config.Default()
	cfg.Encoder.Binary = "/opt/x265/x265-10bit"
	for _, r := range Requirements(&cfg) {
		if r.Name == "Encoder" && r.Command != "/opt/x265/x265-10bit" {
			t.Fatalf("encoder command = %q", r.Command)
		}
		if r.Name == "VapourSynth vspipe" {
			t.Fatal("ffmpeg source should not require vspipe")
		}
	}
}
