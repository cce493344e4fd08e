package main

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"gopsplice/internal/deps"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("Encoder", statusError, "missing", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "Encoder:", "[ERROR] missing")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("Encoder", statusOK, "", true)
	if !strings.HasPrefix(got, ansiGreen) || !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("unexpected colored line %q", got)
	}
}

func TestDependencyLines(t *testing.T) {
	lines := dependencyLines([]deps.Status{
		{Name: "Encoder", Command: "x265", Available: true, Resolved: "/usr/bin/x265"},
		{Name: "MKVToolNix mkvmerge", Command: "mkvmerge"},
		{Name: "FFprobe", Command: "ffprobe", Optional: true, Detail: `binary "ffprobe" not found`},
	}, false)
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d: %q", len(lines), lines)
	}
	if !strings.Contains(lines[0], "[OK] /usr/bin/x265") {
		t.Fatalf("unexpected ready line %q", lines[0])
	}
	if !strings.Contains(lines[1], "[ERROR] not available") {
		t.Fatalf("unexpected missing line %q", lines[1])
	}
	if !strings.Contains(lines[2], "[WARN]") {
		t.Fatalf("optional tools should warn, got %q", lines[2])
	}
	if !strings.Contains(lines[3], "MKVToolNix mkvmerge") || strings.Contains(lines[3], "FFprobe") {
		t.Fatalf("summary should list only required tools, got %q", lines[3])
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatalf("expected non-file writer to disable color")
	}
}

func TestFramesGroupsDigits(t *testing.T) {
	if got := frames(1234567); got != "1,234,567" {
		t.Fatalf("frames = %q", got)
	}
	if got := truncate("abcdef", 4); got != "abc…" {
		t.Fatalf("truncate = %q", got)
	}
}
