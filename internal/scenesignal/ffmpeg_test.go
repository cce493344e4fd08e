package scenesignal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"slices"
	"strings"
	"testing"

	"gopsplice/internal/services"
)

func setHelperCommand(t *testing.T, mode string, captured *[]string) {
	t.Helper()
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		if captured != nil {
			*captured = append([]string{name}, args...)
		}
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", fmt.Sprintf("FFMPEG_HELPER_MODE=%s", mode))
		return cmd
	}
	t.Cleanup(func() {
		commandContext = original
	})
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	switch os.Getenv("FFMPEG_HELPER_MODE") {
	case "scdet":
		for i := 0; i < 6; i++ {
			fmt.Printf("frame:%-4d pts:%-7d pts_time:%.4f\n", i, i*1001, float64(i)*0.0417)
			fmt.Printf("lavfi.scd.mafd=%.3f\n", float64(i))
			if i == 0 || i == 3 {
				fmt.Printf("lavfi.scd.time=%.4f\n", float64(i)*0.0417)
			}
			fmt.Printf("lavfi.signalstats.YDIF=%d.5\n", i)
		}
		os.Exit(0)
	case "short":
		for i := 0; i < 2; i++ {
			fmt.Printf("frame:%d pts:%d pts_time:0\n", i, i)
			fmt.Println("lavfi.signalstats.YDIF=1.0")
		}
		os.Exit(0)
	case "failure":
		fmt.Fprintln(os.Stderr, "Invalid data found when processing input")
		os.Exit(1)
	default:
		os.Exit(0)
	}
}

func TestFFmpegSignal(t *testing.T) {
	var captured []string
	setHelperCommand(t, "scdet", &captured)

	src := FFmpeg{Binary: "ffmpeg", Input: "/media/ep01.mkv", Threshold: 12}
	got, err := src.Signal(context.Background(), 216, 222)
	if err != nil {
		t.Fatalf("Signal returned error: %v", err)
	}
	if !slices.Equal(got.Hints, []int{3}) {
		t.Fatalf("Hints = %v, want [3]", got.Hints)
	}
	if !slices.Equal(got.Luma, []float64{0.5, 1.5, 2.5, 3.5, 4.5, 5.5}) {
		t.Fatalf("Luma = %v", got.Luma)
	}
	joined := strings.Join(captured, " ")
	if !strings.Contains(joined, "trim=start_frame=216:end_frame=222,setpts=PTS-STARTPTS,scdet=threshold=12,signalstats") {
		t.Fatalf("unexpected filter in %q", joined)
	}
}

func TestFFmpegLumaDiffSkipsLeadingFrame(t *testing.T) {
	var captured []string
	setHelperCommand(t, "scdet", &captured)

	got, err := FFmpeg{Input: "/media/ep01.mkv"}.LumaDiff(context.Background(), 101, 106)
	if err != nil {
		t.Fatalf("LumaDiff returned error: %v", err)
	}
	if !slices.Equal(got, []float64{1.5, 2.5, 3.5, 4.5, 5.5}) {
		t.Fatalf("LumaDiff = %v", got)
	}
	if captured[0] != "ffmpeg" {
		t.Fatalf("expected default ffmpeg binary, got %q", captured[0])
	}
	if !strings.Contains(strings.Join(captured, " "), "trim=start_frame=100:end_frame=106") {
		t.Fatalf("expected preceding frame in trim, got %v", captured)
	}
}

func TestFFmpegLumaDiffRejectsShortOutput(t *testing.T) {
	setHelperCommand(t, "short", nil)

	_, err := FFmpeg{Input: "/media/ep01.mkv"}.LumaDiff(context.Background(), 0, 10)
	if !errors.Is(err, services.ErrProbe) {
		t.Fatalf("expected ErrProbe, got %v", err)
	}
}

func TestFFmpegSignalFailure(t *testing.T) {
	setHelperCommand(t, "failure", nil)

	_, err := FFmpeg{Input: "/media/ep01.mkv"}.Signal(context.Background(), 0, 10)
	if !errors.Is(err, services.ErrProbe) {
		t.Fatalf("expected ErrProbe, got %v", err)
	}
	if !strings.Contains(err.Error(), "Invalid data") {
		t.Fatalf("expected stderr in error, got %v", err)
	}
}

func TestParseMetadataRejectsGaps(t *testing.T) {
	input := "frame:0 pts:0 pts_time:0\nframe:2 pts:2 pts_time:0\n"
	if _, err := parseMetadata(strings.NewReader(input)); err == nil {
		t.Fatal("expected out-of-sequence frame to fail")
	}
}
