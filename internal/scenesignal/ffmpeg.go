package scenesignal

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"gopsplice/internal/services"
)

var commandContext = exec.CommandContext

// DefaultThreshold is ffmpeg's scdet default on its 0-100 scale.
const DefaultThreshold = 10.0

// FFmpeg probes a media file with ffmpeg's scdet and signalstats filters.
type FFmpeg struct {
	Binary    string
	Input     string
	Threshold float64
}

// Signal decodes [start, end) once and returns hints and luma differences.
func (f FFmpeg) Signal(ctx context.Context, start, end int) (Signal, error) {
	threshold := f.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	filter := fmt.Sprintf("%s,scdet=threshold=%s,signalstats,metadata=mode=print:file=-", trimFilter(start, end), strconv.FormatFloat(threshold, 'f', -1, 64))
	frames, err := f.run(ctx, filter)
	if err != nil {
		return Signal{}, services.Wrap(services.ErrProbe, "scene signal", "ffmpeg scdet", fmt.Sprintf("frames %d-%d", start, end), err)
	}
	signal := Signal{Luma: make([]float64, len(frames))}
	for i, fr := range frames {
		signal.Luma[i] = fr.ydif
		if fr.cut && i > 0 {
			signal.Hints = append(signal.Hints, i)
		}
	}
	return signal, nil
}

// LumaDiff decodes [start, end) and returns one luma difference per frame.
// The frame before start is decoded as well so the first value is measured
// against its real predecessor.
func (f FFmpeg) LumaDiff(ctx context.Context, start, end int) ([]float64, error) {
	from := start
	if from > 0 {
		from--
	}
	filter := fmt.Sprintf("%s,signalstats,metadata=mode=print:file=-", trimFilter(from, end))
	frames, err := f.run(ctx, filter)
	if err != nil {
		return nil, services.Wrap(services.ErrProbe, "scene signal", "ffmpeg signalstats", fmt.Sprintf("frames %d-%d", start, end), err)
	}
	frames = frames[min(start-from, len(frames)):]
	if len(frames) != end-start {
		return nil, services.Wrap(
			services.ErrProbe,
			"scene signal",
			"ffmpeg signalstats",
			fmt.Sprintf("frames %d-%d: decoded %d of %d frames", start, end, len(frames), end-start),
			nil,
		)
	}
	out := make([]float64, len(frames))
	for i, fr := range frames {
		out[i] = fr.ydif
	}
	return out, nil
}

func trimFilter(start, end int) string {
	return fmt.Sprintf("trim=start_frame=%d:end_frame=%d,setpts=PTS-STARTPTS", start, end)
}

func (f FFmpeg) run(ctx context.Context, filter string) ([]frameStats, error) {
	binary := strings.TrimSpace(f.Binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	if strings.TrimSpace(f.Input) == "" {
		return nil, fmt.Errorf("empty input path")
	}
	cmd := commandContext(ctx, binary,
		"-hide_banner",
		"-nostats",
		"-v", "error",
		"-i", f.Input,
		"-vf", filter,
		"-an",
		"-f", "null",
		"-",
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	frames, parseErr := parseMetadata(stdout)
	if parseErr != nil {
		_, _ = io.Copy(io.Discard, stdout)
	}
	if err := cmd.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}
	if parseErr != nil {
		return nil, parseErr
	}
	return frames, nil
}

type frameStats struct {
	ydif float64
	cut  bool
}

// parseMetadata reads the metadata filter's print output:
//
//	frame:12   pts:12   pts_time:0.5005
//	lavfi.scd.score=14.2
//	lavfi.scd.time=0.5005
//	lavfi.signalstats.YDIF=3.91
func parseMetadata(r io.Reader) ([]frameStats, error) {
	var frames []frameStats
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if rest, ok := strings.CutPrefix(line, "frame:"); ok {
			fields := strings.Fields(rest)
			if len(fields) == 0 {
				return nil, fmt.Errorf("malformed frame line %q", line)
			}
			n, err := strconv.Atoi(fields[0])
			if err != nil {
				return nil, fmt.Errorf("malformed frame line %q: %w", line, err)
			}
			if n != len(frames) {
				return nil, fmt.Errorf("frame %d out of sequence, expected %d", n, len(frames))
			}
			frames = append(frames, frameStats{})
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok || len(frames) == 0 {
			continue
		}
		current := &frames[len(frames)-1]
		switch key {
		case "lavfi.scd.time":
			current.cut = true
		case "lavfi.signalstats.YDIF":
			v, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return nil, fmt.Errorf("malformed YDIF %q: %w", value, err)
			}
			current.ydif = v
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return frames, nil
}
