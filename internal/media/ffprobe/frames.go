package ffprobe

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// FrameTypes is the decoded picture-type sequence of a video stream.
type FrameTypes struct {
	Frames    int
	Keyframes []int
}

// LastKeyframe returns the index of the final I picture, or -1 when none was decoded.
func (f FrameTypes) LastKeyframe() int {
	if len(f.Keyframes) == 0 {
		return -1
	}
	return f.Keyframes[len(f.Keyframes)-1]
}

// Keyframes decodes every frame of the first video stream and records the
// indices of I pictures. Streams cut short by a killed encoder still decode
// up to the damage, so a non-zero exit only fails the probe when no frame was
// read at all.
func Keyframes(ctx context.Context, binary, path string) (FrameTypes, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return FrameTypes{}, errors.New("ffprobe keyframes: empty path")
	}
	cmd := commandContext(ctx, resolveBinary(binary),
		"-v", "error",
		"-select_streams", "v:0",
		"-show_frames",
		"-show_entries", "frame=pict_type",
		"-of", "default=noprint_wrappers=1",
		"--", path,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	output, runErr := cmd.Output()
	if ctx.Err() != nil {
		return FrameTypes{}, ctx.Err()
	}

	result := parsePictTypes(output)
	if runErr != nil && result.Frames == 0 {
		return FrameTypes{}, fmt.Errorf("ffprobe keyframes: %w: %s", runErr, strings.TrimSpace(stderr.String()))
	}
	return result, nil
}

func parsePictTypes(output []byte) FrameTypes {
	var result FrameTypes
	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		value, ok := strings.CutPrefix(line, "pict_type=")
		if !ok {
			continue
		}
		if value == "I" {
			result.Keyframes = append(result.Keyframes, result.Frames)
		}
		result.Frames++
	}
	return result
}

// FrameCount returns the number of video frames in path. The container's
// frame count is trusted when present; otherwise packets are counted.
func FrameCount(ctx context.Context, binary, path string) (int, error) {
	result, err := Inspect(ctx, binary, path)
	if err != nil {
		return 0, err
	}
	stream, ok := result.VideoStream()
	if !ok {
		return 0, fmt.Errorf("ffprobe frame count: %s has no video stream", path)
	}
	if n, err := strconv.Atoi(strings.TrimSpace(stream.NBFrames)); err == nil && n > 0 {
		return n, nil
	}

	cmd := commandContext(ctx, resolveBinary(binary),
		"-v", "error",
		"-select_streams", "v:0",
		"-count_packets",
		"-show_entries", "stream=nb_read_packets",
		"-of", "csv=p=0",
		"--", path,
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe frame count: %w: %s", err, strings.TrimSpace(string(output)))
	}
	n, err := strconv.Atoi(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(string(output)), ",")))
	if err != nil {
		return 0, fmt.Errorf("ffprobe frame count: parse %q: %w", strings.TrimSpace(string(output)), err)
	}
	return n, nil
}
