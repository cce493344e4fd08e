package framesource

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"gopsplice/internal/config"
	"gopsplice/internal/services"
)

var commandContext = exec.CommandContext

// Spec describes how to start a producer.
type Spec struct {
	Kind   string
	Binary string
	Args   []string
	Input  string
}

// FromConfig builds a producer Spec for input.
func FromConfig(cfg *config.Config, input string) Spec {
	binary := cfg.Source.Binary
	if binary == "" && cfg.Source.Kind != config.SourceVSPipe {
		binary = cfg.Tools.FFmpeg
	}
	return Spec{Kind: cfg.Source.Kind, Binary: binary, Args: cfg.Source.Args, Input: input}
}

// Command returns the producer binary and arguments for frames from start on.
func (s Spec) Command(start int) (string, []string) {
	switch s.Kind {
	case config.SourceVSPipe:
		args := []string{"-c", "y4m", "--start", strconv.Itoa(start)}
		args = append(args, s.Args...)
		args = append(args, s.Input, "-")
		return binaryOr(s.Binary, "vspipe"), args
	default:
		args := []string{"-hide_banner", "-nostats", "-v", "error", "-i", s.Input}
		filter := fmt.Sprintf("trim=start_frame=%d,setpts=PTS-STARTPTS", start)
		args = append(args, "-vf", filter, "-an", "-sn")
		args = append(args, s.Args...)
		args = append(args, "-f", "yuv4mpegpipe", "-strict", "-1", "-")
		return binaryOr(s.Binary, "ffmpeg"), args
	}
}

// Stream is a running producer.
type Stream struct {
	*Reader
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr *bytes.Buffer
	eof    bool
}

// Open starts the producer and parses its stream header.
func Open(ctx context.Context, spec Spec, start int) (*Stream, error) {
	if strings.TrimSpace(spec.Input) == "" {
		return nil, services.Wrap(services.ErrValidation, "frame source", "open", "empty input path", nil)
	}
	binary, args := spec.Command(start)
	cmd := commandContext(ctx, binary, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "frame source", "pipe", binary, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "frame source", "start", binary, err)
	}
	s := &Stream{cmd: cmd, stdout: stdout, stderr: &stderr}
	reader, err := NewReader(stdout)
	if err != nil {
		waitErr := s.Close()
		if waitErr != nil {
			err = fmt.Errorf("%w (%v)", err, waitErr)
		}
		return nil, services.Wrap(services.ErrExternalTool, "frame source", "read header", binary, err)
	}
	s.Reader = reader
	return s, nil
}

// Next returns the next frame and remembers whether the producer reached the
// end of its output.
func (s *Stream) Next() ([]byte, error) {
	frame, err := s.Reader.Next()
	if errors.Is(err, io.EOF) {
		s.eof = true
	}
	return frame, err
}

// Close stops reading and waits for the producer. A producer that fails
// because its output was closed before the end of the stream is not an error.
func (s *Stream) Close() error {
	_ = s.stdout.Close()
	err := s.cmd.Wait()
	if err == nil || (s.Reader != nil && !s.eof) {
		return nil
	}
	return fmt.Errorf("%s: %w: %s", s.cmd.Path, err, strings.TrimSpace(s.stderr.String()))
}

func binaryOr(binary, fallback string) string {
	if strings.TrimSpace(binary) == "" {
		return fallback
	}
	return binary
}
