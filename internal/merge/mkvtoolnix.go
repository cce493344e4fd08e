package merge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"

	"gopsplice/internal/logging"
)

var commandContext = exec.CommandContext

// Remuxer performs the container operations a merge needs.
type Remuxer interface {
	// Split cuts input after frames frames and returns both resulting files.
	Split(ctx context.Context, input, output string, frames int) (kept string, rest string, err error)
	Remux(ctx context.Context, input, output string) error
	Concat(ctx context.Context, inputs []string, output string) error
	Extract(ctx context.Context, input, output string) error
}

// MKVToolNix implements Remuxer with mkvmerge and mkvextract.
type MKVToolNix struct {
	MKVMerge   string
	MKVExtract string
	// Quiet logs tool output at debug level instead of info.
	Quiet  bool
	Logger *slog.Logger
}

// Split runs mkvmerge --split frames:N. mkvmerge numbers the resulting files
// by appending -001 and -002 to the output stem.
func (m MKVToolNix) Split(ctx context.Context, input, output string, frames int) (string, string, error) {
	args := []string{"-o", output, "--split", fmt.Sprintf("frames:%d", frames), input}
	if err := m.run(ctx, binaryOr(m.MKVMerge, "mkvmerge"), args); err != nil {
		return "", "", err
	}
	return numbered(output, 1), numbered(output, 2), nil
}

// Remux wraps input in a Matroska container.
func (m MKVToolNix) Remux(ctx context.Context, input, output string) error {
	return m.run(ctx, binaryOr(m.MKVMerge, "mkvmerge"), []string{"-o", output, input})
}

// Concat appends inputs in order with mkvmerge's "+" syntax.
func (m MKVToolNix) Concat(ctx context.Context, inputs []string, output string) error {
	args := []string{"-o", output}
	for i, in := range inputs {
		if i > 0 {
			args = append(args, "+")
		}
		args = append(args, in)
	}
	return m.run(ctx, binaryOr(m.MKVMerge, "mkvmerge"), args)
}

// Extract writes track 0 of input to output as a raw stream.
func (m MKVToolNix) Extract(ctx context.Context, input, output string) error {
	return m.run(ctx, binaryOr(m.MKVExtract, "mkvextract"), []string{input, "tracks", "0:" + output})
}

// run treats exit status 1 as success: mkvtoolnix uses it for warnings.
func (m MKVToolNix) run(ctx context.Context, binary string, args []string) error {
	cmd := commandContext(ctx, binary, args...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	logger := m.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	trimmed := strings.TrimSpace(string(output))
	level := slog.LevelInfo
	if m.Quiet {
		level = slog.LevelDebug
	}
	if trimmed != "" {
		logger.Log(ctx, level, "mkvtoolnix output", logging.Args(
			logging.String("binary", binary),
			logging.String("output", trimmed),
		)...)
	}
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
		logging.WarnWithContext(logger, "mkvtoolnix reported warnings", "remux_warning",
			logging.String("binary", binary),
			logging.String("output", trimmed),
			logging.String(logging.FieldErrorHint, "inspect the merged output if playback looks wrong"),
			logging.String(logging.FieldImpact, "merge continued"),
		)
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return fmt.Errorf("%s %s: %w: %s", binary, strings.Join(args, " "), err, trimmed)
}

func binaryOr(binary, fallback string) string {
	if b := strings.TrimSpace(binary); b != "" {
		return b
	}
	return fallback
}

// numbered mirrors mkvmerge's split naming: a.mkv becomes a-001.mkv.
func numbered(path string, n int) string {
	ext := filepath.Ext(path)
	return fmt.Sprintf("%s-%03d%s", strings.TrimSuffix(path, ext), n, ext)
}
