package encoder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"

	"gopsplice/internal/logging"
	"gopsplice/internal/services"
)

var commandContext = exec.CommandContext

// Session accepts raw Y4M frames for one encode part.
type Session interface {
	Feed(frame []byte) error
	Finish() error
}

// Process is a Session backed by an encoder process reading stdin.
type Process struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr *tailBuffer
	logger *slog.Logger

	finishOnce sync.Once
	finishErr  error
}

// Start launches the encoder and writes the Y4M stream header.
func Start(ctx context.Context, binary string, args []string, header []byte, logger *slog.Logger) (*Process, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	cmd := commandContext(ctx, binary, args...) //nolint:gosec
	stderr := newTailBuffer(16 << 10)
	cmd.Stderr = stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "encoder", "pipe", binary, err)
	}
	logger.Info("starting encoder",
		logging.String("command", binary+" "+strings.Join(args, " ")),
	)
	if err := cmd.Start(); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "encoder", "start", binary, err)
	}
	p := &Process{cmd: cmd, stdin: stdin, stderr: stderr, logger: logger}
	if _, err := stdin.Write(header); err != nil {
		return nil, p.fail("write header", err)
	}
	return p, nil
}

// Feed writes one frame to the encoder.
func (p *Process) Feed(frame []byte) error {
	if _, err := p.stdin.Write(frame); err != nil {
		return p.fail("write frame", err)
	}
	return nil
}

// Finish closes stdin and waits for the encoder to exit. It is safe to call
// more than once.
func (p *Process) Finish() error {
	p.finishOnce.Do(func() {
		_ = p.stdin.Close()
		if err := p.cmd.Wait(); err != nil {
			p.finishErr = services.Wrap(services.ErrExternalTool, "encoder", "wait", p.detail(), err)
			return
		}
		p.logger.Debug("encoder finished", logging.String("stderr_tail", p.stderr.String()))
	})
	return p.finishErr
}

// fail reaps the process after a broken pipe so the exit status and stderr
// reach the caller instead of a bare EPIPE.
func (p *Process) fail(op string, err error) error {
	if waitErr := p.Finish(); waitErr != nil {
		return fmt.Errorf("%s: %w", op, waitErr)
	}
	return services.Wrap(services.ErrExternalTool, "encoder", op, p.cmd.Path, err)
}

func (p *Process) detail() string {
	tail := strings.TrimSpace(p.stderr.String())
	if tail == "" {
		return p.cmd.Path
	}
	if idx := strings.LastIndexAny(tail, "\r\n"); idx >= 0 {
		tail = tail[idx+1:]
	}
	return p.cmd.Path + ": " + tail
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	mu    sync.Mutex
	limit int
	buf   []byte
}

func newTailBuffer(limit int) *tailBuffer {
	return &tailBuffer{limit: limit}
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, p...)
	if over := len(b.buf) - b.limit; over > 0 {
		b.buf = append(b.buf[:0], b.buf[over:]...)
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}
