package job

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"

	"gopsplice/internal/config"
	"gopsplice/internal/encoder"
	"gopsplice/internal/framesource"
	"gopsplice/internal/recovery"
	"gopsplice/internal/scenesignal"
)

// sceneStub reports fixed absolute cuts and a flat luma series.
type sceneStub struct {
	mu      sync.Mutex
	cuts    []int
	signals int
}

func (s *sceneStub) Signal(_ context.Context, start, end int) (scenesignal.Signal, error) {
	s.mu.Lock()
	s.signals++
	s.mu.Unlock()
	var hints []int
	for _, c := range s.cuts {
		if c > start && c < end {
			hints = append(hints, c-start)
		}
	}
	return scenesignal.Signal{Hints: hints, Luma: make([]float64, end-start)}, nil
}

func (s *sceneStub) LumaDiff(_ context.Context, start, end int) ([]float64, error) {
	return make([]float64, end-start), nil
}

// frameCounter yields frames whose payload is the absolute frame index.
type frameCounter struct {
	next, end int
}

func (f *frameCounter) Next() ([]byte, error) {
	if f.next >= f.end {
		return nil, io.EOF
	}
	frame := []byte(fmt.Sprintf("FRAME\n%d", f.next))
	f.next++
	return frame, nil
}

func (f *frameCounter) Header() framesource.Header {
	return framesource.Header{Raw: []byte("YUV4MPEG2 W2 H2 Cmono\n"), Width: 2, Height: 2, Colorspace: "mono"}
}

func (f *frameCounter) Close() error { return nil }

// lineEncoder writes one line per frame: "K <abs>" on keyframes from the
// qpfile, "F <abs>" otherwise.
type lineEncoder struct {
	out       *os.File
	keys      map[int]bool
	fed       int
	failAfter int
}

func (e *lineEncoder) Feed(frame []byte) error {
	if e.failAfter > 0 && e.fed == e.failAfter {
		return errors.New("encoder crashed")
	}
	abs := strings.TrimPrefix(string(frame), "FRAME\n")
	kind := "F"
	if e.fed == 0 || e.keys[e.fed] {
		kind = "K"
	}
	if _, err := fmt.Fprintf(e.out, "%s %s\n", kind, abs); err != nil {
		return err
	}
	e.fed++
	return nil
}

func (e *lineEncoder) Finish() error {
	return e.out.Close()
}

func argValue(args []string, flag string) string {
	if i := slices.Index(args, flag); i >= 0 && i+1 < len(args) {
		return args[i+1]
	}
	return ""
}

func readQPFile(path string) (map[int]bool, error) {
	keys := map[int]bool{}
	if path == "" {
		return keys, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		n, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, err
		}
		keys[n] = true
	}
	return keys, nil
}

// lineProber treats part lines as frames and "K" lines as keyframes.
type lineProber struct{}

func (lineProber) Probe(_ context.Context, path string) (recovery.Probe, error) {
	lines, err := readLines(path)
	if err != nil {
		return recovery.Probe{}, err
	}
	probe := recovery.Probe{Frames: len(lines)}
	for i, line := range lines {
		if strings.HasPrefix(line, "K ") {
			probe.Keyframes = append(probe.Keyframes, i)
		}
	}
	return probe, nil
}

// lineRemuxer splits and joins line files.
type lineRemuxer struct{}

func (lineRemuxer) Split(_ context.Context, input, output string, frames int) (string, string, error) {
	lines, err := readLines(input)
	if err != nil {
		return "", "", err
	}
	kept, rest := output+".kept", output+".rest"
	if err := writeLines(kept, lines[:frames]); err != nil {
		return "", "", err
	}
	return kept, rest, writeLines(rest, lines[frames:])
}

func (lineRemuxer) Remux(_ context.Context, input, output string) error {
	lines, err := readLines(input)
	if err != nil {
		return err
	}
	return writeLines(output, lines)
}

func (lineRemuxer) Concat(_ context.Context, inputs []string, output string) error {
	var all []string
	for _, in := range inputs {
		lines, err := readLines(in)
		if err != nil {
			return err
		}
		all = append(all, lines...)
	}
	return writeLines(output, all)
}

func (r lineRemuxer) Extract(ctx context.Context, input, output string) error {
	return r.Remux(ctx, input, output)
}

func readLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	text := strings.TrimSuffix(string(data), "\n")
	if text == "" {
		return nil, nil
	}
	return strings.Split(text, "\n"), nil
}

func writeLines(path string, lines []string) error {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

// harness wires a Runner to the fakes above.
type harness struct {
	runner    *Runner
	scene     *sceneStub
	failAfter int
	encodes   [][]string
}

func newHarness(t *testing.T, cfg *config.Config, opts ...Option) *harness {
	t.Helper()
	h := &harness{scene: &sceneStub{cuts: []int{40, 100, 170, 230}}}
	base := []Option{WithSceneSource(h.scene), WithProber(lineProber{}), WithRemuxer(lineRemuxer{})}
	h.runner = New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), append(base, opts...)...)
	h.runner.openFrames = func(_ context.Context, spec framesource.Spec, start int) (frameStream, error) {
		if spec.Input == "" {
			return nil, errors.New("no input")
		}
		return &frameCounter{next: start, end: 300}, nil
	}
	h.runner.startEncoder = func(_ context.Context, _ string, args []string, header []byte, _ *slog.Logger) (encoder.Session, error) {
		h.encodes = append(h.encodes, args)
		if !strings.HasPrefix(string(header), "YUV4MPEG2") {
			return nil, fmt.Errorf("unexpected header %q", header)
		}
		keys, err := readQPFile(argValue(args, "--qpfile"))
		if err != nil {
			return nil, err
		}
		out, err := os.Create(argValue(args, "--output"))
		if err != nil {
			return nil, err
		}
		enc := &lineEncoder{out: out, keys: keys, failAfter: h.failAfter}
		h.failAfter = 0
		return enc, nil
	}
	h.runner.countFrames = func(context.Context, string, string) (int, error) {
		return 300, nil
	}
	return h
}

func partPath(cfg *config.Config, ordinal int) string {
	return filepath.Join(cfg.Paths.WorkDir, recovery.PartName("ep01", ordinal, cfg.PartExtension()))
}
