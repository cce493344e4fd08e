package scenesignal

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopsplice/internal/fileutil"
	"gopsplice/internal/services"
)

// Cache stores scene-cut hints for one job, keyed by encode start frame.
type Cache struct {
	Dir  string
	Stem string
}

// Path returns the hint cache file for startFrame.
func (c Cache) Path(startFrame int) string {
	return filepath.Join(c.Dir, fmt.Sprintf("%s_scenes_%d.txt", c.Stem, startFrame))
}

// Probe is the outcome of Cache.Load.
type Probe struct {
	Hints []int
	// Luma holds the decoded series on a cache miss and is nil on a hit.
	Luma []float64
	Hit  bool
}

// Load returns hints for [startFrame, endFrame) relative to startFrame,
// probing source and writing the cache when no cached copy exists.
func (c Cache) Load(ctx context.Context, source Source, startFrame, endFrame int) (Probe, error) {
	path := c.Path(startFrame)
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		hints, err := parseHints(data)
		if err != nil {
			return Probe{}, services.Wrap(services.ErrProbe, "scene signal", "read cache", path, err)
		}
		return Probe{Hints: hints, Hit: true}, nil
	case !os.IsNotExist(err):
		return Probe{}, services.Wrap(services.ErrProbe, "scene signal", "read cache", path, err)
	}

	if source == nil {
		return Probe{}, services.Wrap(services.ErrProbe, "scene signal", "probe", "no source configured", nil)
	}
	signal, err := source.Signal(ctx, startFrame, endFrame)
	if err != nil {
		return Probe{}, err
	}
	if err := fileutil.WriteFileAtomic(path, formatHints(signal.Hints)); err != nil {
		return Probe{}, services.Wrap(services.ErrExternalTool, "scene signal", "write cache", path, err)
	}
	return Probe{Hints: signal.Hints, Luma: signal.Luma}, nil
}

func formatHints(hints []int) []byte {
	var b bytes.Buffer
	for _, h := range hints {
		b.WriteString(strconv.Itoa(h))
		b.WriteByte('\n')
	}
	return b.Bytes()
}

func parseHints(data []byte) ([]int, error) {
	var hints []int
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		n, err := strconv.Atoi(line)
		if err != nil {
			return nil, fmt.Errorf("malformed hint %q: %w", line, err)
		}
		hints = append(hints, n)
	}
	return hints, scanner.Err()
}
