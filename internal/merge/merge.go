package merge

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopsplice/internal/fileutil"
	"gopsplice/internal/logging"
	"gopsplice/internal/services"
)

// Segment is an earlier part and the frame where its last keyframe sits.
type Segment struct {
	Path     string
	Keyframe int
}

// Merger joins parts through a Remuxer.
type Merger struct {
	remuxer Remuxer
	logger  *slog.Logger
}

// NewMerger constructs a Merger.
func NewMerger(remuxer Remuxer, logger *slog.Logger) *Merger {
	return &Merger{remuxer: remuxer, logger: logging.NewComponentLogger(logger, "merge")}
}

// Merge writes segments followed by final to output. Segments must be in
// ordinal order. Inputs are deleted only after the output is in place.
func (m *Merger) Merge(ctx context.Context, segments []Segment, final, output string) error {
	for _, seg := range segments {
		if seg.Keyframe <= 0 {
			return services.Wrap(services.ErrRemux, "merge", "plan", fmt.Sprintf("%s has no split keyframe", seg.Path), nil)
		}
	}
	if len(segments) == 0 {
		if err := fileutil.MoveFile(final, output); err != nil {
			return services.Wrap(services.ErrRemux, "merge", "rename", final, err)
		}
		m.logger.Info("encode finished without earlier parts",
			logging.String("output", output),
			logging.String(logging.FieldEventType, "merge_complete"),
		)
		return nil
	}

	var scratch []string
	cleanup := func() {
		for _, path := range scratch {
			_ = os.Remove(path)
		}
	}

	kept := make([]string, 0, len(segments)+1)
	for _, seg := range segments {
		target := intermediate(seg.Path, "split")
		first, rest, err := m.remuxer.Split(ctx, seg.Path, target, seg.Keyframe)
		scratch = append(scratch, numbered(target, 1), numbered(target, 2))
		if err != nil {
			cleanup()
			return services.Wrap(services.ErrRemux, "merge", "split", seg.Path, err)
		}
		scratch = appendUnique(scratch, first, rest)
		kept = append(kept, first)
		m.logger.Debug("split part", logging.String("part", seg.Path), logging.Int("frames", seg.Keyframe))
	}

	remuxed := intermediate(final, "remux")
	scratch = append(scratch, remuxed)
	if err := m.remuxer.Remux(ctx, final, remuxed); err != nil {
		cleanup()
		return services.Wrap(services.ErrRemux, "merge", "remux", final, err)
	}
	kept = append(kept, remuxed)

	joined := intermediate(output, "concat")
	scratch = append(scratch, joined)
	if err := m.remuxer.Concat(ctx, kept, joined); err != nil {
		cleanup()
		return services.Wrap(services.ErrRemux, "merge", "concat", joined, err)
	}

	partial := filepath.Join(filepath.Dir(output), "."+filepath.Base(output)+".partial")
	scratch = append(scratch, partial)
	if err := m.remuxer.Extract(ctx, joined, partial); err != nil {
		cleanup()
		return services.Wrap(services.ErrRemux, "merge", "extract", joined, err)
	}
	if err := os.Rename(partial, output); err != nil {
		cleanup()
		return services.Wrap(services.ErrRemux, "merge", "rename", output, err)
	}

	cleanup()
	for _, seg := range segments {
		_ = os.Remove(seg.Path)
	}
	_ = os.Remove(final)

	m.logger.Info("merged encode parts",
		logging.String("output", output),
		logging.Int("parts", len(segments)+1),
		logging.String(logging.FieldEventType, "merge_complete"),
	)
	return nil
}

// intermediate names a scratch Matroska file next to path.
func intermediate(path, tag string) string {
	base := strings.TrimSuffix(path, filepath.Ext(path))
	return base + "." + tag + ".mkv"
}

func appendUnique(list []string, values ...string) []string {
	for _, v := range values {
		if v != "" && !slices.Contains(list, v) {
			list = append(list, v)
		}
	}
	return list
}
