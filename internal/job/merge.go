package job

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"gopsplice/internal/fileutil"
	"gopsplice/internal/logging"
	"gopsplice/internal/merge"
	"gopsplice/internal/recovery"
	"gopsplice/internal/services"
)

// Merge joins the parts already on disk for stem without encoding. The last
// part is taken whole; every earlier part is cut at its last keyframe. Parts
// are never deleted here: any part that would be discarded by a scan fails
// the merge instead.
func (r *Runner) Merge(ctx context.Context, stem string) (Result, error) {
	var res Result
	stem = strings.TrimSpace(stem)
	if stem == "" || strings.ContainsRune(stem, filepath.Separator) {
		return res, services.Wrap(services.ErrValidation, "job", "merge", fmt.Sprintf("invalid stem %q", stem), nil)
	}
	dir := r.cfg.Paths.WorkDir
	ext := r.cfg.PartExtension()
	res.Output = filepath.Join(dir, recovery.OutputName(stem, ext))
	ctx = services.WithStage(services.WithStem(ctx, stem), "merge")
	logger := logging.WithContext(ctx, r.logger)

	if done, err := fileutil.Exists(res.Output); err != nil {
		return res, services.Wrap(services.ErrExternalTool, "job", "stat output", res.Output, err)
	} else if done {
		return res, services.Wrap(services.ErrValidation, "job", "merge", res.Output+" already exists", nil)
	}

	unlock, err := acquireLock(dir, stem)
	if err != nil {
		return res, err
	}
	defer func() { _ = unlock() }()

	parts, err := recovery.Discover(dir, stem, ext)
	if err != nil {
		return res, services.Wrap(services.ErrExternalTool, "job", "discover parts", dir, err)
	}
	if len(parts) == 0 {
		return res, services.Wrap(services.ErrNotFound, "job", "merge", "no parts for "+stem, nil)
	}

	// The final part only needs to exist; its keyframes do not matter.
	last := parts[len(parts)-1]
	valid, discarded, err := recovery.NewManager(r.prober, logger).Inspect(ctx, parts[:len(parts)-1])
	if err != nil {
		return res, err
	}
	if len(discarded) > 0 {
		d := discarded[0]
		return res, services.Wrap(services.ErrPartValidation, "job", "merge",
			fmt.Sprintf("part %03d unusable: %s", d.Part.Ordinal, d.Reason), nil)
	}
	if last.Ordinal != len(valid) {
		return res, services.Wrap(services.ErrPartValidation, "job", "merge",
			fmt.Sprintf("ordinal gap before final part %03d", last.Ordinal), nil)
	}

	segments := make([]merge.Segment, 0, len(valid))
	for _, p := range valid {
		segments = append(segments, merge.Segment{Path: p.Path, Keyframe: p.LastKeyframe})
	}
	res.Part = last.Path
	res.Decision = recovery.Decision{Kind: recovery.Resume, Parts: valid, NextOrdinal: last.Ordinal, Offset: recovery.ComputeResumePoint(valid)}
	if err := merge.NewMerger(r.remuxer, logger).Merge(ctx, segments, last.Path, res.Output); err != nil {
		return res, err
	}
	logger.Info("parts merged", logging.String("output", res.Output), logging.Int("parts", len(parts)))
	return res, nil
}
