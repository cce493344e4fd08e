package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"gopsplice/internal/config"
	"gopsplice/internal/encoder"
	"gopsplice/internal/fileutil"
	"gopsplice/internal/framesource"
	"gopsplice/internal/journal"
	"gopsplice/internal/logging"
	"gopsplice/internal/media/ffprobe"
	"gopsplice/internal/merge"
	"gopsplice/internal/recovery"
	"gopsplice/internal/scenesignal"
	"gopsplice/internal/services"
	"gopsplice/internal/zones"
)

// Options describe one encode attempt.
type Options struct {
	// Input is the clip the frame producer reads (a video file or a vspipe script).
	Input string
	// ProbeInput is the file ffmpeg probes for scene cuts and frame counts.
	// Defaults to Input.
	ProbeInput string
	Stem       string
	// TotalFrames skips the ffprobe frame count when positive.
	TotalFrames int
	// Progress receives frames encoded in this attempt and frames expected.
	Progress func(done, expected int)
}

// Result summarizes a finished attempt.
type Result struct {
	RunID         string
	Decision      recovery.Decision
	Plan          Plan
	TotalFrames   int
	Part          string
	FramesEncoded int
	Output        string
	// Skipped is set when the output already existed and nothing ran.
	Skipped bool
}

// frameStream is the producer side of an encode.
type frameStream interface {
	Next() ([]byte, error)
	Header() framesource.Header
	Close() error
}

// Runner executes attempts.
type Runner struct {
	cfg      *config.Config
	logger   *slog.Logger
	journal  *journal.Store
	prober   recovery.Prober
	remuxer  merge.Remuxer
	newScene func(input string) scenesignal.Source

	openFrames   func(ctx context.Context, spec framesource.Spec, start int) (frameStream, error)
	startEncoder func(ctx context.Context, binary string, args []string, header []byte, logger *slog.Logger) (encoder.Session, error)
	countFrames  func(ctx context.Context, binary, path string) (int, error)
}

// Option customizes a Runner.
type Option func(*Runner)

// WithJournal records attempts in store.
func WithJournal(store *journal.Store) Option {
	return func(r *Runner) { r.journal = store }
}

// WithProber overrides the part keyframe probe.
func WithProber(p recovery.Prober) Option {
	return func(r *Runner) { r.prober = p }
}

// WithRemuxer overrides the merge tool.
func WithRemuxer(m merge.Remuxer) Option {
	return func(r *Runner) { r.remuxer = m }
}

// WithSceneSource overrides the scene-cut probe.
func WithSceneSource(src scenesignal.Source) Option {
	return func(r *Runner) { r.newScene = func(string) scenesignal.Source { return src } }
}

// New constructs a Runner backed by the configured external tools.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Runner {
	r := &Runner{
		cfg:     cfg,
		logger:  logging.NewComponentLogger(logger, "job"),
		prober:  recovery.NewProber(cfg),
		remuxer: merge.MKVToolNix{MKVMerge: cfg.Tools.MKVMerge, MKVExtract: cfg.Tools.MKVExtract, Quiet: cfg.Merge.Quiet, Logger: logger},
		newScene: func(input string) scenesignal.Source {
			return SceneSource(cfg, input)
		},
		openFrames: func(ctx context.Context, spec framesource.Spec, start int) (frameStream, error) {
			return framesource.Open(ctx, spec, start)
		},
		startEncoder: func(ctx context.Context, binary string, args []string, header []byte, logger *slog.Logger) (encoder.Session, error) {
			return encoder.Start(ctx, binary, args, header, logger)
		},
		countFrames: ffprobe.FrameCount,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SceneSource returns the ffmpeg scene probe for input.
func SceneSource(cfg *config.Config, input string) scenesignal.Source {
	return scenesignal.FFmpeg{Binary: cfg.Tools.FFmpeg, Input: input, Threshold: cfg.Scene.Threshold}
}

// Run performs one attempt. On failure, parts already written stay on disk
// for the next attempt.
func (r *Runner) Run(ctx context.Context, opts Options) (res Result, err error) {
	stem := strings.TrimSpace(opts.Stem)
	if stem == "" || strings.ContainsRune(stem, filepath.Separator) {
		return res, services.Wrap(services.ErrValidation, "job", "run", fmt.Sprintf("invalid stem %q", opts.Stem), nil)
	}
	if strings.TrimSpace(opts.Input) == "" {
		return res, services.Wrap(services.ErrValidation, "job", "run", "input is required", nil)
	}
	probeInput := opts.ProbeInput
	if probeInput == "" {
		probeInput = opts.Input
	}

	dir := r.cfg.Paths.WorkDir
	ext := r.cfg.PartExtension()
	res.RunID = uuid.NewString()
	res.Output = filepath.Join(dir, recovery.OutputName(stem, ext))
	ctx = services.WithRunID(services.WithStem(ctx, stem), res.RunID)
	logger := logging.WithContext(ctx, r.logger)

	if done, statErr := fileutil.Exists(res.Output); statErr != nil {
		return res, services.Wrap(services.ErrExternalTool, "job", "stat output", res.Output, statErr)
	} else if done {
		res.Skipped = true
		logger.Info("encode skipped", logging.Args(append(logging.DecisionAttrs("encode", "skipped", "output already exists"),
			logging.String("output", res.Output))...)...)
		return res, nil
	}

	unlock, err := acquireLock(dir, stem)
	if err != nil {
		return res, err
	}
	defer func() {
		if unlockErr := unlock(); unlockErr != nil {
			logging.WarnWithContext(logger, "failed to release stem lock", "lock_release_failed",
				logging.Error(unlockErr),
				logging.String(logging.FieldImpact, "the lock file is released when the process exits"),
			)
		}
	}()

	if r.journal != nil {
		if n, markErr := r.journal.MarkInterrupted(ctx, stem); markErr != nil {
			logging.WarnWithContext(logger, "journal update failed", "journal_write_failed", logging.Error(markErr))
		} else if n > 0 {
			logger.Info("previous attempts marked interrupted", logging.Int64("attempts", n))
		}
	}

	scanCtx := services.WithStage(ctx, "scan")
	decision, err := recovery.NewManager(r.prober, logging.WithContext(scanCtx, r.logger)).Scan(scanCtx, dir, stem, ext)
	if err != nil {
		return res, err
	}
	res.Decision = decision

	var start int
	switch decision.Kind {
	case recovery.Restart:
		start = 0
	case recovery.Resume:
		start = decision.Offset
	default:
		return res, services.Wrap(services.ErrValidation, "job", "resume", "unknown decision "+decision.Kind.String(), nil)
	}

	total := opts.TotalFrames
	if total <= 0 {
		total, err = r.countFrames(ctx, r.cfg.Tools.FFprobe, probeInput)
		if err != nil {
			return res, err
		}
	}
	res.TotalFrames = total
	if start >= total {
		return res, services.Wrap(services.ErrValidation, "job", "resume",
			fmt.Sprintf("resume frame %d is not inside a clip of %d frames", start, total), nil)
	}

	res.Part = filepath.Join(dir, recovery.PartName(stem, decision.NextOrdinal, ext))
	attempt := r.beginAttempt(ctx, logger, journal.Attempt{
		RunID:       res.RunID,
		Stem:        stem,
		InputPath:   opts.Input,
		Decision:    decision.Kind.String(),
		ResumeFrame: start,
		TotalFrames: total,
		PartOrdinal: decision.NextOrdinal,
		PartPath:    res.Part,
		Discarded:   len(decision.Discarded),
	})
	defer func() {
		r.finishAttempt(ctx, logger, attempt, res.FramesEncoded, err)
	}()

	planCtx := services.WithStage(ctx, "plan")
	plan, err := NewPlanner(r.cfg, r.newScene(probeInput), r.logger).Plan(planCtx, stem, start, total)
	if err != nil {
		return res, err
	}
	res.Plan = plan

	encodeCtx := services.WithPart(services.WithStage(ctx, "encode"), decision.NextOrdinal)
	res.FramesEncoded, err = r.encode(encodeCtx, opts, plan, res.Part)
	if err != nil {
		return res, err
	}

	mergeCtx := services.WithStage(ctx, "merge")
	segments := make([]merge.Segment, 0, len(decision.Parts))
	for _, p := range decision.Parts {
		segments = append(segments, merge.Segment{Path: p.Path, Keyframe: p.LastKeyframe})
	}
	if err = merge.NewMerger(r.remuxer, logging.WithContext(mergeCtx, r.logger)).Merge(mergeCtx, segments, res.Part, res.Output); err != nil {
		return res, err
	}
	logger.Info("encode complete",
		logging.String("output", res.Output),
		logging.Int("parts", len(segments)+1),
		logging.Int("frames", total),
	)
	return res, nil
}

func (r *Runner) encode(ctx context.Context, opts Options, plan Plan, partPath string) (int, error) {
	logger := logging.WithContext(ctx, r.logger)
	expected := plan.Total - plan.Start

	zoneArgs, err := r.zoneArgs(plan)
	if err != nil {
		return 0, err
	}
	req := encoder.RequestFromConfig(r.cfg, partPath, expected)
	req.KeyframeFile = plan.ConfigPath
	req.ZoneArgs = zoneArgs
	binary, args, err := encoder.Args(req)
	if err != nil {
		return 0, err
	}

	stream, err := r.openFrames(ctx, framesource.FromConfig(r.cfg, opts.Input), plan.Start)
	if err != nil {
		return 0, err
	}
	session, err := r.startEncoder(ctx, binary, args, stream.Header().Raw, logger)
	if err != nil {
		_ = stream.Close()
		return 0, err
	}

	sampler := logging.NewProgressSampler(10)
	started := time.Now()
	done, err := encoder.Pump(ctx, stream, session, expected, func(n int) {
		if opts.Progress != nil {
			opts.Progress(n, expected)
		}
		percent := float64(n) * 100 / float64(expected)
		if sampler.ShouldLog("encode", percent) {
			logger.Info("encode progress",
				logging.Int("frames", n),
				logging.Int("expected", expected),
				logging.Float64("progress_percent", percent),
			)
		}
	})
	closeErr := stream.Close()
	if err != nil {
		return done, err
	}
	if closeErr != nil {
		return done, services.Wrap(services.ErrExternalTool, "frame source", "close", opts.Input, closeErr)
	}
	if done < expected {
		return done, services.Wrap(services.ErrExternalTool, "frame source", "read",
			fmt.Sprintf("produced %d of %d frames", done, expected), nil)
	}
	logger.Info("part encoded",
		logging.String("part", partPath),
		logging.Int("frames", done),
		logging.Duration("elapsed", time.Since(started)),
	)
	return done, nil
}

func (r *Runner) zoneArgs(plan Plan) ([]string, error) {
	if len(r.cfg.Zones) == 0 {
		return nil, nil
	}
	normalized, err := zones.Normalize(zones.FromConfig(r.cfg.Zones), plan.Total)
	if err != nil {
		return nil, err
	}
	return zones.Args(zones.Shift(normalized, plan.Start), r.cfg.Encoder.Kind)
}

func (r *Runner) beginAttempt(ctx context.Context, logger *slog.Logger, a journal.Attempt) *journal.Attempt {
	if r.journal == nil {
		return nil
	}
	attempt, err := r.journal.Begin(ctx, a)
	if err != nil {
		logging.WarnWithContext(logger, "journal update failed", "journal_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "attempt missing from history"),
		)
		return nil
	}
	return attempt
}

func (r *Runner) finishAttempt(ctx context.Context, logger *slog.Logger, attempt *journal.Attempt, frames int, runErr error) {
	outcome := journal.OutcomeMerged
	switch {
	case runErr == nil:
	case errors.Is(runErr, context.Canceled) || ctx.Err() != nil:
		outcome = journal.OutcomeInterrupted
	case frames > 0 && errors.Is(runErr, services.ErrRemux):
		outcome = journal.OutcomeEncoded
	default:
		outcome = journal.OutcomeFailed
	}
	if outcome == journal.OutcomeFailed {
		logging.ErrorWithContext(logger, "encode attempt failed", "attempt_failed",
			logging.Error(runErr),
			logging.Int("frames_encoded", frames),
			logging.String(logging.FieldErrorHint, "rerun the same command; completed GOPs in earlier parts are kept"),
		)
	}
	if r.journal == nil || attempt == nil {
		return
	}
	attempt.FramesEncoded = frames
	if err := r.journal.Finish(context.WithoutCancel(ctx), attempt, outcome, runErr); err != nil {
		logging.WarnWithContext(logger, "journal update failed", "journal_write_failed", logging.Error(err))
	}
}
