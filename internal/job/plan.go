package job

import (
	"context"
	"fmt"
	"log/slog"

	"gopsplice/internal/config"
	"gopsplice/internal/keyframes"
	"gopsplice/internal/kfconfig"
	"gopsplice/internal/logging"
	"gopsplice/internal/scenesignal"
	"gopsplice/internal/services"
)

// Plan is the keyframe layout for frames [Start, Total). Hints and keyframes
// are relative to Start.
type Plan struct {
	Stem          string               `json:"stem" yaml:"stem"`
	Start         int                  `json:"start" yaml:"start"`
	Total         int                  `json:"total" yaml:"total"`
	Hints         []int                `json:"hints" yaml:"hints"`
	HintCacheHit  bool                 `json:"hint_cache_hit" yaml:"hint_cache_hit"`
	Decisions     []keyframes.Decision `json:"decisions" yaml:"decisions"`
	Keyframes     []int                `json:"keyframes" yaml:"keyframes"`
	ConfigPath    string               `json:"config_path,omitempty" yaml:"config_path,omitempty"`
	ConfigWritten bool                 `json:"config_written" yaml:"config_written"`
}

// Planner aligns keyframes and emits the encoder's keyframe config.
type Planner struct {
	cfg    *config.Config
	source scenesignal.Source
	logger *slog.Logger
}

// NewPlanner constructs a Planner probing scenes through source.
func NewPlanner(cfg *config.Config, source scenesignal.Source, logger *slog.Logger) *Planner {
	return &Planner{cfg: cfg, source: source, logger: logging.NewComponentLogger(logger, "planner")}
}

// Params returns the alignment lengths from the configuration.
func (p *Planner) Params() keyframes.Params {
	return keyframes.Params{
		MinSceneLength:      p.cfg.Scene.MinSceneLength,
		MaxSceneLength:      p.cfg.Scene.MaxSceneLength,
		MinStillSceneLength: p.cfg.Scene.MinStillSceneLength,
	}
}

// Plan probes or loads scene hints for [start, total), aligns keyframes and
// ensures the keyframe config exists. With scene detection disabled the plan
// is empty and the encoder places keyframes itself.
func (p *Planner) Plan(ctx context.Context, stem string, start, total int) (Plan, error) {
	plan := Plan{Stem: stem, Start: start, Total: total}
	if start < 0 || start >= total {
		return plan, services.Wrap(services.ErrValidation, "planner", "plan", fmt.Sprintf("start frame %d outside clip of %d frames", start, total), nil)
	}
	logger := logging.WithContext(ctx, p.logger)
	if !p.cfg.Scene.Enabled {
		logger.Info("keyframe plan skipped", logging.Args(logging.DecisionAttrs("keyframe_plan", "skipped", "scene detection disabled")...)...)
		return plan, nil
	}

	cache := scenesignal.Cache{Dir: p.cfg.Paths.WorkDir, Stem: stem}
	probe, err := cache.Load(ctx, p.source, start, total)
	if err != nil {
		return plan, err
	}
	plan.Hints = keyframes.NormalizeHints(probe.Hints, total-start)
	plan.HintCacheHit = probe.Hit
	logger.Info("scene hints loaded",
		logging.Int("hints", len(plan.Hints)),
		logging.Bool("cache_hit", probe.Hit),
		logging.String("cache", cache.Path(start)),
	)

	window := scenesignal.Window{Source: p.source, Offset: start, Known: probe.Luma}
	decisions, err := keyframes.AlignDetailed(ctx, plan.Hints, total-start, p.Params(), window)
	if err != nil {
		return plan, err
	}
	plan.Decisions = decisions
	plan.Keyframes = keyframes.Frames(decisions)

	forced := 0
	for _, d := range decisions {
		if d.Source == keyframes.SourceForced {
			forced++
		}
	}
	logger.Info("keyframes aligned",
		logging.Int("keyframes", len(plan.Keyframes)),
		logging.Int("forced", forced),
		logging.Int("start_frame", start),
	)

	emitter := kfconfig.Emitter{Dir: p.cfg.Paths.WorkDir, Stem: stem, Format: kfconfig.Format(p.cfg.KeyframeFormat())}
	path, written, err := emitter.Ensure(ctx, start, plan.Keyframes)
	if err != nil {
		return plan, err
	}
	plan.ConfigPath = path
	plan.ConfigWritten = written
	return plan, nil
}
