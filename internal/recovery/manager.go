package recovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopsplice/internal/logging"
	"gopsplice/internal/services"
)

// Kind is the terminal state of a scan.
type Kind int

const (
	// Restart means no usable part exists and the encode starts at frame 0.
	Restart Kind = iota
	// Resume means at least one part survived and the encode continues at Offset.
	Resume
)

func (k Kind) String() string {
	switch k {
	case Restart:
		return "restart"
	case Resume:
		return "resume"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Discard records a part removed during a scan.
type Discard struct {
	Part   Part
	Reason string
}

// Decision is the result of scanning a work directory.
type Decision struct {
	Kind        Kind
	Offset      int
	Parts       []ValidPart
	Discarded   []Discard
	NextOrdinal int
}

// Manager validates parts and computes resume decisions.
type Manager struct {
	prober Prober
	logger *slog.Logger
}

// NewManager constructs a Manager.
func NewManager(prober Prober, logger *slog.Logger) *Manager {
	return &Manager{prober: prober, logger: logging.NewComponentLogger(logger, "recovery")}
}

// Validate returns the last keyframe of part. Parts that cannot be probed or
// whose only keyframe is frame 0 fail with ErrPartValidation.
func (m *Manager) Validate(ctx context.Context, part Part) (int, error) {
	vp, err := m.validate(ctx, part)
	if err != nil {
		return 0, err
	}
	return vp.LastKeyframe, nil
}

func (m *Manager) validate(ctx context.Context, part Part) (ValidPart, error) {
	probe, err := m.prober.Probe(ctx, part.Path)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ValidPart{}, ctxErr
		}
		return ValidPart{}, services.Wrap(services.ErrPartValidation, "recovery", "probe part", part.Path, err)
	}
	last := 0
	if n := len(probe.Keyframes); n > 0 {
		last = probe.Keyframes[n-1]
	}
	if last <= 0 {
		return ValidPart{}, services.Wrap(
			services.ErrPartValidation,
			"recovery",
			"validate part",
			fmt.Sprintf("%s has no keyframe after frame 0 (%d frames)", part.Path, probe.Frames),
			nil,
		)
	}
	return ValidPart{Part: part, LastKeyframe: last, Frames: probe.Frames}, nil
}

// Inspect validates every part without deleting anything.
func (m *Manager) Inspect(ctx context.Context, parts []Part) ([]ValidPart, []Discard, error) {
	var valid []ValidPart
	var discarded []Discard
	for _, part := range parts {
		reason := ""
		switch {
		case len(discarded) > 0:
			reason = "follows a discarded part"
		case part.Ordinal != len(valid):
			reason = fmt.Sprintf("ordinal gap: expected part %03d", len(valid))
		}
		if reason != "" {
			discarded = append(discarded, Discard{Part: part, Reason: reason})
			continue
		}
		vp, err := m.validate(ctx, part)
		if err != nil {
			if !errors.Is(err, services.ErrPartValidation) {
				return nil, nil, err
			}
			discarded = append(discarded, Discard{Part: part, Reason: err.Error()})
			continue
		}
		valid = append(valid, vp)
	}
	return valid, discarded, nil
}

// Scan discovers the parts of stem, deletes the ones that cannot contribute,
// and returns where the next encoder invocation starts.
func (m *Manager) Scan(ctx context.Context, dir, stem, ext string) (Decision, error) {
	parts, err := Discover(dir, stem, ext)
	if err != nil {
		return Decision{}, services.Wrap(services.ErrExternalTool, "recovery", "discover parts", dir, err)
	}
	valid, discarded, err := m.Inspect(ctx, parts)
	if err != nil {
		return Decision{}, err
	}
	for _, d := range discarded {
		if err := os.Remove(d.Part.Path); err != nil && !os.IsNotExist(err) {
			return Decision{}, services.Wrap(services.ErrExternalTool, "recovery", "delete part", d.Part.Path, err)
		}
		logging.WarnWithContext(m.logger, "discarded encode part", "part_discarded",
			logging.String("path", d.Part.Path),
			logging.Int(logging.FieldPart, d.Part.Ordinal),
			logging.String("reason", d.Reason),
			logging.String(logging.FieldErrorHint, "frames from this part will be encoded again"),
			logging.String(logging.FieldImpact, "part deleted; no progress lost beyond its last keyframe"),
		)
	}

	decision := Decision{
		Kind:        Restart,
		Parts:       valid,
		Discarded:   discarded,
		NextOrdinal: len(valid),
	}
	if len(valid) > 0 {
		decision.Kind = Resume
		decision.Offset = ComputeResumePoint(valid)
	}

	attrs := append(logging.DecisionAttrs("resume", decision.Kind.String(), fmt.Sprintf("%d valid, %d discarded", len(valid), len(discarded))),
		logging.Int("resume_frame", decision.Offset),
		logging.Int("next_part", decision.NextOrdinal),
	)
	m.logger.Info("resume decision", logging.Args(attrs...)...)
	return decision, nil
}
