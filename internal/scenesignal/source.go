package scenesignal

import (
	"context"
	"fmt"

	"gopsplice/internal/services"
)

// Signal carries scene-cut hints and per-frame luma differences for one frame
// range. Both are relative to the range start.
type Signal struct {
	Hints []int
	Luma  []float64
}

// Source produces signals for the half-open absolute frame range [start, end).
type Source interface {
	Signal(ctx context.Context, start, end int) (Signal, error)
	LumaDiff(ctx context.Context, start, end int) ([]float64, error)
}

// Window exposes a Source's luma series relative to an encode's start frame.
// Values already decoded by a full-range Signal call are served from memory.
type Window struct {
	Source Source
	Offset int
	Known  []float64
}

// LumaDiff implements keyframes.LumaProvider.
func (w Window) LumaDiff(ctx context.Context, start, end int) ([]float64, error) {
	if start < 0 || end < start {
		return nil, services.Wrap(services.ErrProbe, "scene signal", "luma diff", fmt.Sprintf("invalid range %d-%d", start, end), nil)
	}
	if end <= len(w.Known) {
		out := make([]float64, end-start)
		copy(out, w.Known[start:end])
		return out, nil
	}
	if w.Source == nil {
		return nil, services.Wrap(services.ErrProbe, "scene signal", "luma diff", "no source configured", nil)
	}
	return w.Source.LumaDiff(ctx, w.Offset+start, w.Offset+end)
}
