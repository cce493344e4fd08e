package recovery

import (
	"context"

	"gopsplice/internal/config"
	"gopsplice/internal/media/annexb"
	"gopsplice/internal/media/ffprobe"
)

// Probe is the keyframe layout of one part.
type Probe struct {
	Frames    int
	Keyframes []int
}

// Prober reads keyframe positions from an encoded part. Keyframe indices are
// in display order.
//
// FFprobeProber and AnnexBProber agree on closed-GOP streams, which is what the
// generated encoder arguments produce. They differ when user options force
// open GOPs: AnnexBProber reports only clean random access points (H.264 IDR,
// HEVC IRAP without leading pictures), while FFprobeProber reports every
// picture ffprobe marks as I, including non-IDR I frames and open-GOP CRAs.
// Resuming from the latter may duplicate or drop frames at the splice, so
// keep x264 --open-gop out of encoder.args or use the annexb probe.
type Prober interface {
	Probe(ctx context.Context, path string) (Probe, error)
}

// FFprobeProber decodes picture types with ffprobe. It handles every container
// ffprobe understands, including IVF.
type FFprobeProber struct {
	Binary string
}

// Probe implements Prober.
func (p FFprobeProber) Probe(ctx context.Context, path string) (Probe, error) {
	types, err := ffprobe.Keyframes(ctx, p.Binary, path)
	if err != nil {
		return Probe{}, err
	}
	return Probe{Frames: types.Frames, Keyframes: types.Keyframes}, nil
}

// AnnexBProber parses raw H.264/H.265 streams in-process.
type AnnexBProber struct{}

// Probe implements Prober.
func (AnnexBProber) Probe(ctx context.Context, path string) (Probe, error) {
	if err := ctx.Err(); err != nil {
		return Probe{}, err
	}
	result, err := annexb.Keyframes(path)
	if err != nil {
		return Probe{}, err
	}
	return Probe{Frames: result.Frames, Keyframes: result.Keyframes}, nil
}

// AutoProber parses Annex-B streams natively and falls back to ffprobe for
// everything else.
type AutoProber struct {
	FFprobe FFprobeProber
}

// Probe implements Prober.
func (p AutoProber) Probe(ctx context.Context, path string) (Probe, error) {
	if annexb.Supported(path) {
		return AnnexBProber{}.Probe(ctx, path)
	}
	return p.FFprobe.Probe(ctx, path)
}

// NewProber selects the prober configured in cfg.
func NewProber(cfg *config.Config) Prober {
	ff := FFprobeProber{Binary: cfg.Tools.FFprobe}
	switch cfg.Probe.Method {
	case config.ProbeFFprobe:
		return ff
	case config.ProbeAnnexB:
		return AnnexBProber{}
	default:
		return AutoProber{FFprobe: ff}
	}
}
