package encoder

import (
	"strconv"
	"strings"

	"gopsplice/internal/config"
	"gopsplice/internal/services"
)

// Request describes one encode part.
type Request struct {
	Kind   string
	Binary string
	// Args are user supplied encoder options placed before the generated ones.
	Args         []string
	Output       string
	Frames       int
	KeyframeFile string
	ZoneArgs     []string
}

// RequestFromConfig fills the encoder identity and user options from cfg.
func RequestFromConfig(cfg *config.Config, output string, frames int) Request {
	return Request{
		Kind:   cfg.Encoder.Kind,
		Binary: cfg.Encoder.Binary,
		Args:   append([]string(nil), cfg.Encoder.Args...),
		Output: output,
		Frames: frames,
	}
}

// Args returns the encoder binary and full argument list for req.
func Args(req Request) (string, []string, error) {
	if strings.TrimSpace(req.Output) == "" {
		return "", nil, services.Wrap(services.ErrValidation, "encoder", "build args", "empty output path", nil)
	}
	if req.Frames <= 0 {
		return "", nil, services.Wrap(services.ErrValidation, "encoder", "build args", "frame count must be positive", nil)
	}
	frames := strconv.Itoa(req.Frames)
	args := append([]string(nil), req.Args...)
	switch req.Kind {
	case config.EncoderX264:
		args = append(args, "--demuxer", "y4m", "--frames", frames)
		if req.KeyframeFile != "" {
			args = append(args, "--qpfile", req.KeyframeFile)
		}
		args = append(args, req.ZoneArgs...)
		args = append(args, "-o", req.Output, "-")
		return binaryOr(req.Binary, "x264"), args, nil
	case config.EncoderX265:
		// Parts are cut at keyframes, which needs closed GOPs. Placed after
		// the user options so it overrides --open-gop.
		args = append(args, "--no-open-gop", "--y4m", "--input", "-", "--frames", frames)
		if req.KeyframeFile != "" {
			args = append(args, "--qpfile", req.KeyframeFile)
		}
		args = append(args, req.ZoneArgs...)
		args = append(args, "--output", req.Output)
		return binaryOr(req.Binary, "x265"), args, nil
	case config.EncoderSvtAv1:
		if len(req.ZoneArgs) > 0 {
			return "", nil, services.Wrap(services.ErrValidation, "encoder", "build args", "svt-av1 does not accept zones", nil)
		}
		args = append(args, "-i", "stdin", "--frames", frames)
		if req.KeyframeFile != "" {
			args = append(args, "-c", req.KeyframeFile)
		}
		args = append(args, "-b", req.Output)
		return binaryOr(req.Binary, "SvtAv1EncApp"), args, nil
	default:
		return "", nil, services.Wrap(services.ErrConfiguration, "encoder", "build args", "unknown encoder kind "+strconv.Quote(req.Kind), nil)
	}
}

func binaryOr(binary, fallback string) string {
	if strings.TrimSpace(binary) == "" {
		return fallback
	}
	return binary
}
