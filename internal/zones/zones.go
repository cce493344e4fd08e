// Package zones resolves per-range encoder overrides and rewrites them for a
// resumed encode that starts part-way into the clip.
package zones

import (
	"fmt"
	"strconv"
	"strings"

	"gopsplice/internal/config"
	"gopsplice/internal/services"
)

// Zone is an inclusive frame range with one encoder override. An empty Param
// is a bitrate multiplier.
type Zone struct {
	Start int
	End   int
	Param string
	Value float64
}

// FromConfig converts configured zones.
func FromConfig(in []config.Zone) []Zone {
	out := make([]Zone, 0, len(in))
	for _, z := range in {
		out = append(out, Zone{Start: z.Start, End: z.End, Param: z.Param, Value: z.Value})
	}
	return out
}

// Normalize resolves negative frame indices against totalFrames and clamps
// ends to the last frame.
func Normalize(zones []Zone, totalFrames int) ([]Zone, error) {
	out := make([]Zone, 0, len(zones))
	for _, z := range zones {
		if z.Start < 0 {
			z.Start = totalFrames + z.Start
		}
		if z.End < 0 {
			z.End = totalFrames + z.End
		}
		if z.End > totalFrames-1 {
			z.End = totalFrames - 1
		}
		if z.Start < 0 || z.Start > z.End {
			return nil, services.Wrap(
				services.ErrValidation,
				"zones",
				"normalize",
				fmt.Sprintf("zone %d-%d is empty for a %d frame clip", z.Start, z.End, totalFrames),
				nil,
			)
		}
		out = append(out, z)
	}
	return out, nil
}

// Shift rebases zones onto an encode starting at startFrame. Zones that end
// before the start are dropped and zones straddling it begin at 0.
func Shift(zones []Zone, startFrame int) []Zone {
	if startFrame == 0 {
		return zones
	}
	out := make([]Zone, 0, len(zones))
	for _, z := range zones {
		z.Start -= startFrame
		z.End -= startFrame
		if z.End < 0 {
			continue
		}
		if z.Start < 0 {
			z.Start = 0
		}
		out = append(out, z)
	}
	return out
}

// Args renders zones as an x264/x265 --zones argument pair.
func Args(zones []Zone, kind string) ([]string, error) {
	if len(zones) == 0 {
		return nil, nil
	}
	if kind == config.EncoderSvtAv1 {
		return nil, services.Wrap(services.ErrValidation, "zones", "args", "svt-av1 does not accept zones", nil)
	}
	specs := make([]string, 0, len(zones))
	for _, z := range zones {
		param := strings.ToLower(z.Param)
		if param == "" {
			param = "b"
		}
		if kind == config.EncoderX265 && param != "b" && param != "q" {
			return nil, services.Wrap(
				services.ErrValidation,
				"zones",
				"args",
				fmt.Sprintf("x265 only accepts b or q zones, got %q", z.Param),
				nil,
			)
		}
		specs = append(specs, fmt.Sprintf("%d,%d,%s=%s", z.Start, z.End, param, strconv.FormatFloat(z.Value, 'f', -1, 64)))
	}
	return []string{"--zones", strings.Join(specs, "/")}, nil
}
