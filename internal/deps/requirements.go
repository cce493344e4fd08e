package deps

import (
	"gopsplice/internal/config"
)

var encoderBinaries = map[string]string{
	config.EncoderX264:   "x264",
	config.EncoderX265:   "x265",
	config.EncoderSvtAv1: "SvtAv1EncApp",
}

// Requirements lists the tools a job needs under cfg.
func Requirements(cfg *config.Config) []Requirement {
	encoder := cfg.Encoder.Binary
	if encoder == "" {
		encoder = encoderBinaries[cfg.Encoder.Kind]
	}
	reqs := []Requirement{
		{Name: "Encoder", Command: encoder, Description: "Encodes parts from piped Y4M frames (" + cfg.Encoder.Kind + ")"},
		{Name: "FFmpeg", Command: cfg.Tools.FFmpeg, Description: "Scene-cut and luma probes"},
		{Name: "FFprobe", Command: cfg.Tools.FFprobe, Description: "Frame counts and part keyframe probes", Optional: cfg.Probe.Method == config.ProbeAnnexB},
		{Name: "MKVToolNix mkvmerge", Command: cfg.Tools.MKVMerge, Description: "Splits and joins parts"},
		{Name: "MKVToolNix mkvextract", Command: cfg.Tools.MKVExtract, Description: "Extracts the merged stream"},
	}
	switch cfg.Source.Kind {
	case config.SourceVSPipe:
		binary := cfg.Source.Binary
		if binary == "" {
			binary = "vspipe"
		}
		reqs = append(reqs, Requirement{Name: "VapourSynth vspipe", Command: binary, Description: "Frame producer"})
	default:
		if cfg.Source.Binary != "" && cfg.Source.Binary != cfg.Tools.FFmpeg {
			reqs = append(reqs, Requirement{Name: "Frame producer", Command: cfg.Source.Binary, Description: "Frame producer"})
		}
	}
	return reqs
}
