package config

const (
	defaultWorkDir             = "."
	defaultLogDir              = "~/.local/share/gopsplice/logs"
	defaultStateDir            = "~/.local/share/gopsplice"
	defaultMinSceneLength      = 33
	defaultMaxSceneLength      = 257
	defaultMinStillSceneLength = 193
	defaultSceneThreshold      = 10.0
	defaultEncoderKind         = EncoderX265
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:  defaultWorkDir,
			LogDir:   defaultLogDir,
			StateDir: defaultStateDir,
		},
		Scene: Scene{
			Enabled:             true,
			MinSceneLength:      defaultMinSceneLength,
			MaxSceneLength:      defaultMaxSceneLength,
			MinStillSceneLength: defaultMinStillSceneLength,
			Threshold:           defaultSceneThreshold,
		},
		Encoder: Encoder{
			Kind:           defaultEncoderKind,
			KeyframeFormat: KeyframeFormatAuto,
		},
		Tools: Tools{
			FFmpeg:     "ffmpeg",
			FFprobe:    "ffprobe",
			MKVMerge:   "mkvmerge",
			MKVExtract: "mkvextract",
		},
		Source: Source{
			Kind: SourceFFmpeg,
		},
		Probe: Probe{
			Method: ProbeAuto,
		},
		Merge: Merge{
			Quiet: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

func defaultEncoderBinary(kind string) string {
	switch kind {
	case EncoderX264:
		return "x264"
	case EncoderSvtAv1:
		return "SvtAv1EncApp"
	default:
		return "x265"
	}
}
