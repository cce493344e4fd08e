package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Encoder kinds understood by the encoder adapter.
const (
	EncoderX264   = "x264"
	EncoderX265   = "x265"
	EncoderSvtAv1 = "svt-av1"
)

// Keyframe config formats.
const (
	KeyframeFormatAuto   = "auto"
	KeyframeFormatSvt    = "svt"
	KeyframeFormatQPFile = "qpfile"
)

// Probe methods used to find keyframes inside encode parts.
const (
	ProbeAuto    = "auto"
	ProbeFFprobe = "ffprobe"
	ProbeAnnexB  = "annexb"
)

// Frame source kinds.
const (
	SourceFFmpeg = "ffmpeg"
	SourceVSPipe = "vspipe"
)

// Paths contains directory configuration.
type Paths struct {
	WorkDir  string `toml:"work_dir"`
	LogDir   string `toml:"log_dir"`
	StateDir string `toml:"state_dir"`
}

// Scene contains scene-cut detection and keyframe alignment settings. All
// lengths are in frames.
type Scene struct {
	Enabled             bool    `toml:"enabled"`
	MinSceneLength      int     `toml:"min_scene_length"`
	MaxSceneLength      int     `toml:"max_scene_length"`
	MinStillSceneLength int     `toml:"min_still_scene_length"`
	Threshold           float64 `toml:"threshold"`
}

// Encoder describes the external encoder process.
type Encoder struct {
	Kind           string   `toml:"kind"`
	Binary         string   `toml:"binary"`
	Args           []string `toml:"args"`
	KeyframeFormat string   `toml:"keyframe_format"`
}

// Tools names the external helper binaries.
type Tools struct {
	FFmpeg     string `toml:"ffmpeg"`
	FFprobe    string `toml:"ffprobe"`
	MKVMerge   string `toml:"mkvmerge"`
	MKVExtract string `toml:"mkvextract"`
}

// Source describes the frame producer piped into the encoder.
type Source struct {
	Kind   string   `toml:"kind"`
	Binary string   `toml:"binary"`
	Args   []string `toml:"args"`
}

// Probe selects how encode parts are scanned for keyframes.
type Probe struct {
	Method string `toml:"method"`
}

// Merge contains part merging settings.
type Merge struct {
	Quiet bool `toml:"quiet"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Zone overrides encoder settings for an inclusive frame range. An empty Param
// means a bitrate multiplier. Negative frames count back from the clip end.
type Zone struct {
	Start int     `toml:"start"`
	End   int     `toml:"end"`
	Param string  `toml:"param"`
	Value float64 `toml:"value"`
}

// Config is the decoded gopsplice.toml. Path fields are absolute once Load
// returns.
type Config struct {
	Paths   Paths   `toml:"paths"`
	Scene   Scene   `toml:"scene"`
	Encoder Encoder `toml:"encoder"`
	Tools   Tools   `toml:"tools"`
	Source  Source  `toml:"source"`
	Probe   Probe   `toml:"probe"`
	Merge   Merge   `toml:"merge"`
	Logging Logging `toml:"logging"`
	Zones   []Zone  `toml:"zones"`
}

// EnsureDirectories creates the configured directories that are set.
func (c *Config) EnsureDirectories() error {
	for name, dir := range map[string]string{
		"work_dir":  c.Paths.WorkDir,
		"log_dir":   c.Paths.LogDir,
		"state_dir": c.Paths.StateDir,
	} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("paths.%s: %w", name, err)
		}
	}
	return nil
}

var partExtensions = map[string]string{
	EncoderX264:   "264",
	EncoderX265:   "265",
	EncoderSvtAv1: "ivf",
}

// PartExtension is the file extension of the raw stream the encoder writes,
// used for part and output names.
func (c *Config) PartExtension() string {
	if ext, ok := partExtensions[c.Encoder.Kind]; ok {
		return ext
	}
	return "ivf"
}

// KeyframeFormat resolves the keyframe config format, honouring "auto".
func (c *Config) KeyframeFormat() string {
	if c.Encoder.KeyframeFormat != KeyframeFormatAuto {
		return c.Encoder.KeyframeFormat
	}
	if c.Encoder.Kind == EncoderSvtAv1 {
		return KeyframeFormatSvt
	}
	return KeyframeFormatQPFile
}

// JournalPath is the SQLite attempt history under the state directory.
func (c *Config) JournalPath() string {
	return filepath.Join(c.Paths.StateDir, "journal.db")
}
