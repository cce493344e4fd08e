package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeEncoder()
	c.normalizeTools()
	c.normalizeSource()
	c.Probe.Method = strings.ToLower(strings.TrimSpace(c.Probe.Method))
	if c.Probe.Method == "" {
		c.Probe.Method = ProbeAuto
	}
	for i := range c.Zones {
		c.Zones[i].Param = strings.ToLower(strings.TrimSpace(c.Zones[i].Param))
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv("GOPSPLICE_WORK_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.WorkDir = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	var err error
	if c.Paths.WorkDir, err = ExpandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if c.Paths.LogDir, err = ExpandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.StateDir, err = ExpandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeEncoder() {
	c.Encoder.Kind = strings.ToLower(strings.TrimSpace(c.Encoder.Kind))
	switch c.Encoder.Kind {
	case "":
		c.Encoder.Kind = defaultEncoderKind
	case "svtav1", "svt_av1", "av1":
		c.Encoder.Kind = EncoderSvtAv1
	}
	c.Encoder.Binary = strings.TrimSpace(c.Encoder.Binary)
	if c.Encoder.Binary == "" {
		c.Encoder.Binary = defaultEncoderBinary(c.Encoder.Kind)
	}
	c.Encoder.KeyframeFormat = strings.ToLower(strings.TrimSpace(c.Encoder.KeyframeFormat))
	if c.Encoder.KeyframeFormat == "" {
		c.Encoder.KeyframeFormat = KeyframeFormatAuto
	}
}

func (c *Config) normalizeTools() {
	defaults := Default().Tools
	c.Tools.FFmpeg = fallback(c.Tools.FFmpeg, defaults.FFmpeg)
	c.Tools.FFprobe = fallback(c.Tools.FFprobe, defaults.FFprobe)
	c.Tools.MKVMerge = fallback(c.Tools.MKVMerge, defaults.MKVMerge)
	c.Tools.MKVExtract = fallback(c.Tools.MKVExtract, defaults.MKVExtract)
}

func (c *Config) normalizeSource() {
	c.Source.Kind = strings.ToLower(strings.TrimSpace(c.Source.Kind))
	if c.Source.Kind == "" {
		c.Source.Kind = SourceFFmpeg
	}
	c.Source.Binary = strings.TrimSpace(c.Source.Binary)
	if c.Source.Binary == "" {
		switch c.Source.Kind {
		case SourceVSPipe:
			c.Source.Binary = "vspipe"
		default:
			c.Source.Binary = c.Tools.FFmpeg
		}
	}
}

func (c *Config) normalizeLogging() {
	if value, ok := os.LookupEnv("GOPSPLICE_LOG_LEVEL"); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = value
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func fallback(value, def string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return def
}
