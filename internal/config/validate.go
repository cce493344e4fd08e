package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateScene(); err != nil {
		return err
	}
	if err := c.validateEncoder(); err != nil {
		return err
	}
	if err := c.validateSource(); err != nil {
		return err
	}
	switch c.Probe.Method {
	case ProbeAuto, ProbeFFprobe, ProbeAnnexB:
	default:
		return fmt.Errorf("probe.method: unsupported value %q", c.Probe.Method)
	}
	return c.validateZones()
}

func (c *Config) validateScene() error {
	s := c.Scene
	if s.MinSceneLength <= 0 {
		return errors.New("scene.min_scene_length must be positive")
	}
	if s.MaxSceneLength < s.MinSceneLength {
		return errors.New("scene.max_scene_length must be >= scene.min_scene_length")
	}
	if s.MinStillSceneLength < s.MinSceneLength || s.MinStillSceneLength > s.MaxSceneLength {
		return errors.New("scene.min_still_scene_length must lie between min_scene_length and max_scene_length")
	}
	if s.Threshold <= 0 || s.Threshold > 100 {
		return errors.New("scene.threshold must be between 0 and 100")
	}
	return nil
}

func (c *Config) validateEncoder() error {
	switch c.Encoder.Kind {
	case EncoderX264, EncoderX265, EncoderSvtAv1:
	default:
		return fmt.Errorf("encoder.kind: unsupported value %q", c.Encoder.Kind)
	}
	switch c.Encoder.KeyframeFormat {
	case KeyframeFormatAuto, KeyframeFormatQPFile, KeyframeFormatSvt:
	default:
		return fmt.Errorf("encoder.keyframe_format: unsupported value %q", c.Encoder.KeyframeFormat)
	}
	if c.Encoder.Kind == EncoderSvtAv1 && c.Encoder.KeyframeFormat == KeyframeFormatQPFile {
		return errors.New("encoder.keyframe_format qpfile is not supported by svt-av1")
	}
	return nil
}

func (c *Config) validateSource() error {
	switch c.Source.Kind {
	case SourceFFmpeg, SourceVSPipe:
		return nil
	default:
		return fmt.Errorf("source.kind: unsupported value %q", c.Source.Kind)
	}
}

func (c *Config) validateZones() error {
	if len(c.Zones) > 0 && c.Encoder.Kind == EncoderSvtAv1 {
		return errors.New("zones are not supported by svt-av1")
	}
	for i, zone := range c.Zones {
		if zone.Start >= 0 && zone.End >= 0 && zone.End < zone.Start {
			return fmt.Errorf("zones[%d]: start frame %d is after end frame %d", i, zone.Start, zone.End)
		}
		if c.Encoder.Kind == EncoderX265 && zone.Param != "" && zone.Param != "b" && zone.Param != "q" {
			return fmt.Errorf("zones[%d]: x265 only accepts b or q zones, got %q", i, zone.Param)
		}
	}
	return nil
}
