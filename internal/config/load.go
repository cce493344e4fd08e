package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig []byte

// Location records which file a config came from.
type Location struct {
	Path string
	// Exists is false when no file was found and defaults were used.
	Exists bool
}

// DefaultConfigPath is ~/.config/gopsplice/config.toml, made absolute.
func DefaultConfigPath() (string, error) {
	return ExpandPath("~/.config/gopsplice/config.toml")
}

// Load reads, normalizes and validates a config. With an explicit path a
// missing file means defaults. Without one the user config is tried first,
// then gopsplice.toml in the working directory.
func Load(path string) (*Config, Location, error) {
	loc, err := locate(path)
	if err != nil {
		return nil, Location{}, err
	}

	cfg := Default()
	if loc.Exists {
		data, err := os.ReadFile(loc.Path)
		if err != nil {
			return nil, loc, fmt.Errorf("read config: %w", err)
		}
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return nil, loc, fmt.Errorf("parse %s: %w", loc.Path, err)
		}
	}
	if err := cfg.normalize(); err != nil {
		return nil, loc, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, loc, err
	}
	return &cfg, loc, nil
}

func locate(path string) (Location, error) {
	if path != "" {
		expanded, err := ExpandPath(path)
		if err != nil {
			return Location{}, err
		}
		ok, err := isFile(expanded)
		return Location{Path: expanded, Exists: ok}, err
	}

	user, err := DefaultConfigPath()
	if err != nil {
		return Location{}, err
	}
	project, err := filepath.Abs("gopsplice.toml")
	if err != nil {
		return Location{}, err
	}
	for _, candidate := range []string{user, project} {
		if ok, _ := isFile(candidate); ok {
			return Location{Path: candidate, Exists: true}, nil
		}
	}
	return Location{Path: user}, nil
}

func isFile(path string) (bool, error) {
	info, err := os.Stat(path)
	switch {
	case err == nil:
		return !info.IsDir(), nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("stat config: %w", err)
	}
}

// ExpandPath resolves a leading ~ and returns an absolute, cleaned path. An
// empty path stays empty.
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", path, err)
	}
	return abs, nil
}

// WriteSample writes the commented sample config to path, creating parent
// directories. An existing file is left alone unless overwrite is set; the
// returned error then matches fs.ErrExist.
func WriteSample(path string, overwrite bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		flags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	if _, err := f.Write(sampleConfig); err != nil {
		_ = f.Close()
		return fmt.Errorf("write sample config: %w", err)
	}
	return f.Close()
}
