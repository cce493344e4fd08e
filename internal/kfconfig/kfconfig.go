// Package kfconfig serializes keyframe lists into encoder forced-keyframe
// configuration files and caches them per job and start frame.
package kfconfig

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"gopsplice/internal/fileutil"
	"gopsplice/internal/services"
)

// Format selects the forced-keyframe file layout.
type Format string

const (
	// FormatSvt is the SvtAv1EncApp config directive "ForceKeyFrames : 0f,33f".
	FormatSvt Format = "svt"
	// FormatQPFile is the x264/x265 qpfile layout, one "N I -1" line per keyframe.
	FormatQPFile Format = "qpfile"
)

// Extension returns the cache file extension for the format.
func (f Format) Extension() string {
	if f == FormatSvt {
		return "cfg"
	}
	return "txt"
}

// Render serializes keyframes. It returns false when there is nothing to
// force, in which case the encoder must not be given a config file.
func Render(format Format, keyframes []int) (string, bool) {
	if len(keyframes) == 0 {
		return "", false
	}
	var b strings.Builder
	switch format {
	case FormatSvt:
		b.WriteString("ForceKeyFrames : ")
		for i, kf := range keyframes {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Itoa(kf))
			b.WriteByte('f')
		}
	default:
		for _, kf := range keyframes {
			b.WriteString(strconv.Itoa(kf))
			b.WriteString(" I -1\n")
		}
	}
	return b.String(), true
}

// Emitter writes keyframe configs into a job's work directory.
type Emitter struct {
	Dir    string
	Stem   string
	Format Format
}

// Path returns the cache location for a given start frame.
func (e Emitter) Path(startFrame int) string {
	name := fmt.Sprintf("%s_keyframes_%d.%s", e.Stem, startFrame, e.Format.Extension())
	return filepath.Join(e.Dir, name)
}

// Ensure returns the config path for startFrame, writing it when no cached
// copy exists. An empty path with a nil error means no forcing applies.
// keyframes must be relative to startFrame.
func (e Emitter) Ensure(ctx context.Context, startFrame int, keyframes []int) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	path := e.Path(startFrame)
	exists, err := fileutil.Exists(path)
	if err != nil {
		return "", false, services.Wrap(services.ErrExternalTool, "keyframes", "stat config", path, err)
	}
	if exists {
		return path, false, nil
	}
	content, ok := Render(e.Format, keyframes)
	if !ok {
		return "", false, nil
	}
	if err := fileutil.WriteFileAtomic(path, []byte(content)); err != nil {
		return "", false, services.Wrap(services.ErrExternalTool, "keyframes", "write config", path, err)
	}
	return path, true, nil
}
