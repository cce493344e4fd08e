package recovery

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// Part is one encoder invocation's output file.
type Part struct {
	Ordinal int
	Path    string
}

// ValidPart is a part with a confirmed keyframe after frame 0.
type ValidPart struct {
	Part
	LastKeyframe int
	Frames       int
}

// PartName returns the file name for a part ordinal.
func PartName(stem string, ordinal int, ext string) string {
	return fmt.Sprintf("%s_part_%03d.%s", stem, ordinal, strings.TrimPrefix(ext, "."))
}

// OutputName returns the merged output file name.
func OutputName(stem, ext string) string {
	return stem + "." + strings.TrimPrefix(ext, ".")
}

func partPattern(stem, ext string) *regexp.Regexp {
	return regexp.MustCompile("^" + regexp.QuoteMeta(stem) + `_part_(\d{3})\.` + regexp.QuoteMeta(strings.TrimPrefix(ext, ".")) + "$")
}

// Discover lists the parts of stem in dir ordered by ordinal.
func Discover(dir, stem, ext string) ([]Part, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	pattern := partPattern(stem, ext)
	var parts []Part
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		match := pattern.FindStringSubmatch(entry.Name())
		if match == nil {
			continue
		}
		ordinal, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		parts = append(parts, Part{Ordinal: ordinal, Path: filepath.Join(dir, entry.Name())})
	}
	slices.SortFunc(parts, func(a, b Part) int { return a.Ordinal - b.Ordinal })
	return parts, nil
}

// ComputeResumePoint sums the last keyframes of parts in order.
func ComputeResumePoint(parts []ValidPart) int {
	offset := 0
	for _, p := range parts {
		offset += p.LastKeyframe
	}
	return offset
}
