package services

import (
	"errors"
	"fmt"
	"strings"
)

// Markers classify job errors. Callers test them with errors.Is; the CLI maps
// them to exit codes through ExitCode.
var (
	// ErrExternalTool marks a failed encoder, source pipe or filesystem call.
	ErrExternalTool = errors.New("external tool error")
	// ErrValidation marks bad user input such as an invalid stem or flag.
	ErrValidation = errors.New("validation error")
	// ErrConfiguration marks an unusable config file or missing dependency.
	ErrConfiguration = errors.New("configuration error")
	// ErrNotFound marks a stem with nothing on disk to act on.
	ErrNotFound = errors.New("not found")
	// ErrTransient is the fallback marker when none is given.
	ErrTransient = errors.New("transient failure")

	// ErrProbe marks a scene-signal or keyframe probe that could not produce data.
	ErrProbe = errors.New("probe failure")
	// ErrPartValidation marks an encode part that cannot contribute to a resume.
	ErrPartValidation = errors.New("part validation failure")
	// ErrRemux marks a failed mkvmerge/mkvextract step during part merging.
	ErrRemux = errors.New("remux failure")
	// ErrAlignmentStall marks a keyframe aligner that failed to advance.
	ErrAlignmentStall = errors.New("alignment stall")
	// ErrJobLocked marks a work directory stem already owned by another attempt.
	ErrJobLocked = errors.New("job locked")
)

// Wrap returns "marker: stage: operation: message: err". Empty pieces are
// skipped, and both marker and err stay reachable through errors.Is.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// ExitCode maps a job error to the process exit status used by the CLI.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrConfiguration), errors.Is(err, ErrValidation):
		return 2
	case errors.Is(err, ErrJobLocked):
		return 3
	case errors.Is(err, ErrRemux):
		return 4
	case errors.Is(err, ErrProbe):
		return 5
	default:
		return 1
	}
}

func buildDetail(stage, operation, message string) string {
	var b strings.Builder
	for _, piece := range [...]string{stage, operation, message} {
		if piece = strings.TrimSpace(piece); piece == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString(": ")
		}
		b.WriteString(piece)
	}
	if b.Len() == 0 {
		return "job failure"
	}
	return b.String()
}
