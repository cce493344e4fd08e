package logging

// ProgressSampler limits progress logging to one line per percentage bucket
// and one per stage change.
type ProgressSampler struct {
	bucket     float64
	lastStage  string
	lastBucket int
}

// NewProgressSampler returns a sampler with the given bucket width in percent.
// Non-positive widths fall back to 10%.
func NewProgressSampler(bucket float64) *ProgressSampler {
	if bucket <= 0 {
		bucket = 10
	}
	return &ProgressSampler{bucket: bucket, lastBucket: -1}
}

// ShouldLog reports whether an update at percent within stage deserves a log
// line. A nil sampler logs everything.
func (s *ProgressSampler) ShouldLog(stage string, percent float64) bool {
	if s == nil {
		return true
	}
	emit := false
	if stage != s.lastStage {
		s.lastStage = stage
		s.lastBucket = -1
		emit = true
	}
	if percent < 0 {
		return emit
	}
	if percent > 100 {
		percent = 100
	}
	if b := int(percent / s.bucket); b > s.lastBucket {
		s.lastBucket = b
		emit = true
	}
	return emit
}
