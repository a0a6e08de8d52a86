package processor

import (
	"fmt"
	"slices"
)

const bytesPerMiB = 1 << 20

// Stats aggregates a run. It is mutated only by the goroutine driving the
// run; consumers read the snapshot carried by the Done event.
//
// TotalFiles counts successes only, together with OptimizedFiles. Failed and
// unreadable files are listed in Failures; Attempted covers both.
type Stats struct {
	TotalFiles          int
	OptimizedFiles      int
	TotalOriginalBytes  int64
	TotalOptimizedBytes int64
	Failures            []Failure
	Cancelled           bool
}

// Add records one successful file.
func (s *Stats) Add(originalSize, newSize int64) {
	s.TotalFiles++
	s.OptimizedFiles++
	s.TotalOriginalBytes += originalSize
	s.TotalOptimizedBytes += newSize
}

// Fail records one failed or unreadable file.
func (s *Stats) Fail(path, reason string) {
	s.Failures = append(s.Failures, Failure{Path: path, Reason: reason})
}

// Record folds a pipeline result into the stats.
func (s *Stats) Record(res Result) {
	if res.Outcome == OutcomeSuccess {
		s.Add(res.OriginalSize, res.NewSize)
		return
	}
	s.Fail(res.Source, res.Reason)
}

// Attempted is the number of files the run got to, successful or not.
func (s Stats) Attempted() int {
	return s.TotalFiles + len(s.Failures)
}

// SpaceSaved returns the aggregate byte difference between inputs and outputs.
// Positive means outputs are smaller; negative means they grew.
func (s Stats) SpaceSaved() int64 {
	return s.TotalOriginalBytes - s.TotalOptimizedBytes
}

func (s Stats) PercentSaved() float64 {
	if s.TotalOriginalBytes == 0 {
		return 0
	}
	return 100 * float64(s.SpaceSaved()) / float64(s.TotalOriginalBytes)
}

func (s Stats) Summary() string {
	out := fmt.Sprintf("Optimized %d/%d images · Saved %.2f MiB (↓ %.1f%%)",
		s.OptimizedFiles, s.Attempted(), float64(s.SpaceSaved())/bytesPerMiB, s.PercentSaved())
	if s.Cancelled {
		out += " · cancelled"
	}
	return out
}

// Snapshot returns a copy that shares no memory with s.
func (s Stats) Snapshot() Stats {
	s.Failures = slices.Clone(s.Failures)
	return s
}
