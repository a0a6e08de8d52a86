package processor

import (
	"errors"
	"fmt"

	"imgopt/internal/metadata"
)

const (
	MinQuality     = 40
	MaxQuality     = 100
	DefaultQuality = 85
)

// ErrInvalidConfig is wrapped by Config.Validate failures.
var ErrInvalidConfig = errors.New("invalid configuration")

// SourceFile is one candidate image found by Scan.
type SourceFile struct {
	Path string
	Ext  string
	Size int64
}

// Config is fixed for the duration of a run.
type Config struct {
	Quality          int
	ConvertPNGToWebP bool
	// DestDir receives all outputs; empty writes each output next to its source.
	DestDir string
	// Workers above 1 runs the pipeline on a pool; results are still
	// reported in input order.
	Workers int
}

func (c Config) Validate() error {
	if c.Quality < MinQuality || c.Quality > MaxQuality {
		return fmt.Errorf("%w: quality %d outside %d-%d", ErrInvalidConfig, c.Quality, MinQuality, MaxQuality)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative", ErrInvalidConfig)
	}
	return nil
}

type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeSkippedUnreadable
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeSkippedUnreadable:
		return "skipped-unreadable"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ReasonUnreadable is the failure reason recorded for undecodable content.
const ReasonUnreadable = "unreadable image"

type Result struct {
	Source       string
	Dest         string
	OriginalSize int64
	NewSize      int64
	Outcome      Outcome
	Reason       string
	// Removed lists the metadata blocks the source carried.
	Removed []metadata.Block
	// Compressed is true when the external PNG compressor was applied.
	Compressed bool
}

type Failure struct {
	Path   string
	Reason string
}
