package processor

import (
	"fmt"
	"path/filepath"

	"imgopt/internal/metadata"
)

// FormatResult renders the log line for one file.
func FormatResult(res Result) string {
	switch res.Outcome {
	case OutcomeSuccess:
		line := fmt.Sprintf("✓ %s → %s (%.1f KiB → %.1f KiB)",
			filepath.Base(res.Source), filepath.Base(res.Dest),
			float64(res.OriginalSize)/1024, float64(res.NewSize)/1024)
		if len(res.Removed) > 0 {
			line += " · stripped " + metadata.Describe(res.Removed)
		}
		if res.Compressed {
			line += " · oxipng"
		}
		return line
	case OutcomeSkippedUnreadable:
		return fmt.Sprintf("✗ Skipped (not an image): %s", res.Source)
	default:
		return fmt.Sprintf("✗ Error processing %s: %s", res.Source, res.Reason)
	}
}
