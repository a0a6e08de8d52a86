package processor

import (
	"testing"

	"imgopt/internal/metadata"
)

func TestFormatResult(t *testing.T) {
	tests := []struct {
		name string
		res  Result
		want string
	}{
		{
			name: "success",
			res:  Result{Source: "/p/a.jpg", Dest: "/p/a-2x2-0000abcd.jpg", OriginalSize: 2048, NewSize: 512, Outcome: OutcomeSuccess},
			want: "✓ a.jpg → a-2x2-0000abcd.jpg (2.0 KiB → 0.5 KiB)",
		},
		{
			name: "success with extras",
			res: Result{
				Source: "/p/b.png", Dest: "/p/b-2x2-0000abcd.png", OriginalSize: 1024, NewSize: 1024,
				Outcome: OutcomeSuccess, Compressed: true,
				Removed: []metadata.Block{{Kind: metadata.BlockICC}},
			},
			want: "✓ b.png → b-2x2-0000abcd.png (1.0 KiB → 1.0 KiB) · stripped ICC · oxipng",
		},
		{
			name: "unreadable",
			res:  Result{Source: "/p/x.png", Outcome: OutcomeSkippedUnreadable, Reason: ReasonUnreadable},
			want: "✗ Skipped (not an image): /p/x.png",
		},
		{
			name: "failed",
			res:  Result{Source: "/p/y.jpg", Outcome: OutcomeFailed, Reason: "disk full"},
			want: "✗ Error processing /p/y.jpg: disk full",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatResult(tt.res); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}
