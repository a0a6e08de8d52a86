// Package metadata reports the auxiliary, non-pixel blocks (EXIF, XMP, ICC
// profiles, IPTC, textual chunks) embedded in JPEG, PNG and WebP files.
package metadata

import (
	"fmt"
	"sort"
	"strings"

	"imgopt/pkg/imgutil"
)

type BlockKind string

const (
	BlockEXIF      BlockKind = "EXIF"
	BlockXMP       BlockKind = "XMP"
	BlockICC       BlockKind = "ICC"
	BlockIPTC      BlockKind = "IPTC"
	BlockText      BlockKind = "Text"
	BlockTimestamp BlockKind = "Timestamp"
)

// Block is one metadata block found in a file. Size is the payload size in
// bytes; Tags, Findings and Notes are only populated for EXIF blocks.
type Block struct {
	Kind     BlockKind
	Size     int
	Tags     int
	Findings []string
	// Notes are human-readable disclosures such as the capture device or
	// the approximate location.
	Notes []string
}

type Report struct {
	Format imgutil.Kind
	Blocks []Block
}

// Has reports whether the report contains at least one block of kind.
func (r Report) Has(kind BlockKind) bool {
	for _, b := range r.Blocks {
		if b.Kind == kind {
			return true
		}
	}
	return false
}

// Empty reports whether no metadata was found.
func (r Report) Empty() bool {
	return len(r.Blocks) == 0
}

// String renders the blocks in a compact form such as
// "EXIF (14 tags: GPS, Device Model), ICC".
func (r Report) String() string {
	return Describe(r.Blocks)
}

// Describe renders blocks the way Report.String does.
func Describe(blocks []Block) string {
	if len(blocks) == 0 {
		return "none"
	}
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if b.Kind != BlockEXIF || b.Tags == 0 {
			parts = append(parts, string(b.Kind))
			continue
		}
		label := fmt.Sprintf("%s (%d tags", b.Kind, b.Tags)
		if len(b.Findings) > 0 {
			label += ": " + strings.Join(b.Findings, ", ")
		}
		parts = append(parts, label+")")
	}
	return strings.Join(parts, ", ")
}

// add merges a block into the report. Repeated blocks of the same kind
// (split ICC profiles, several text chunks) collapse into one entry.
func (r *Report) add(b Block) {
	for i := range r.Blocks {
		if r.Blocks[i].Kind != b.Kind {
			continue
		}
		r.Blocks[i].Size += b.Size
		r.Blocks[i].Tags += b.Tags
		r.Blocks[i].Findings = mergeFindings(r.Blocks[i].Findings, b.Findings)
		r.Blocks[i].Notes = append(r.Blocks[i].Notes, b.Notes...)
		return
	}
	r.Blocks = append(r.Blocks, b)
}

func mergeFindings(a, b []string) []string {
	if len(b) == 0 {
		return a
	}
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, v := range append(append([]string{}, a...), b...) {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
