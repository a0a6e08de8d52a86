package processor

import (
	"context"
	"os/exec"
)

// Compressor post-processes a written PNG in place. TryCompress never fails
// the file: it only reports whether the pass was applied.
type Compressor interface {
	TryCompress(ctx context.Context, path string) bool
}

// DefaultOxipng is the binary name looked up on PATH.
const DefaultOxipng = "oxipng"

// Oxipng runs the oxipng lossless PNG optimizer.
type Oxipng struct {
	Binary string
}

func (o Oxipng) TryCompress(ctx context.Context, path string) bool {
	bin := o.Binary
	if bin == "" {
		bin = DefaultOxipng
	}
	resolved, err := exec.LookPath(bin)
	if err != nil {
		return false
	}

	cmd := exec.CommandContext(ctx, resolved, "--strip", "all", "--opt", "max", "--preserve", path)
	return cmd.Run() == nil
}

// NoCompressor disables the external pass.
type NoCompressor struct{}

func (NoCompressor) TryCompress(context.Context, string) bool { return false }
