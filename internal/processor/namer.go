package processor

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// digestWindow is how much of the decoded pixel buffer feeds the name digest.
const digestWindow = 32 * 1024

const dupSuffix = "-dup"

// NameFor returns "<stem>-<w>x<h>-<digest>" where digest is 8 hex characters
// of an xxHash64 over the first 32 KiB of the raw decoded pixels. The name
// depends on pixel content and dimensions only, so re-encoding or converting
// the file keeps it stable.
func NameFor(stem string, width, height int, pix []byte) string {
	if len(pix) > digestWindow {
		pix = pix[:digestWindow]
	}
	digest := uint32(xxhash.Sum64(pix))
	return fmt.Sprintf("%s-%dx%d-%08x", stem, width, height, digest)
}

// PathReserver hands out destination paths for a run. A candidate is free
// when it does not exist on disk and no other file of the run holds it.
// Collisions resolve to "<stem>-dup", then "<stem>-dup2", "<stem>-dup3", and
// so on. All methods are goroutine-safe.
type PathReserver struct {
	mu       sync.Mutex
	reserved map[string]bool
}

func NewPathReserver() *PathReserver {
	return &PathReserver{reserved: make(map[string]bool)}
}

// Reserve claims the first free path among dir/stem+ext, dir/stem-dup+ext,
// dir/stem-dup2+ext, ...
func (pr *PathReserver) Reserve(dir, stem, ext string) (string, error) {
	pr.mu.Lock()
	defer pr.mu.Unlock()

	for n := 0; ; n++ {
		candidate := filepath.Join(dir, stem+collisionSuffix(n)+ext)
		if pr.reserved[candidate] {
			continue
		}
		_, err := os.Lstat(candidate)
		if err == nil {
			continue
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
		pr.reserved[candidate] = true
		return candidate, nil
	}
}

// Release gives a path back, for example after a failed write.
func (pr *PathReserver) Release(path string) {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	delete(pr.reserved, path)
}

func collisionSuffix(n int) string {
	switch n {
	case 0:
		return ""
	case 1:
		return dupSuffix
	default:
		return fmt.Sprintf("%s%d", dupSuffix, n)
	}
}
