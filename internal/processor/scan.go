package processor

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrSourceRoot is returned by Scan when the root is missing or not a directory.
var ErrSourceRoot = errors.New("source root")

var supportedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// Supported reports whether ext (with leading dot, any case) is a supported
// image extension.
func Supported(ext string) bool {
	return supportedExtensions[strings.ToLower(ext)]
}

// Scan walks root and returns every regular file with a supported extension.
// Entries that fail with an access error are skipped. Directories listed in
// exclude, typically a destination directory nested inside root, are pruned.
func Scan(root string, exclude ...string) ([]SourceFile, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceRoot, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrSourceRoot, root)
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceRoot, err)
	}

	var pruned []string
	for _, dir := range exclude {
		if dir == "" {
			continue
		}
		abs, err := filepath.Abs(dir)
		if err != nil {
			continue
		}
		abs = filepath.Clean(abs)
		if abs != filepath.Clean(absRoot) && isWithin(abs, absRoot) {
			pruned = append(pruned, abs)
		}
	}

	var files []SourceFile
	fsys := os.DirFS(absRoot)
	_ = fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if d != nil && d.IsDir() && path != "." {
				return fs.SkipDir
			}
			return nil
		}
		fullPath := filepath.Join(absRoot, filepath.FromSlash(path))
		if d.IsDir() {
			for _, dir := range pruned {
				if fullPath == dir {
					return fs.SkipDir
				}
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if !supportedExtensions[ext] {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return nil
		}
		files = append(files, SourceFile{Path: fullPath, Ext: ext, Size: fi.Size()})
		return nil
	})

	return files, nil
}

func isWithin(path string, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
