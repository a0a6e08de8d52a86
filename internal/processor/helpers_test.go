package processor

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"imgopt/internal/codec"
	"imgopt/internal/fixture"
)

type fakeCompressor struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeCompressor) TryCompress(_ context.Context, path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, path)
	return true
}

func (f *fakeCompressor) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type recordingSink struct {
	logs     []string
	progress []int
	done     []Stats
}

func (s *recordingSink) OnLog(text string)           { s.logs = append(s.logs, text) }
func (s *recordingSink) OnProgress(completed, _ int) { s.progress = append(s.progress, completed) }
func (s *recordingSink) OnComplete(stats Stats)      { s.done = append(s.done, stats) }

type resultRecorder struct {
	results []Result
	after   func(Result)
}

func (r *resultRecorder) Observe(res Result) {
	r.results = append(r.results, res)
	if r.after != nil {
		r.after(res)
	}
}

func newTestCodec() codec.Codec {
	return codec.NewNative()
}

func newTestPipeline() (*Pipeline, *fakeCompressor) {
	comp := &fakeCompressor{}
	return NewPipeline(newTestCodec(), comp, nil), comp
}

func testConfig() Config {
	return Config{Quality: 80}
}

func writeJPEG(t *testing.T, path string, w, h int, seed uint8) SourceFile {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := fixture.WriteJPEG(path, fixture.Gradient(w, h, seed), 95); err != nil {
		t.Fatalf("build JPEG: %v", err)
	}
	return sourceFor(t, path)
}

func writePNG(t *testing.T, path string, w, h int, seed uint8) SourceFile {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := fixture.WritePNG(path, fixture.Gradient(w, h, seed)); err != nil {
		t.Fatalf("build PNG: %v", err)
	}
	return sourceFor(t, path)
}

func writeGarbage(t *testing.T, path string) SourceFile {
	t.Helper()
	if err := os.WriteFile(path, []byte{0xde, 0xad, 0xbe, 0xef}, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return sourceFor(t, path)
}

func sourceFor(t *testing.T, path string) SourceFile {
	t.Helper()
	fi, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	return SourceFile{Path: path, Ext: filepath.Ext(path), Size: fi.Size()}
}
