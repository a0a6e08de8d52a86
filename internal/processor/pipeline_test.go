package processor

import (
	"bytes"
	"context"
	"image"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"golang.org/x/image/webp"

	"imgopt/internal/metadata"
)

func decodeFile(t *testing.T, path string) image.Image {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".webp") {
		img, err := webp.Decode(f)
		if err != nil {
			t.Fatalf("decode webp output: %v", err)
		}
		return img
	}
	img, _, err := image.Decode(f)
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	return img
}

func assertDims(t *testing.T, path string, w, h int) {
	t.Helper()
	b := decodeFile(t, path).Bounds()
	if b.Dx() != w || b.Dy() != h {
		t.Fatalf("%s: dimensions %dx%d, want %dx%d", filepath.Base(path), b.Dx(), b.Dy(), w, h)
	}
}

func TestOptimize_JPEGStripsMetadataAndKeepsDimensions(t *testing.T) {
	dir := t.TempDir()
	src := writeJPEG(t, filepath.Join(dir, "photo.jpg"), 64, 48, 1)

	before, err := metadata.Inspect(src.Path)
	if err != nil || !before.Has(metadata.BlockEXIF) || !before.Has(metadata.BlockICC) {
		t.Fatalf("fixture should carry EXIF and ICC: %v (%v)", before, err)
	}

	p, comp := newTestPipeline()
	res := p.Optimize(context.Background(), src, testConfig())
	if res.Outcome != OutcomeSuccess {
		t.Fatalf("outcome = %v (%s)", res.Outcome, res.Reason)
	}

	if !regexp.MustCompile(`^photo-64x48-[0-9a-f]{8}\.jpg$`).MatchString(filepath.Base(res.Dest)) {
		t.Fatalf("unexpected destination name %s", filepath.Base(res.Dest))
	}
	if filepath.Dir(res.Dest) != dir {
		t.Fatalf("in-place output landed in %s", filepath.Dir(res.Dest))
	}
	assertDims(t, res.Dest, 64, 48)

	after, err := metadata.Inspect(res.Dest)
	if err != nil {
		t.Fatalf("inspect output: %v", err)
	}
	if after.Has(metadata.BlockEXIF) || after.Has(metadata.BlockICC) {
		t.Fatalf("output still carries metadata: %v", after)
	}
	if len(res.Removed) == 0 {
		t.Error("expected removed metadata to be reported")
	}
	if len(comp.Calls()) != 0 {
		t.Errorf("compressor ran for a JPEG: %v", comp.Calls())
	}

	fi, _ := os.Stat(res.Dest)
	if res.NewSize != fi.Size() || res.OriginalSize != src.Size {
		t.Errorf("sizes = %d→%d, want %d→%d", res.OriginalSize, res.NewSize, src.Size, fi.Size())
	}
}

func TestOptimize_PNGRunsCompressor(t *testing.T) {
	dir := t.TempDir()
	src := writePNG(t, filepath.Join(dir, "in", "logo.png"), 16, 16, 2)
	cfg := testConfig()
	cfg.DestDir = filepath.Join(dir, "out", "nested")

	p, comp := newTestPipeline()
	res := p.Optimize(context.Background(), src, cfg)
	if res.Outcome != OutcomeSuccess {
		t.Fatalf("outcome = %v (%s)", res.Outcome, res.Reason)
	}
	if filepath.Dir(res.Dest) != cfg.DestDir {
		t.Fatalf("output in %s, want %s", filepath.Dir(res.Dest), cfg.DestDir)
	}
	if calls := comp.Calls(); len(calls) != 1 || calls[0] != res.Dest {
		t.Fatalf("compressor calls = %v, want [%s]", calls, res.Dest)
	}
	if !res.Compressed {
		t.Error("Compressed should reflect the compressor's answer")
	}

	after, err := metadata.Inspect(res.Dest)
	if err != nil {
		t.Fatalf("inspect output: %v", err)
	}
	if !after.Empty() {
		t.Fatalf("output still carries metadata: %v", after)
	}
	assertDims(t, res.Dest, 16, 16)
}

func TestOptimize_MissingCompressorStillSucceeds(t *testing.T) {
	dir := t.TempDir()
	src := writePNG(t, filepath.Join(dir, "a.png"), 8, 8, 3)

	p := NewPipeline(newTestCodec(), Oxipng{Binary: "imgopt-no-such-oxipng"}, nil)
	res := p.Optimize(context.Background(), src, testConfig())
	if res.Outcome != OutcomeSuccess {
		t.Fatalf("outcome = %v (%s)", res.Outcome, res.Reason)
	}
	if res.Compressed {
		t.Fatal("Compressed reported without a compressor binary")
	}
}

func TestOptimize_PNGToWebP(t *testing.T) {
	dir := t.TempDir()
	src := writePNG(t, filepath.Join(dir, "icon.png"), 32, 32, 4)
	original, err := os.ReadFile(src.Path)
	if err != nil {
		t.Fatalf("read source: %v", err)
	}

	cfg := Config{Quality: 70, ConvertPNGToWebP: true}
	p, comp := newTestPipeline()
	res := p.Optimize(context.Background(), src, cfg)
	if res.Outcome != OutcomeSuccess {
		t.Fatalf("outcome = %v (%s)", res.Outcome, res.Reason)
	}

	if !regexp.MustCompile(`^icon-32x32-[0-9a-f]{8}\.webp$`).MatchString(filepath.Base(res.Dest)) {
		t.Fatalf("unexpected destination name %s", filepath.Base(res.Dest))
	}
	assertDims(t, res.Dest, 32, 32)

	now, err := os.ReadFile(src.Path)
	if err != nil || !bytes.Equal(now, original) {
		t.Fatal("source PNG was modified")
	}
	if calls := comp.Calls(); len(calls) != 0 {
		t.Fatalf("compressor ran for a converted file: %v", calls)
	}
}

func TestOptimize_ConversionKeepsDigest(t *testing.T) {
	dir := t.TempDir()
	src := writePNG(t, filepath.Join(dir, "icon.png"), 24, 24, 5)
	p, _ := newTestPipeline()

	asPNG := p.Optimize(context.Background(), src, Config{Quality: 70, DestDir: filepath.Join(dir, "png")})
	asWebP := p.Optimize(context.Background(), src, Config{Quality: 70, ConvertPNGToWebP: true, DestDir: filepath.Join(dir, "webp")})

	stem := func(p string) string { return strings.TrimSuffix(filepath.Base(p), filepath.Ext(p)) }
	if stem(asPNG.Dest) != stem(asWebP.Dest) {
		t.Fatalf("stems differ: %s vs %s", stem(asPNG.Dest), stem(asWebP.Dest))
	}
}

func TestOptimize_DeterministicNames(t *testing.T) {
	dir := t.TempDir()
	a := writeJPEG(t, filepath.Join(dir, "a", "shot.jpg"), 40, 30, 6)
	data, err := os.ReadFile(a.Path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	bPath := filepath.Join(dir, "b", "shot.jpg")
	if err := os.MkdirAll(filepath.Dir(bPath), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(bPath, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	first, _ := newTestPipeline()
	second, _ := newTestPipeline()
	r1 := first.Optimize(context.Background(), a, testConfig())
	r2 := second.Optimize(context.Background(), sourceFor(t, bPath), testConfig())
	if filepath.Base(r1.Dest) != filepath.Base(r2.Dest) {
		t.Fatalf("names differ: %s vs %s", filepath.Base(r1.Dest), filepath.Base(r2.Dest))
	}
}

func TestOptimize_CollisionAppendsDupOnce(t *testing.T) {
	dir := t.TempDir()
	src := writeJPEG(t, filepath.Join(dir, "photo.jpg"), 20, 20, 7)
	cfg := testConfig()
	cfg.DestDir = filepath.Join(dir, "out")

	p, _ := newTestPipeline()
	first := p.Optimize(context.Background(), src, cfg)
	if first.Outcome != OutcomeSuccess {
		t.Fatalf("first outcome = %v (%s)", first.Outcome, first.Reason)
	}

	// A fresh pipeline only sees the existing file on disk.
	p2, _ := newTestPipeline()
	second := p2.Optimize(context.Background(), src, cfg)
	if second.Outcome != OutcomeSuccess {
		t.Fatalf("second outcome = %v (%s)", second.Outcome, second.Reason)
	}

	base := strings.TrimSuffix(filepath.Base(first.Dest), ".jpg")
	if filepath.Base(second.Dest) != base+"-dup.jpg" {
		t.Fatalf("collision produced %s, want %s", filepath.Base(second.Dest), base+"-dup.jpg")
	}

	third := p2.Optimize(context.Background(), src, cfg)
	if filepath.Base(third.Dest) != base+"-dup2.jpg" {
		t.Fatalf("second collision produced %s, want %s", filepath.Base(third.Dest), base+"-dup2.jpg")
	}
}

func TestOptimize_UnreadableIsSkipped(t *testing.T) {
	dir := t.TempDir()
	src := writeGarbage(t, filepath.Join(dir, "broken.png"))

	p, comp := newTestPipeline()
	res := p.Optimize(context.Background(), src, testConfig())
	if res.Outcome != OutcomeSkippedUnreadable {
		t.Fatalf("outcome = %v, want skipped-unreadable", res.Outcome)
	}
	if res.Reason != ReasonUnreadable || res.Dest != "" {
		t.Fatalf("result = %#v", res)
	}
	if len(comp.Calls()) != 0 {
		t.Fatal("compressor ran for an unreadable file")
	}
}

func TestOptimize_WriteFailureIsFailed(t *testing.T) {
	dir := t.TempDir()
	src := writeJPEG(t, filepath.Join(dir, "photo.jpg"), 8, 8, 8)
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("file, not dir"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg := testConfig()
	cfg.DestDir = filepath.Join(blocker, "out")

	p, _ := newTestPipeline()
	res := p.Optimize(context.Background(), src, cfg)
	if res.Outcome != OutcomeFailed {
		t.Fatalf("outcome = %v, want failed", res.Outcome)
	}
	if res.Reason == "" {
		t.Fatal("failed result carries no reason")
	}
}

func TestOptimize_MissingSourceIsFailed(t *testing.T) {
	p, _ := newTestPipeline()
	res := p.Optimize(context.Background(), SourceFile{Path: filepath.Join(t.TempDir(), "gone.jpg"), Ext: ".jpg"}, testConfig())
	if res.Outcome != OutcomeFailed {
		t.Fatalf("outcome = %v, want failed", res.Outcome)
	}
}

func TestOptimize_NoTempFilesLeftBehind(t *testing.T) {
	dir := t.TempDir()
	src := writeJPEG(t, filepath.Join(dir, "photo.jpg"), 8, 8, 9)
	p, _ := newTestPipeline()
	p.Optimize(context.Background(), src, testConfig())

	matches, _ := filepath.Glob(filepath.Join(dir, "imgopt-*.tmp"))
	if len(matches) != 0 {
		t.Fatalf("temp files left: %v", matches)
	}
}
