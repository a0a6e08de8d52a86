package codec

import (
	"bytes"
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/webp"

	"imgopt/internal/fixture"
)

func TestNativeDecodeStripKeepsPixels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.png")
	if err := fixture.WritePNG(path, fixture.Gradient(20, 10, 4)); err != nil {
		t.Fatalf("build PNG: %v", err)
	}

	c := NewNative()
	decoded, err := c.Decode(path)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	stripped, err := c.Strip(decoded)
	if err != nil {
		t.Fatalf("Strip: %v", err)
	}

	if stripped.Width() != 20 || stripped.Height() != 10 {
		t.Fatalf("dimensions = %dx%d, want 20x10", stripped.Width(), stripped.Height())
	}
	if !bytes.Equal(decoded.Pix(), stripped.Pix()) {
		t.Fatal("stripped pixels differ from decoded pixels")
	}
	if &decoded.Pix()[0] == &stripped.Pix()[0] {
		t.Fatal("stripped frame shares the decoded pixel buffer")
	}
}

func TestNativeDecodeUnreadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.png")
	if err := os.WriteFile(path, []byte{0xde, 0xad, 0xbe, 0xef}, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err := NewNative().Decode(path)
	if !errors.Is(err, ErrUnreadable) {
		t.Fatalf("expected ErrUnreadable, got %v", err)
	}
}

func TestNativeDecodeMissingFileIsNotUnreadable(t *testing.T) {
	_, err := NewNative().Decode(filepath.Join(t.TempDir(), "missing.jpg"))
	if err == nil || errors.Is(err, ErrUnreadable) {
		t.Fatalf("expected a plain IO error, got %v", err)
	}
}

func TestNativeEncodeRoundTrip(t *testing.T) {
	src := NewFrame(fixture.Gradient(12, 9, 5))
	c := NewNative()

	cases := []struct {
		params Params
		decode func([]byte) (image.Image, error)
	}{
		{JPEGParams{Quality: 80, Progressive: true, Optimize: true}, decodeAny},
		{PNGParams{CompressionLevel: MaxPNGCompression, Optimize: true}, decodeAny},
		{WebPParams{Quality: 70}, func(b []byte) (image.Image, error) { return webp.Decode(bytes.NewReader(b)) }},
	}
	for _, tc := range cases {
		t.Run(tc.params.Format(), func(t *testing.T) {
			var buf bytes.Buffer
			if err := c.Encode(&buf, src, tc.params); err != nil {
				t.Fatalf("Encode: %v", err)
			}
			img, err := tc.decode(buf.Bytes())
			if err != nil {
				t.Fatalf("decode output: %v", err)
			}
			if b := img.Bounds(); b.Dx() != 12 || b.Dy() != 9 {
				t.Errorf("output dimensions = %dx%d, want 12x9", b.Dx(), b.Dy())
			}
		})
	}
}

func TestNativeWebPQualityChangesOutput(t *testing.T) {
	src := NewFrame(fixture.Gradient(64, 64, 9))
	c := NewNative()

	encode := func(p WebPParams) []byte {
		t.Helper()
		var buf bytes.Buffer
		if err := c.Encode(&buf, src, p); err != nil {
			t.Fatalf("Encode %+v: %v", p, err)
		}
		return buf.Bytes()
	}

	low := encode(WebPParams{Quality: 40})
	high := encode(WebPParams{Quality: 100})
	lossless := encode(WebPParams{Quality: 100, Lossless: true})

	if bytes.Equal(low, high) {
		t.Fatal("quality 40 and 100 produced identical WebP output")
	}
	if len(low) >= len(high) {
		t.Errorf("quality 40 output is %d bytes, quality 100 is %d", len(low), len(high))
	}
	if !bytes.Contains(low[:16], []byte("VP8 ")) {
		t.Errorf("lossy output is not VP8: % x", low[:16])
	}
	if !bytes.Contains(lossless[:16], []byte("VP8L")) {
		t.Errorf("lossless output is not VP8L: % x", lossless[:16])
	}
}

func TestNativeJPEGProgressive(t *testing.T) {
	src := NewFrame(fixture.Gradient(32, 32, 3))
	c := NewNative()

	var progressive, baseline bytes.Buffer
	if err := c.Encode(&progressive, src, JPEGParams{Quality: 80, Progressive: true}); err != nil {
		t.Fatalf("Encode progressive: %v", err)
	}
	if err := c.Encode(&baseline, src, JPEGParams{Quality: 80}); err != nil {
		t.Fatalf("Encode baseline: %v", err)
	}

	sof2 := []byte{0xFF, 0xC2}
	if !bytes.Contains(progressive.Bytes(), sof2) {
		t.Error("progressive output has no SOF2 marker")
	}
	if bytes.Contains(baseline.Bytes(), sof2) {
		t.Error("baseline output has a SOF2 marker")
	}
}

func TestClonePixelsYCbCr(t *testing.T) {
	src := image.NewYCbCr(image.Rect(0, 0, 4, 4), image.YCbCrSubsampleRatio420)
	for i := range src.Y {
		src.Y[i] = uint8(i)
	}
	clone, ok := clonePixels(src).(*image.YCbCr)
	if !ok {
		t.Fatalf("clone changed color model")
	}
	clone.Y[0] = 99
	if src.Y[0] == 99 {
		t.Fatal("clone aliases source planes")
	}
}

func decodeAny(b []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(b))
	return img, err
}
