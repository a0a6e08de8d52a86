// Package libvips is the libvips-backed codec engine. Unlike the native
// engine it writes progressive JPEG and lossy WebP, and strips metadata in
// the encoder as well as on the decoded frame.
package libvips

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/davidbyttow/govips/v2/vips"
	"go.uber.org/zap"

	"imgopt/internal/codec"
)

const webpReductionEffort = 6

// ErrNotVipsFrame is returned when a frame from another engine is passed in.
var ErrNotVipsFrame = errors.New("frame was not produced by the vips codec")

var (
	startOnce sync.Once
	stopOnce  sync.Once
)

type Codec struct {
	log *zap.Logger
}

// New starts libvips once per process and routes its log output to log.
func New(log *zap.Logger) *Codec {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("vips")

	startOnce.Do(func() {
		vips.LoggingSettings(func(domain string, level vips.LogLevel, msg string) {
			switch level {
			case vips.LogLevelError, vips.LogLevelCritical:
				log.Error(msg, zap.String("domain", domain))
			case vips.LogLevelWarning:
				log.Warn(msg, zap.String("domain", domain))
			default:
				log.Debug(msg, zap.String("domain", domain))
			}
		}, vips.LogLevelWarning)

		vips.Startup(&vips.Config{
			ConcurrencyLevel: 1,
			MaxCacheMem:      50 * 1024 * 1024,
			MaxCacheSize:     100,
		})
		log.Debug("libvips started", zap.String("version", vips.Version))
	})

	return &Codec{log: log}
}

// Close shuts libvips down. The engine cannot be restarted in the same
// process afterwards.
func (c *Codec) Close() {
	stopOnce.Do(vips.Shutdown)
}

func (*Codec) Name() string { return "vips" }

func (c *Codec) Decode(path string) (codec.Frame, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	ref, err := vips.LoadImageFromFile(path, vips.NewImportParams())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", codec.ErrUnreadable, err)
	}
	return &frame{ref: ref}, nil
}

func (c *Codec) Strip(f codec.Frame) (codec.Frame, error) {
	src, ok := f.(*frame)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrNotVipsFrame, f)
	}

	ref, err := src.ref.Copy()
	if err != nil {
		return nil, err
	}
	if err := ref.RemoveMetadata(); err != nil {
		ref.Close()
		return nil, err
	}
	return &frame{ref: ref}, nil
}

func (c *Codec) Encode(w io.Writer, f codec.Frame, params codec.Params) error {
	src, ok := f.(*frame)
	if !ok {
		return fmt.Errorf("%w: %T", ErrNotVipsFrame, f)
	}

	var (
		buf []byte
		err error
	)
	switch p := params.(type) {
	case codec.JPEGParams:
		buf, _, err = src.ref.ExportJpeg(&vips.JpegExportParams{
			StripMetadata:  true,
			Quality:        p.Quality,
			Interlace:      p.Progressive,
			OptimizeCoding: p.Optimize,
		})
	case codec.PNGParams:
		buf, _, err = src.ref.ExportPng(&vips.PngExportParams{
			StripMetadata: true,
			Compression:   p.CompressionLevel,
		})
	case codec.WebPParams:
		buf, _, err = src.ref.ExportWebp(&vips.WebpExportParams{
			StripMetadata:   true,
			Quality:         p.Quality,
			Lossless:        p.Lossless,
			ReductionEffort: webpReductionEffort,
		})
	default:
		return fmt.Errorf("unsupported encode parameters %T", params)
	}
	if err != nil {
		return err
	}

	_, err = w.Write(buf)
	return err
}

type frame struct {
	ref *vips.ImageRef

	pixOnce sync.Once
	pix     []byte
	pixErr  error
}

func (f *frame) Width() int  { return f.ref.Width() }
func (f *frame) Height() int { return f.ref.Height() }
func (f *frame) Close()      { f.ref.Close() }

// Pix returns the raw band-interleaved pixel memory of the image. A failed
// read yields an empty buffer, which still hashes deterministically.
func (f *frame) Pix() []byte {
	f.pixOnce.Do(func() {
		f.pix, f.pixErr = f.ref.ToBytes()
		if f.pixErr != nil {
			f.pix = nil
		}
	})
	return f.pix
}
