// Package codec decodes images into metadata-free pixel frames and encodes
// them with format-specific parameters. The pipeline only talks to the Codec
// interface; the native engine is pure Go and the libvips engine lives in
// the libvips subpackage.
package codec

import (
	"errors"
	"io"
)

// ErrUnreadable marks content that could not be decoded as an image even
// though the file itself could be read.
var ErrUnreadable = errors.New("unreadable image")

// Frame is a decoded image.
type Frame interface {
	Width() int
	Height() int
	// Pix returns the raw decoded pixel buffer in the frame's own color
	// layout. Callers must not modify it.
	Pix() []byte
	Close()
}

type Codec interface {
	Name() string
	// Decode returns an error wrapping ErrUnreadable when the content is
	// not a decodable image.
	Decode(path string) (Frame, error)
	// Strip returns a pixel-identical frame that carries only dimensions,
	// color layout and pixel data.
	Strip(f Frame) (Frame, error)
	Encode(w io.Writer, f Frame, params Params) error
}

// Params is the closed set of per-format encode parameters: JPEGParams,
// PNGParams and WebPParams.
type Params interface {
	Format() string
	params()
}

type JPEGParams struct {
	Quality     int
	Progressive bool
	Optimize    bool
}

// MaxPNGCompression is the highest zlib level a PNG encoder accepts.
const MaxPNGCompression = 9

type PNGParams struct {
	CompressionLevel int
	Optimize         bool
}

type WebPParams struct {
	Quality  int
	Lossless bool
	Optimize bool
}

func (JPEGParams) Format() string { return "jpeg" }
func (PNGParams) Format() string  { return "png" }
func (WebPParams) Format() string { return "webp" }

func (JPEGParams) params() {}
func (PNGParams) params()  {}
func (WebPParams) params() {}
