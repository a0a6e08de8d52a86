package codec

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/jpegli"
	"github.com/gen2brain/webp"
	_ "golang.org/x/image/webp" // WebP decoding
)

// Native is the cgo-free engine. It decodes through the image package
// registry and encodes baseline JPEG and PNG with imaging. Progressive JPEG
// goes through jpegli and WebP through libwebp, both embedded as WASM.
type Native struct{}

func NewNative() *Native {
	return &Native{}
}

func (*Native) Name() string { return "native" }

func (*Native) Decode(path string) (Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, err := imaging.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	return &imageFrame{img: img}, nil
}

func (*Native) Strip(f Frame) (Frame, error) {
	src, ok := f.(*imageFrame)
	if !ok {
		return nil, fmt.Errorf("native codec cannot strip %T", f)
	}
	return &imageFrame{img: clonePixels(src.img)}, nil
}

func (*Native) Encode(w io.Writer, f Frame, params Params) error {
	src, ok := f.(*imageFrame)
	if !ok {
		return fmt.Errorf("native codec cannot encode %T", f)
	}

	switch p := params.(type) {
	case JPEGParams:
		if p.Progressive {
			return jpegli.Encode(w, src.img, &jpegli.EncodingOptions{
				Quality:          p.Quality,
				ProgressiveLevel: progressiveLevel,
				OptimizeCoding:   p.Optimize,
			})
		}
		return imaging.Encode(w, src.img, imaging.JPEG, imaging.JPEGQuality(p.Quality))
	case PNGParams:
		return imaging.Encode(w, src.img, imaging.PNG, imaging.PNGCompressionLevel(pngLevel(p.CompressionLevel)))
	case WebPParams:
		return webp.Encode(w, src.img, webp.Options{
			Quality:  p.Quality,
			Lossless: p.Lossless,
			Method:   webpMethod(p.Optimize),
		})
	default:
		return fmt.Errorf("unsupported encode parameters %T", params)
	}
}

const progressiveLevel = 2

// webpMethod maps Optimize onto libwebp's speed/size trade-off (0 fastest, 6 smallest).
func webpMethod(optimize bool) int {
	if optimize {
		return 6
	}
	return 4
}

func pngLevel(level int) png.CompressionLevel {
	if level >= MaxPNGCompression {
		return png.BestCompression
	}
	if level <= 0 {
		return png.NoCompression
	}
	return png.DefaultCompression
}

type imageFrame struct {
	img image.Image
}

// NewFrame wraps an in-memory image so it can be handed to a Codec.
func NewFrame(img image.Image) Frame {
	return &imageFrame{img: img}
}

// Image returns the underlying image of a frame produced by the native
// engine, or nil for other engines.
func Image(f Frame) image.Image {
	if nf, ok := f.(*imageFrame); ok {
		return nf.img
	}
	return nil
}

func (f *imageFrame) Width() int  { return f.img.Bounds().Dx() }
func (f *imageFrame) Height() int { return f.img.Bounds().Dy() }
func (f *imageFrame) Close()      {}

func (f *imageFrame) Pix() []byte {
	switch img := f.img.(type) {
	case *image.NRGBA:
		return img.Pix
	case *image.RGBA:
		return img.Pix
	case *image.NRGBA64:
		return img.Pix
	case *image.RGBA64:
		return img.Pix
	case *image.Gray:
		return img.Pix
	case *image.Gray16:
		return img.Pix
	case *image.CMYK:
		return img.Pix
	case *image.Paletted:
		return img.Pix
	case *image.NYCbCrA:
		return planes(img.Y, img.Cb, img.Cr, img.A)
	case *image.YCbCr:
		return planes(img.Y, img.Cb, img.Cr)
	default:
		return imaging.Clone(img).Pix
	}
}

func planes(ps ...[]byte) []byte {
	n := 0
	for _, p := range ps {
		n += len(p)
	}
	out := make([]byte, 0, n)
	for _, p := range ps {
		out = append(out, p...)
	}
	return out
}
