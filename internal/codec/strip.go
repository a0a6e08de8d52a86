package codec

import (
	"image"
	"image/color"
	"slices"

	"github.com/disintegration/imaging"
)

// clonePixels copies the pixel buffers of img into a fresh image of the same
// concrete type. Decoded images in Go never hold auxiliary metadata, but the
// copy guarantees nothing from the decoder's state survives. Unknown image
// types fall back to an NRGBA copy.
func clonePixels(img image.Image) image.Image {
	switch src := img.(type) {
	case *image.NRGBA:
		c := *src
		c.Pix = slices.Clone(src.Pix)
		return &c
	case *image.RGBA:
		c := *src
		c.Pix = slices.Clone(src.Pix)
		return &c
	case *image.NRGBA64:
		c := *src
		c.Pix = slices.Clone(src.Pix)
		return &c
	case *image.RGBA64:
		c := *src
		c.Pix = slices.Clone(src.Pix)
		return &c
	case *image.Gray:
		c := *src
		c.Pix = slices.Clone(src.Pix)
		return &c
	case *image.Gray16:
		c := *src
		c.Pix = slices.Clone(src.Pix)
		return &c
	case *image.CMYK:
		c := *src
		c.Pix = slices.Clone(src.Pix)
		return &c
	case *image.Paletted:
		c := *src
		c.Pix = slices.Clone(src.Pix)
		c.Palette = append(color.Palette(nil), src.Palette...)
		return &c
	case *image.NYCbCrA:
		c := *src
		c.Y = slices.Clone(src.Y)
		c.Cb = slices.Clone(src.Cb)
		c.Cr = slices.Clone(src.Cr)
		c.A = slices.Clone(src.A)
		return &c
	case *image.YCbCr:
		c := *src
		c.Y = slices.Clone(src.Y)
		c.Cb = slices.Clone(src.Cb)
		c.Cr = slices.Clone(src.Cr)
		return &c
	default:
		return imaging.Clone(img)
	}
}
