// Package fixture builds small, real image files with embedded metadata for
// tests.
package fixture

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
)

// Gradient returns a deterministic w×h NRGBA image with varied pixels.
func Gradient(w, h int, seed uint8) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x*7) + seed,
				G: uint8(y*13) ^ seed,
				B: uint8(x*y) + seed*3,
				A: 0xff,
			})
		}
	}
	return img
}

// JPEG encodes img as a baseline JPEG and splices an EXIF APP1 and an ICC
// APP2 segment in right after SOI.
func JPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	data := buf.Bytes()
	if len(data) < 2 || data[0] != 0xff || data[1] != 0xd8 {
		return nil, errors.New("encoder produced no SOI")
	}

	exif := append([]byte("Exif\x00\x00"), ExifTIFF()...)
	icc := append([]byte("ICC_PROFILE\x00\x01\x01"), bytes.Repeat([]byte{0x42}, 64)...)

	var out bytes.Buffer
	out.Write(data[:2])
	writeSegment(&out, 0xe1, exif)
	writeSegment(&out, 0xe2, icc)
	out.Write(data[2:])
	return out.Bytes(), nil
}

// PNG encodes img and inserts tEXt, tIME, eXIf and iCCP chunks before IEND.
func PNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	data := buf.Bytes()
	if len(data) < 12 || string(data[len(data)-8:len(data)-4]) != "IEND" {
		return nil, os.ErrInvalid
	}

	insertAt := len(data) - 12
	out := append([]byte{}, data[:insertAt]...)
	out = append(out, Chunk("tEXt", []byte("Model\x00TestCam"))...)
	out = append(out, Chunk("tIME", []byte{0x07, 0xE8, 0x01, 0x02, 0x03, 0x04, 0x05})...)
	out = append(out, Chunk("eXIf", ExifTIFF())...)
	out = append(out, Chunk("iCCP", append([]byte("sRGB\x00\x00"), bytes.Repeat([]byte{0x78}, 16)...))...)
	out = append(out, data[insertAt:]...)
	return out, nil
}

// WriteJPEG writes the output of JPEG to path.
func WriteJPEG(path string, img image.Image, quality int) error {
	data, err := JPEG(img, quality)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// WritePNG writes the output of PNG to path.
func WritePNG(path string, img image.Image) error {
	data, err := PNG(img)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ExifTIFF returns a little-endian TIFF structure with a Model and a
// DateTime tag in IFD0.
func ExifTIFF() []byte {
	var tiff bytes.Buffer
	tiff.Write([]byte{0x49, 0x49, 0x2a, 0x00})
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(8))
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(2))
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(0x0110))
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(2))
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(8))
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(38))
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(0x0132))
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(2))
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(20))
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(46))
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(0))
	tiff.Write([]byte("TestCam\x00"))
	tiff.Write([]byte("2024:01:02 03:04:05\x00"))
	return tiff.Bytes()
}

// Chunk frames data as a PNG chunk with a valid CRC.
func Chunk(chunkType string, data []byte) []byte {
	chunkTypeBytes := []byte(chunkType)
	lenBuf := make([]byte, 4)
	binary.BigEndian.PutUint32(lenBuf, uint32(len(data)))
	crc := crc32.ChecksumIEEE(append(append([]byte{}, chunkTypeBytes...), data...))
	crcBuf := make([]byte, 4)
	binary.BigEndian.PutUint32(crcBuf, crc)

	chunk := make([]byte, 0, 12+len(data))
	chunk = append(chunk, lenBuf...)
	chunk = append(chunk, chunkTypeBytes...)
	chunk = append(chunk, data...)
	chunk = append(chunk, crcBuf...)
	return chunk
}

func writeSegment(buf *bytes.Buffer, marker byte, payload []byte) {
	buf.Write([]byte{0xff, marker})
	_ = binary.Write(buf, binary.BigEndian, uint16(len(payload)+2))
	buf.Write(payload)
}
