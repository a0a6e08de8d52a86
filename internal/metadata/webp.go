package metadata

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

// inspectWebP walks the RIFF chunks of a WebP container. Chunk payloads are
// padded to an even length.
func inspectWebP(r io.Reader, report *Report) error {
	br := bufio.NewReader(r)

	header := make([]byte, 12)
	if _, err := io.ReadFull(br, header); err != nil {
		return err
	}
	if string(header[:4]) != "RIFF" || string(header[8:12]) != "WEBP" {
		return errors.New("invalid WebP header")
	}

	for {
		chunkHeader := make([]byte, 8)
		if _, err := io.ReadFull(br, chunkHeader); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		fourCC := string(chunkHeader[:4])
		size := int64(binary.LittleEndian.Uint32(chunkHeader[4:]))
		padded := size + size&1

		switch fourCC {
		case "EXIF":
			data, err := readPayload(br, size)
			if err != nil {
				return err
			}
			if _, err := io.CopyN(io.Discard, br, padded-size); err != nil {
				return err
			}
			report.add(exifBlock(bytes.TrimPrefix(data, jpegExifHeader)))
		case "XMP ", "ICCP":
			kind := BlockXMP
			if fourCC == "ICCP" {
				kind = BlockICC
			}
			report.add(Block{Kind: kind, Size: int(size)})
			if _, err := io.CopyN(io.Discard, br, padded); err != nil {
				return err
			}
		default:
			if _, err := io.CopyN(io.Discard, br, padded); err != nil {
				return err
			}
		}
	}
}
