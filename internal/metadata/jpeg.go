package metadata

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

var (
	jpegExifHeader = []byte("Exif\x00\x00")
	jpegXmpHeader  = []byte("http://ns.adobe.com/xap/1.0/\x00")
	jpegPhotoshop  = []byte("Photoshop 3.0\x00")
	jpegICCHeader  = []byte("ICC_PROFILE\x00")
)

const (
	markerSOS   = 0xda
	markerEOI   = 0xd9
	markerAPP1  = 0xe1
	markerAPP2  = 0xe2
	markerAPP13 = 0xed
	markerCOM   = 0xfe
)

// inspectJPEG walks the marker segments up to the start of scan and records
// the APPn and comment segments that carry metadata.
func inspectJPEG(r io.Reader, report *Report) error {
	br := bufio.NewReader(r)

	soi := make([]byte, 2)
	if _, err := io.ReadFull(br, soi); err != nil {
		return err
	}
	if soi[0] != 0xff || soi[1] != 0xd8 {
		return fmt.Errorf("invalid JPEG SOI")
	}

	for {
		prefix, err := br.ReadByte()
		if err != nil {
			return err
		}
		for prefix != 0xff {
			prefix, err = br.ReadByte()
			if err != nil {
				return err
			}
		}

		marker, err := br.ReadByte()
		if err != nil {
			return err
		}
		for marker == 0xff {
			marker, err = br.ReadByte()
			if err != nil {
				return err
			}
		}

		if marker == markerEOI || marker == markerSOS {
			return nil
		}
		if marker == 0x01 || (marker >= 0xd0 && marker <= 0xd7) {
			continue
		}

		lenBuf := make([]byte, 2)
		if _, err := io.ReadFull(br, lenBuf); err != nil {
			return err
		}
		segLen := int(binary.BigEndian.Uint16(lenBuf))
		if segLen < 2 {
			return fmt.Errorf("invalid JPEG segment length")
		}
		payloadLen := segLen - 2

		switch marker {
		case markerAPP1, markerAPP2, markerAPP13, markerCOM:
			payload, err := readPayload(br, int64(payloadLen))
			if err != nil {
				return err
			}
			if b, ok := classifyJPEGSegment(marker, payload); ok {
				report.add(b)
			}
		default:
			if _, err := io.CopyN(io.Discard, br, int64(payloadLen)); err != nil {
				return err
			}
		}
	}
}

func classifyJPEGSegment(marker byte, payload []byte) (Block, bool) {
	switch marker {
	case markerAPP1:
		if bytes.HasPrefix(payload, jpegExifHeader) {
			return exifBlock(payload[len(jpegExifHeader):]), true
		}
		if bytes.HasPrefix(payload, jpegXmpHeader) {
			return Block{Kind: BlockXMP, Size: len(payload)}, true
		}
	case markerAPP2:
		if bytes.HasPrefix(payload, jpegICCHeader) {
			return Block{Kind: BlockICC, Size: len(payload)}, true
		}
	case markerAPP13:
		if bytes.HasPrefix(payload, jpegPhotoshop) {
			return Block{Kind: BlockIPTC, Size: len(payload)}, true
		}
	case markerCOM:
		return Block{Kind: BlockText, Size: len(payload)}, true
	}
	return Block{}, false
}
