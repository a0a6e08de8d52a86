package metadata

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

var pngSignature = []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a}

const pngXMPKeyword = "XML:com.adobe.xmp"

func inspectPNG(r io.Reader, report *Report) error {
	br := bufio.NewReader(r)

	sig := make([]byte, 8)
	if _, err := io.ReadFull(br, sig); err != nil {
		return err
	}
	if !bytes.Equal(sig, pngSignature) {
		return errors.New("invalid PNG signature")
	}

	for {
		lenBuf := make([]byte, 4)
		if _, err := io.ReadFull(br, lenBuf); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		length := binary.BigEndian.Uint32(lenBuf)

		chunkType := make([]byte, 4)
		if _, err := io.ReadFull(br, chunkType); err != nil {
			return err
		}
		chunkName := string(chunkType)

		switch chunkName {
		case "tEXt", "zTXt", "iTXt", "eXIf":
			data, err := readPayload(br, int64(length))
			if err != nil {
				return err
			}
			if _, err := io.CopyN(io.Discard, br, 4); err != nil {
				return err
			}
			report.add(classifyPNGChunk(chunkName, data))
		case "iCCP", "tIME":
			kind := BlockICC
			if chunkName == "tIME" {
				kind = BlockTimestamp
			}
			report.add(Block{Kind: kind, Size: int(length)})
			if _, err := io.CopyN(io.Discard, br, int64(length)+4); err != nil {
				return err
			}
		default:
			if _, err := io.CopyN(io.Discard, br, int64(length)+4); err != nil {
				return err
			}
		}

		if chunkName == "IEND" {
			return nil
		}
	}
}

func classifyPNGChunk(chunkName string, data []byte) Block {
	if chunkName == "eXIf" {
		return exifBlock(data)
	}
	if chunkName == "iTXt" && textKeyword(data) == pngXMPKeyword {
		return Block{Kind: BlockXMP, Size: len(data)}
	}
	return Block{Kind: BlockText, Size: len(data)}
}

func textKeyword(data []byte) string {
	idx := bytes.IndexByte(data, 0)
	if idx <= 0 {
		return ""
	}
	return string(data[:idx])
}
