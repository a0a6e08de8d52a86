package metadata

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"imgopt/pkg/imgutil"
)

// Inspect opens path, detects its format from content and lists the
// metadata blocks it carries.
func Inspect(path string) (Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return Report{}, err
	}
	defer f.Close()

	return InspectReader(f)
}

// InspectReader is Inspect over an already opened file.
func InspectReader(rs io.ReadSeeker) (Report, error) {
	kind, err := imgutil.SniffReader(rs)
	if err != nil {
		return Report{}, err
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return Report{}, err
	}

	report := Report{Format: kind}
	switch kind {
	case imgutil.KindJPEG:
		err = inspectJPEG(rs, &report)
	case imgutil.KindPNG:
		err = inspectPNG(rs, &report)
	case imgutil.KindWebP:
		err = inspectWebP(rs, &report)
	default:
		return report, fmt.Errorf("unsupported image format")
	}
	return report, err
}

// maxPayload bounds the metadata payloads read into memory. Larger blocks
// are rejected rather than trusted.
const maxPayload = 16 << 20

var errPayloadTooLarge = errors.New("metadata block too large")

// readPayload reads exactly n bytes. Memory grows with the bytes actually
// present, so a declared length past the end of the file costs nothing.
func readPayload(r io.Reader, n int64) ([]byte, error) {
	if n > maxPayload {
		return nil, fmt.Errorf("%w: %d bytes", errPayloadTooLarge, n)
	}
	var buf bytes.Buffer
	if _, err := io.CopyN(&buf, r, n); err != nil {
		if err == io.EOF {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return buf.Bytes(), nil
}
