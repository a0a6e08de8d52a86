package metadata

import (
	"strings"

	exif "github.com/dsoprea/go-exif/v3"
)

const (
	FindingGPS       = "GPS"
	FindingDevice    = "Device Model"
	FindingTimestamp = "Timestamp"
	FindingSerial    = "Serial Number"
)

// exifBlock parses a raw TIFF-structured EXIF payload. A payload go-exif
// cannot parse is still reported as an EXIF block, just without tag detail.
func exifBlock(tiff []byte) Block {
	b := Block{Kind: BlockEXIF, Size: len(tiff)}

	tags, _, err := exif.GetFlatExifData(tiff, nil)
	if err != nil {
		return b
	}

	b.Tags = len(tags)
	var findings []string
	values := make(map[string]string, len(tags))
	for _, tag := range tags {
		name := tag.TagName
		if _, ok := values[name]; !ok {
			values[name] = tag.Formatted
		}
		switch {
		case strings.HasPrefix(name, "GPS") || strings.Contains(tag.IfdPath, "GPS"):
			findings = append(findings, FindingGPS)
		case name == "Make" || name == "Model" || name == "CameraModelName":
			findings = append(findings, FindingDevice)
		case name == "DateTimeOriginal" || name == "DateTimeDigitized" || name == "DateTime":
			findings = append(findings, FindingTimestamp)
		case strings.Contains(strings.ToLower(name), "serial"):
			findings = append(findings, FindingSerial)
		}
	}
	b.Findings = mergeFindings(nil, findings)
	b.Notes = exifNotes(values)
	return b
}
