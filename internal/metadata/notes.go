package metadata

import (
	"fmt"
	"strconv"
	"strings"
)

// exifNotes turns EXIF tag values, keyed by tag name, into disclosures.
func exifNotes(values map[string]string) []string {
	var notes []string
	if device := deviceNote(values); device != "" {
		notes = append(notes, device)
	}
	if captured := captureNote(values); captured != "" {
		notes = append(notes, captured)
	}
	if location := locationNote(values); location != "" {
		notes = append(notes, location)
	}
	return notes
}

func deviceNote(values map[string]string) string {
	device := strings.TrimSpace(values["Make"] + " " + values["Model"])
	if device == "" {
		device = strings.TrimSpace(values["CameraModelName"])
	}
	if device == "" {
		return ""
	}
	if kind := deviceKind(strings.ToLower(device)); kind != "" {
		return fmt.Sprintf("Device: %s (%s)", device, kind)
	}
	return "Device: " + device
}

func captureNote(values map[string]string) string {
	for _, key := range []string{"DateTimeOriginal", "DateTimeDigitized", "DateTime"} {
		ts := strings.TrimSpace(values[key])
		if ts == "" {
			continue
		}
		// EXIF writes the date part as YYYY:MM:DD.
		if len(ts) >= 10 && ts[4] == ':' && ts[7] == ':' {
			ts = ts[:4] + "-" + ts[5:7] + "-" + ts[8:]
		}
		return "Captured: " + ts
	}
	return ""
}

func locationNote(values map[string]string) string {
	lat, okLat := parseCoordinate(values["GPSLatitude"])
	lon, okLon := parseCoordinate(values["GPSLongitude"])
	if !okLat || !okLon {
		return ""
	}
	if strings.HasPrefix(values["GPSLatitudeRef"], "S") {
		lat = -lat
	}
	if strings.HasPrefix(values["GPSLongitudeRef"], "W") {
		lon = -lon
	}
	return fmt.Sprintf("Location: %.5f, %.5f", lat, lon)
}

// parseCoordinate reads a formatted rational list such as
// "[37/1 46/1 2943/100]" as decimal degrees.
func parseCoordinate(raw string) (float64, bool) {
	raw = strings.Trim(strings.TrimSpace(raw), "[]")
	parts := strings.Fields(raw)
	if len(parts) == 0 || len(parts) > 3 {
		return 0, false
	}

	deg := 0.0
	scale := 1.0
	for _, part := range parts {
		v, ok := parseRational(part)
		if !ok {
			return 0, false
		}
		deg += v / scale
		scale *= 60
	}
	return deg, true
}

func parseRational(s string) (float64, bool) {
	num, den, found := strings.Cut(s, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, false
	}
	if !found {
		return n, true
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0, false
	}
	return n / d, true
}

func deviceKind(device string) string {
	has := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(device, w) {
				return true
			}
		}
		return false
	}
	switch {
	case has("iphone", "pixel", "galaxy", "android"):
		return "smartphone"
	case has("ipad", "tablet"):
		return "tablet"
	case has("gopro"):
		return "action camera"
	case has("dji"):
		return "drone"
	case has("canon", "nikon", "sony", "fujifilm", "panasonic", "olympus", "leica"):
		return "camera"
	default:
		return ""
	}
}
