package service

import (
	"strings"
	"time"

	"photark/internal/models"
)

// EXIF timestamps use colon-separated dates
const exifTimeLayout = "2006:01:02 15:04:05"

// Normalizer turns the extractor's raw tag dictionary into the typed fields
// of a file record. GPS handling is strict: coordinates in an unexpected map
// datum are an error, not a silent mis-placement on the map.
type Normalizer struct {
	acceptedDatum string
}

// NewNormalizer creates a Normalizer accepting one GPS map datum
func NewNormalizer(acceptedDatum string) *Normalizer {
	return &Normalizer{acceptedDatum: acceptedDatum}
}

// Apply fills record from tags. The raw dictionary is kept on the record so
// nothing the extractor saw is lost.
func (n *Normalizer) Apply(record *models.FileRecord, tags models.RawTags) error {
	record.Metadata = tags

	if o, ok := tags.Int("EXIF:Orientation"); ok && o >= 1 && o <= 8 {
		record.Orientation = o
	}

	if id, ok := tags.String("EXIF:ImageUniqueID"); ok {
		id = strings.TrimSpace(id)
		// All-zero unique IDs are firmware placeholders, not identities
		if id != "" && strings.Trim(id, "0") != "" {
			record.UniqueID = id
		}
	}

	if err := n.applyGPS(record, tags); err != nil {
		return err
	}

	if ts, ok := parseEXIFTime(tags, "EXIF:DateTimeOriginal"); ok {
		record.ShotAt = &ts
	}
	if ts, ok := parseEXIFTime(tags, "EXIF:CreateDate"); ok {
		record.DigitizedAt = &ts
	}

	return nil
}

// applyGPS extracts coordinates with their hemisphere and sea-level signs.
// Latitude south, longitude west and altitude below sea level are negative.
func (n *Normalizer) applyGPS(record *models.FileRecord, tags models.RawTags) error {
	lat, hasLat := tags.Float("EXIF:GPSLatitude")
	lon, hasLon := tags.Float("EXIF:GPSLongitude")

	if hasLat || hasLon {
		if datum, ok := tags.String("EXIF:GPSMapDatum"); ok {
			datum = strings.TrimSpace(datum)
			if datum != "" && !datumMatches(datum, n.acceptedDatum) {
				return models.UnsupportedDatumError{Datum: datum, Accepted: n.acceptedDatum}
			}
		}
	}

	if hasLat {
		if ref, ok := tags.String("EXIF:GPSLatitudeRef"); ok && strings.HasPrefix(strings.ToUpper(ref), "S") {
			lat = -lat
		}
		record.Latitude = &lat
	}
	if hasLon {
		if ref, ok := tags.String("EXIF:GPSLongitudeRef"); ok && strings.HasPrefix(strings.ToUpper(ref), "W") {
			lon = -lon
		}
		record.Longitude = &lon
	}

	if alt, ok := tags.Float("EXIF:GPSAltitude"); ok {
		if ref, refOK := tags.Int("EXIF:GPSAltitudeRef"); refOK && ref == 1 {
			alt = -alt
		}
		record.Altitude = &alt
	}

	return nil
}

// datumMatches compares datum names ignoring case, spaces and hyphens, so
// "WGS-84", "WGS 84" and "wgs84" are the same datum
func datumMatches(datum, accepted string) bool {
	canon := func(s string) string {
		s = strings.ToUpper(s)
		s = strings.ReplaceAll(s, "-", "")
		s = strings.ReplaceAll(s, " ", "")
		return s
	}
	return canon(datum) == canon(accepted)
}

// parseEXIFTime parses a colon-formatted EXIF timestamp tag
func parseEXIFTime(tags models.RawTags, key string) (time.Time, bool) {
	raw, ok := tags.String(key)
	if !ok {
		return time.Time{}, false
	}
	ts, err := time.Parse(exifTimeLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}
