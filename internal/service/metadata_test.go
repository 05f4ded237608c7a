package service

import (
	"testing"
	"time"

	"photark/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizerOrientation(t *testing.T) {
	n := NewNormalizer("WGS-84")

	t.Run("valid code is kept", func(t *testing.T) {
		record := &models.FileRecord{}
		require.NoError(t, n.Apply(record, models.RawTags{"EXIF:Orientation": int64(6)}))
		assert.Equal(t, 6, record.Orientation)
	})

	t.Run("out of range code is dropped", func(t *testing.T) {
		record := &models.FileRecord{}
		require.NoError(t, n.Apply(record, models.RawTags{"EXIF:Orientation": int64(9)}))
		assert.Equal(t, 0, record.Orientation)
	})

	t.Run("absent tag leaves zero", func(t *testing.T) {
		record := &models.FileRecord{}
		require.NoError(t, n.Apply(record, models.RawTags{}))
		assert.Equal(t, 0, record.Orientation)
	})
}

func TestNormalizerUniqueID(t *testing.T) {
	n := NewNormalizer("WGS-84")

	t.Run("real ID is kept", func(t *testing.T) {
		record := &models.FileRecord{}
		require.NoError(t, n.Apply(record, models.RawTags{"EXIF:ImageUniqueID": "a1b2c3d4e5f60718"}))
		assert.Equal(t, "a1b2c3d4e5f60718", record.UniqueID)
	})

	t.Run("all-zero placeholder is dropped", func(t *testing.T) {
		record := &models.FileRecord{}
		require.NoError(t, n.Apply(record, models.RawTags{"EXIF:ImageUniqueID": "00000000000000000000000000000000"}))
		assert.Empty(t, record.UniqueID)
	})

	t.Run("whitespace-only is dropped", func(t *testing.T) {
		record := &models.FileRecord{}
		require.NoError(t, n.Apply(record, models.RawTags{"EXIF:ImageUniqueID": "   "}))
		assert.Empty(t, record.UniqueID)
	})
}

func TestNormalizerGPS(t *testing.T) {
	n := NewNormalizer("WGS-84")

	t.Run("northern and eastern hemispheres stay positive", func(t *testing.T) {
		record := &models.FileRecord{}
		require.NoError(t, n.Apply(record, models.RawTags{
			"EXIF:GPSLatitude":     48.8566,
			"EXIF:GPSLatitudeRef":  "N",
			"EXIF:GPSLongitude":    2.3522,
			"EXIF:GPSLongitudeRef": "E",
		}))
		require.NotNil(t, record.Latitude)
		require.NotNil(t, record.Longitude)
		assert.InDelta(t, 48.8566, *record.Latitude, 1e-9)
		assert.InDelta(t, 2.3522, *record.Longitude, 1e-9)
	})

	t.Run("south and west go negative", func(t *testing.T) {
		record := &models.FileRecord{}
		require.NoError(t, n.Apply(record, models.RawTags{
			"EXIF:GPSLatitude":     33.8688,
			"EXIF:GPSLatitudeRef":  "S",
			"EXIF:GPSLongitude":    70.6693,
			"EXIF:GPSLongitudeRef": "W",
		}))
		assert.InDelta(t, -33.8688, *record.Latitude, 1e-9)
		assert.InDelta(t, -70.6693, *record.Longitude, 1e-9)
	})

	t.Run("below sea level goes negative", func(t *testing.T) {
		record := &models.FileRecord{}
		require.NoError(t, n.Apply(record, models.RawTags{
			"EXIF:GPSAltitude":    120.0,
			"EXIF:GPSAltitudeRef": int64(1),
		}))
		require.NotNil(t, record.Altitude)
		assert.InDelta(t, -120.0, *record.Altitude, 1e-9)
	})

	t.Run("above sea level stays positive", func(t *testing.T) {
		record := &models.FileRecord{}
		require.NoError(t, n.Apply(record, models.RawTags{
			"EXIF:GPSAltitude":    3724.0,
			"EXIF:GPSAltitudeRef": int64(0),
		}))
		assert.InDelta(t, 3724.0, *record.Altitude, 1e-9)
	})

	t.Run("accepted datum spelled differently still passes", func(t *testing.T) {
		record := &models.FileRecord{}
		err := n.Apply(record, models.RawTags{
			"EXIF:GPSLatitude":    1.0,
			"EXIF:GPSLatitudeRef": "N",
			"EXIF:GPSMapDatum":    "wgs 84",
		})
		assert.NoError(t, err)
	})

	t.Run("foreign datum is rejected", func(t *testing.T) {
		record := &models.FileRecord{}
		err := n.Apply(record, models.RawTags{
			"EXIF:GPSLatitude":    35.6762,
			"EXIF:GPSLatitudeRef": "N",
			"EXIF:GPSMapDatum":    "TOKYO",
		})
		require.Error(t, err)

		var datumErr models.UnsupportedDatumError
		require.ErrorAs(t, err, &datumErr)
		assert.Equal(t, "TOKYO", datumErr.Datum)
		assert.Equal(t, models.CodeUnsupportedDatum, models.ErrorCode(err))
	})

	t.Run("datum without coordinates is ignored", func(t *testing.T) {
		record := &models.FileRecord{}
		err := n.Apply(record, models.RawTags{"EXIF:GPSMapDatum": "TOKYO"})
		assert.NoError(t, err)
	})
}

func TestNormalizerTimestamps(t *testing.T) {
	n := NewNormalizer("WGS-84")

	t.Run("colon-formatted EXIF timestamps parse", func(t *testing.T) {
		record := &models.FileRecord{}
		require.NoError(t, n.Apply(record, models.RawTags{
			"EXIF:DateTimeOriginal": "2023:07:14 16:02:55",
			"EXIF:CreateDate":       "2023:07:14 16:03:01",
		}))

		require.NotNil(t, record.ShotAt)
		require.NotNil(t, record.DigitizedAt)
		assert.Equal(t, time.Date(2023, 7, 14, 16, 2, 55, 0, time.UTC), record.ShotAt.UTC())
		assert.Equal(t, time.Date(2023, 7, 14, 16, 3, 1, 0, time.UTC), record.DigitizedAt.UTC())
	})

	t.Run("malformed timestamp is dropped", func(t *testing.T) {
		record := &models.FileRecord{}
		require.NoError(t, n.Apply(record, models.RawTags{
			"EXIF:DateTimeOriginal": "0000:00:00 00:00:00",
		}))
		assert.Nil(t, record.ShotAt)
	})
}

func TestNormalizerKeepsRawTags(t *testing.T) {
	n := NewNormalizer("WGS-84")

	tags := models.RawTags{
		"EXIF:Make":  "Canon",
		"EXIF:Model": "EOS R5",
	}
	record := &models.FileRecord{}
	require.NoError(t, n.Apply(record, tags))

	assert.True(t, record.Metadata.Has("EXIF:Make"))
	assert.True(t, record.Metadata.Has("EXIF:Model"))
}
