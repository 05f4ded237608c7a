package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRecord() *FileRecord {
	return &FileRecord{
		Name:           "photo.jpg",
		Path:           "/data/staging/photo.jpg",
		Mime:           "image/jpeg",
		Size:           4096,
		ContentHash:    strings.Repeat("a", ContentHashLen),
		PixelHash:      strings.Repeat("b", PixelHashLen),
		PerceptualHash: strings.Repeat("c", PerceptualHashLen),
		ShardDir:       "bb/bb/bb/bb/bb/bb/",
		ShardFile:      "bbbbbbbbbbbbbbbbbbbb",
	}
}

func TestAddressingHash(t *testing.T) {
	r := validRecord()

	assert.Equal(t, r.PixelHash, r.AddressingHash(AddressingPixel))
	assert.Equal(t, r.ContentHash, r.AddressingHash(AddressingContent))
	assert.Equal(t, r.PixelHash, r.AddressingHash("anything-else"))
}

func TestExtension(t *testing.T) {
	tests := []struct {
		name string
		mime string
		file string
		want string
	}{
		{"jpeg mime", "image/jpeg", "x.whatever", "jpg"},
		{"png mime", "image/png", "x", "png"},
		{"webp mime", "image/webp", "x", "webp"},
		{"tiff mime", "image/tiff", "x", "tif"},
		{"unknown mime falls back to filename", "application/octet-stream", "photo.PNG", "png"},
		{"no extension anywhere defaults to jpg", "application/octet-stream", "photo", "jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &FileRecord{Mime: tt.mime, Name: tt.file}
			assert.Equal(t, tt.want, r.Extension())
		})
	}
}

func TestStoredName(t *testing.T) {
	r := validRecord()
	assert.Equal(t, "bb/bb/bb/bb/bb/bb/bbbbbbbbbbbbbbbbbbbb.jpg", r.StoredName())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*FileRecord)
		field  string
	}{
		{"missing name", func(r *FileRecord) { r.Name = "" }, "name"},
		{"short content hash", func(r *FileRecord) { r.ContentHash = "abc" }, "content_hash"},
		{"short pixel hash", func(r *FileRecord) { r.PixelHash = "abc" }, "pixel_hash"},
		{"short perceptual hash", func(r *FileRecord) { r.PerceptualHash = "abc" }, "perceptual_hash"},
		{"missing shard path", func(r *FileRecord) { r.ShardDir = ""; r.ShardFile = "" }, "shard"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRecord()
			tt.mutate(r)

			err := r.Validate()
			require.Error(t, err)

			var vErr ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}

	t.Run("valid record passes", func(t *testing.T) {
		assert.NoError(t, validRecord().Validate())
	})
}

func TestMergeFrom(t *testing.T) {
	base := validRecord()
	base.UniqueID = "original-id"
	base.CreatedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	lat := 48.85
	newer := &FileRecord{
		Name:     "renamed.jpg",
		Latitude: &lat,
	}

	base.MergeFrom(newer)

	t.Run("non-zero fields overwrite", func(t *testing.T) {
		assert.Equal(t, "renamed.jpg", base.Name)
		require.NotNil(t, base.Latitude)
		assert.Equal(t, 48.85, *base.Latitude)
	})

	t.Run("zero fields leave existing values", func(t *testing.T) {
		assert.Equal(t, "original-id", base.UniqueID)
		assert.Equal(t, "image/jpeg", base.Mime)
		assert.Equal(t, int64(4096), base.Size)
	})

	t.Run("update time moves forward", func(t *testing.T) {
		assert.True(t, base.UpdatedAt.After(base.CreatedAt))
	})
}

func TestToInfoResponse(t *testing.T) {
	r := validRecord()
	r.Metadata = RawTags{"EXIF:Make": "Nikon"}

	info := r.ToInfoResponse(map[string]string{"Camera Make": "Nikon"})

	assert.Equal(t, r.Name, info.Name)
	assert.Equal(t, r.ContentHash, info.ContentHash)
	assert.Equal(t, r.PixelHash, info.PixelHash)
	assert.Equal(t, "Nikon", info.Summary["Camera Make"])
}
