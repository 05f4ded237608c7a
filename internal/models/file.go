package models

import (
	"path/filepath"
	"strings"
	"time"
)

// Expected hex widths for the three identity hashes.
const (
	ContentHashLen    = 32 // 128-bit MD5
	PixelHashLen      = 32 // 128-bit xxhash pair
	PerceptualHashLen = 16 // 64-bit dHash
)

// FileRecord is the persisted identity and metadata of one stored image.
// Path starts at the staging location and is rewritten to the final sharded
// destination by the content store; the staging path is never persisted.
type FileRecord struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Mime string `json:"mime"`
	Size int64  `json:"size"`

	Orientation int    `json:"orientation,omitempty"`
	UniqueID    string `json:"unique_id,omitempty"`

	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Altitude  *float64 `json:"altitude,omitempty"`

	ShotAt      *time.Time `json:"shot_at,omitempty"`
	DigitizedAt *time.Time `json:"digitized_at,omitempty"`

	PerceptualHash string `json:"perceptual_hash"`
	PixelHash      string `json:"pixel_hash"`
	ContentHash    string `json:"content_hash"`

	// Derived from the addressing hash by the sharder, never chosen directly
	ShardDir  string `json:"shard_dir"`
	ShardFile string `json:"shard_file"`

	Metadata RawTags `json:"metadata,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AddressingHashKind selects which hash drives the storage shard path
type AddressingHashKind string

const (
	// AddressingPixel shards by the raw-pixel hash, which survives
	// metadata-only edits and container re-encodes
	AddressingPixel AddressingHashKind = "pixel"
	// AddressingContent shards by the exact byte-stream hash
	AddressingContent AddressingHashKind = "content"
)

// AddressingHash returns the hash value selected by kind
func (r *FileRecord) AddressingHash(kind AddressingHashKind) string {
	if kind == AddressingContent {
		return r.ContentHash
	}
	return r.PixelHash
}

// Extension returns the storage file extension derived from the MIME type,
// falling back to the original filename's extension
func (r *FileRecord) Extension() string {
	switch r.Mime {
	case "image/jpeg":
		return "jpg"
	case "image/png":
		return "png"
	case "image/gif":
		return "gif"
	case "image/webp":
		return "webp"
	case "image/tiff":
		return "tif"
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(r.Name)), ".")
	if ext == "" {
		ext = "jpg"
	}
	return ext
}

// StoredName returns the sharded relative path of the image file,
// "<shard_dir><shard_file>.<ext>"
func (r *FileRecord) StoredName() string {
	return r.ShardDir + r.ShardFile + "." + r.Extension()
}

// Validate checks the invariants required before an upsert
func (r *FileRecord) Validate() error {
	if r.Name == "" {
		return ValidationError{Field: "name", Message: "name is required"}
	}
	if len(r.ContentHash) != ContentHashLen {
		return ValidationError{Field: "content_hash", Message: "content hash must be 32 hex characters"}
	}
	if len(r.PixelHash) != PixelHashLen {
		return ValidationError{Field: "pixel_hash", Message: "pixel hash must be 32 hex characters"}
	}
	if len(r.PerceptualHash) != PerceptualHashLen {
		return ValidationError{Field: "perceptual_hash", Message: "perceptual hash must be 16 hex characters"}
	}
	if r.ShardDir == "" && r.ShardFile == "" {
		return ValidationError{Field: "shard", Message: "shard path has not been computed"}
	}
	return nil
}

// MergeFrom overwrites this record's fields with every non-zero field of the
// newer record, used when re-ingesting bytes with a known addressing hash
func (r *FileRecord) MergeFrom(newer *FileRecord) {
	if newer.Name != "" {
		r.Name = newer.Name
	}
	if newer.Path != "" {
		r.Path = newer.Path
	}
	if newer.Mime != "" {
		r.Mime = newer.Mime
	}
	if newer.Size > 0 {
		r.Size = newer.Size
	}
	if newer.Orientation != 0 {
		r.Orientation = newer.Orientation
	}
	if newer.UniqueID != "" {
		r.UniqueID = newer.UniqueID
	}
	if newer.Latitude != nil {
		r.Latitude = newer.Latitude
	}
	if newer.Longitude != nil {
		r.Longitude = newer.Longitude
	}
	if newer.Altitude != nil {
		r.Altitude = newer.Altitude
	}
	if newer.ShotAt != nil {
		r.ShotAt = newer.ShotAt
	}
	if newer.DigitizedAt != nil {
		r.DigitizedAt = newer.DigitizedAt
	}
	if newer.PerceptualHash != "" {
		r.PerceptualHash = newer.PerceptualHash
	}
	if newer.PixelHash != "" {
		r.PixelHash = newer.PixelHash
	}
	if newer.ContentHash != "" {
		r.ContentHash = newer.ContentHash
	}
	if newer.ShardDir != "" || newer.ShardFile != "" {
		r.ShardDir = newer.ShardDir
		r.ShardFile = newer.ShardFile
	}
	if newer.Metadata != nil {
		r.Metadata = newer.Metadata
	}
	r.UpdatedAt = time.Now()
}

// InfoResponse is the API shape of a stored file record
type InfoResponse struct {
	Name           string            `json:"name"`
	Mime           string            `json:"mime"`
	Size           int64             `json:"size"`
	PerceptualHash string            `json:"perceptual_hash"`
	PixelHash      string            `json:"pixel_hash"`
	ContentHash    string            `json:"content_hash"`
	Latitude       *float64          `json:"latitude,omitempty"`
	Longitude      *float64          `json:"longitude,omitempty"`
	Altitude       *float64          `json:"altitude,omitempty"`
	ShotAt         *time.Time        `json:"shot_at,omitempty"`
	DigitizedAt    *time.Time        `json:"digitized_at,omitempty"`
	Summary        map[string]string `json:"summary,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
}

// ToInfoResponse converts a record for the info endpoint; summary is the
// formatted photography display block
func (r *FileRecord) ToInfoResponse(summary map[string]string) InfoResponse {
	return InfoResponse{
		Name:           r.Name,
		Mime:           r.Mime,
		Size:           r.Size,
		PerceptualHash: r.PerceptualHash,
		PixelHash:      r.PixelHash,
		ContentHash:    r.ContentHash,
		Latitude:       r.Latitude,
		Longitude:      r.Longitude,
		Altitude:       r.Altitude,
		ShotAt:         r.ShotAt,
		DigitizedAt:    r.DigitizedAt,
		Summary:        summary,
		CreatedAt:      r.CreatedAt,
	}
}

// UploadResponse reports the outcome of one uploaded file
type UploadResponse struct {
	Name        string `json:"name"`
	PixelHash   string `json:"pixel_hash"`
	ContentHash string `json:"content_hash"`
	Path        string `json:"path"`
	Tiled       bool   `json:"tiled"`
}
