package repository

import (
	"context"

	"photark/internal/models"
)

// FileRepository is the key-indexed record store for file identities. Records
// are keyed by the addressing hash; content hash and pixel hash are unique
// across the store and the repository enforces that at its own layer, which
// makes it the last line of defense behind the advisory duplicate checks.
type FileRepository interface {
	// Upsert saves the record under its addressing-hash key. When the key
	// is already taken and merge is false it fails with a DuplicateError;
	// when merge is true the new record's non-zero fields overwrite the
	// existing one. A content or pixel hash owned by a different key is
	// always a DuplicateError, regardless of merge.
	Upsert(ctx context.Context, key string, record *models.FileRecord, merge bool) error

	// Get retrieves the record stored under an addressing-hash key
	Get(ctx context.Context, key string) (*models.FileRecord, error)

	// GetByContentHash looks up the record owning a content hash
	GetByContentHash(ctx context.Context, hash string) (*models.FileRecord, error)

	// GetByPixelHash looks up the record owning a pixel hash
	GetByPixelHash(ctx context.Context, hash string) (*models.FileRecord, error)

	// GetByPerceptualHash looks up a record with the exact perceptual hash
	GetByPerceptualHash(ctx context.Context, hash string) (*models.FileRecord, error)

	// GetByUniqueID looks up a record with the camera-assigned unique ID
	GetByUniqueID(ctx context.Context, id string) (*models.FileRecord, error)

	// Count returns the number of stored records
	Count(ctx context.Context) (int64, error)

	// Health checks repository health
	Health(ctx context.Context) error

	// Close closes the repository connection
	Close() error
}
