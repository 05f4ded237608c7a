package storage

import (
	"context"
	"io"

	"photark/internal/models"
)

// ContentStore is the sharded, content-addressed image store
type ContentStore interface {
	// Stage writes an incoming upload under the staging root and returns
	// the staged path and byte count
	Stage(ctx context.Context, name string, r io.Reader) (string, int64, error)

	// Relocate atomically moves the staged file to its sharded final path
	// and rewrites the record's path field
	Relocate(ctx context.Context, record *models.FileRecord) error

	// ReadImage reads the stored image addressed by hash; a missing file
	// is a NotFoundError
	ReadImage(ctx context.Context, hash, ext string) ([]byte, error)

	// ImagePath recomputes the final path for an addressing hash
	ImagePath(hash, ext string) string

	// Health verifies the storage root is writable
	Health(ctx context.Context) error
}

// PyramidStore builds and serves deep-zoom tile pyramids
type PyramidStore interface {
	// Build generates the tile archive for a relocated record; failure
	// after the record commit is non-fatal to the ingestion
	Build(ctx context.Context, record *models.FileRecord) error

	// Tile reads a single tile's bytes from the archive; any miss
	// (absent archive, absent member, out-of-range coordinates) is a
	// NotFoundError
	Tile(ctx context.Context, hash string, zoom, x, y int) ([]byte, error)

	// ArchivePath recomputes the archive path for an addressing hash
	ArchivePath(hash string) string
}
