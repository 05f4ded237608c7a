package service

import (
	"context"
	"io"

	"photark/internal/models"
)

// MetadataExtractor produces the raw tag dictionary of a staged file
type MetadataExtractor interface {
	Extract(ctx context.Context, path string) (models.RawTags, error)
}

// UploadInput is one incoming file of an upload request
type UploadInput struct {
	Name string
	Mime string
	Body io.Reader
}

// ComponentStatus is the health of one backing component
type ComponentStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// HealthStatus is the aggregate health report
type HealthStatus struct {
	Status     string                     `json:"status"`
	Files      int64                      `json:"files"`
	Components map[string]ComponentStatus `json:"components"`
}

// FileService is the ingestion and retrieval core
type FileService interface {
	// Ingest runs the full upload pipeline: stage, hash, duplicate-check,
	// extract metadata, relocate, persist, tile
	Ingest(ctx context.Context, upload UploadInput) (*models.UploadResponse, error)

	// Info returns the stored record addressed by hash with its formatted
	// photography summary
	Info(ctx context.Context, hash string) (*models.InfoResponse, error)

	// Image returns the stored original's bytes and MIME type
	Image(ctx context.Context, hash string) ([]byte, string, error)

	// Tile returns one deep-zoom tile addressed by hash, zoom and grid
	// coordinates
	Tile(ctx context.Context, hash string, zoom, x, y int) ([]byte, error)

	// Health reports the state of the record store and content store
	Health(ctx context.Context) *HealthStatus
}
