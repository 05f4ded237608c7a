// Package testutil provides function-field mocks and image builders shared
// by the package tests.
package testutil

import (
	"context"
	"io"

	"photark/internal/models"
)

// MockFileRepository is a function-field mock of repository.FileRepository
type MockFileRepository struct {
	UpsertFunc             func(ctx context.Context, key string, record *models.FileRecord, merge bool) error
	GetFunc                func(ctx context.Context, key string) (*models.FileRecord, error)
	GetByContentHashFunc   func(ctx context.Context, hash string) (*models.FileRecord, error)
	GetByPixelHashFunc     func(ctx context.Context, hash string) (*models.FileRecord, error)
	GetByPerceptualHashFunc func(ctx context.Context, hash string) (*models.FileRecord, error)
	GetByUniqueIDFunc      func(ctx context.Context, id string) (*models.FileRecord, error)
	CountFunc              func(ctx context.Context) (int64, error)
	HealthFunc             func(ctx context.Context) error
	CloseFunc              func() error
}

func (m *MockFileRepository) Upsert(ctx context.Context, key string, record *models.FileRecord, merge bool) error {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, key, record, merge)
	}
	return nil
}

func (m *MockFileRepository) Get(ctx context.Context, key string) (*models.FileRecord, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	return nil, models.NotFoundError{Resource: "file", ID: key}
}

func (m *MockFileRepository) GetByContentHash(ctx context.Context, hash string) (*models.FileRecord, error) {
	if m.GetByContentHashFunc != nil {
		return m.GetByContentHashFunc(ctx, hash)
	}
	return nil, models.NotFoundError{Resource: "content_hash", ID: hash}
}

func (m *MockFileRepository) GetByPixelHash(ctx context.Context, hash string) (*models.FileRecord, error) {
	if m.GetByPixelHashFunc != nil {
		return m.GetByPixelHashFunc(ctx, hash)
	}
	return nil, models.NotFoundError{Resource: "pixel_hash", ID: hash}
}

func (m *MockFileRepository) GetByPerceptualHash(ctx context.Context, hash string) (*models.FileRecord, error) {
	if m.GetByPerceptualHashFunc != nil {
		return m.GetByPerceptualHashFunc(ctx, hash)
	}
	return nil, models.NotFoundError{Resource: "perceptual_hash", ID: hash}
}

func (m *MockFileRepository) GetByUniqueID(ctx context.Context, id string) (*models.FileRecord, error) {
	if m.GetByUniqueIDFunc != nil {
		return m.GetByUniqueIDFunc(ctx, id)
	}
	return nil, models.NotFoundError{Resource: "unique_id", ID: id}
}

func (m *MockFileRepository) Count(ctx context.Context) (int64, error) {
	if m.CountFunc != nil {
		return m.CountFunc(ctx)
	}
	return 0, nil
}

func (m *MockFileRepository) Health(ctx context.Context) error {
	if m.HealthFunc != nil {
		return m.HealthFunc(ctx)
	}
	return nil
}

func (m *MockFileRepository) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// MockContentStore is a function-field mock of storage.ContentStore
type MockContentStore struct {
	StageFunc     func(ctx context.Context, name string, r io.Reader) (string, int64, error)
	RelocateFunc  func(ctx context.Context, record *models.FileRecord) error
	ReadImageFunc func(ctx context.Context, hash, ext string) ([]byte, error)
	ImagePathFunc func(hash, ext string) string
	HealthFunc    func(ctx context.Context) error
}

func (m *MockContentStore) Stage(ctx context.Context, name string, r io.Reader) (string, int64, error) {
	if m.StageFunc != nil {
		return m.StageFunc(ctx, name, r)
	}
	return "", 0, nil
}

func (m *MockContentStore) Relocate(ctx context.Context, record *models.FileRecord) error {
	if m.RelocateFunc != nil {
		return m.RelocateFunc(ctx, record)
	}
	return nil
}

func (m *MockContentStore) ReadImage(ctx context.Context, hash, ext string) ([]byte, error) {
	if m.ReadImageFunc != nil {
		return m.ReadImageFunc(ctx, hash, ext)
	}
	return nil, models.NotFoundError{Resource: "image", ID: hash}
}

func (m *MockContentStore) ImagePath(hash, ext string) string {
	if m.ImagePathFunc != nil {
		return m.ImagePathFunc(hash, ext)
	}
	return ""
}

func (m *MockContentStore) Health(ctx context.Context) error {
	if m.HealthFunc != nil {
		return m.HealthFunc(ctx)
	}
	return nil
}

// MockPyramidStore is a function-field mock of storage.PyramidStore
type MockPyramidStore struct {
	BuildFunc       func(ctx context.Context, record *models.FileRecord) error
	TileFunc        func(ctx context.Context, hash string, zoom, x, y int) ([]byte, error)
	ArchivePathFunc func(hash string) string
}

func (m *MockPyramidStore) Build(ctx context.Context, record *models.FileRecord) error {
	if m.BuildFunc != nil {
		return m.BuildFunc(ctx, record)
	}
	return nil
}

func (m *MockPyramidStore) Tile(ctx context.Context, hash string, zoom, x, y int) ([]byte, error) {
	if m.TileFunc != nil {
		return m.TileFunc(ctx, hash, zoom, x, y)
	}
	return nil, models.NotFoundError{Resource: "tile", ID: hash}
}

func (m *MockPyramidStore) ArchivePath(hash string) string {
	if m.ArchivePathFunc != nil {
		return m.ArchivePathFunc(hash)
	}
	return ""
}

// MockMetadataExtractor is a function-field mock of service.MetadataExtractor
type MockMetadataExtractor struct {
	ExtractFunc func(ctx context.Context, path string) (models.RawTags, error)
}

func (m *MockMetadataExtractor) Extract(ctx context.Context, path string) (models.RawTags, error) {
	if m.ExtractFunc != nil {
		return m.ExtractFunc(ctx, path)
	}
	return models.RawTags{}, nil
}
