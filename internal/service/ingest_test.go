package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"photark/internal/config"
	"photark/internal/models"
	"photark/internal/repository"
	"photark/internal/storage"
	"photark/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Storage: config.StorageConfig{
			ChunkWidth: 2,
			Depth:      6,
			Addressing: models.AddressingPixel,
			Policy:     "reject",
		},
		Metadata: config.MetadataConfig{GPSDatum: "WGS-84"},
	}
}

type serviceMocks struct {
	repo      *testutil.MockFileRepository
	content   *testutil.MockContentStore
	pyramids  *testutil.MockPyramidStore
	extractor *testutil.MockMetadataExtractor
}

func newTestService(t *testing.T, cfg *config.Config) (FileService, *serviceMocks) {
	t.Helper()

	staging := t.TempDir()
	mocks := &serviceMocks{
		repo:      &testutil.MockFileRepository{},
		pyramids:  &testutil.MockPyramidStore{},
		extractor: &testutil.MockMetadataExtractor{},
		content: &testutil.MockContentStore{
			StageFunc: func(ctx context.Context, name string, r io.Reader) (string, int64, error) {
				staged := filepath.Join(staging, "staged_"+filepath.Base(name))
				data, err := io.ReadAll(r)
				if err != nil {
					return "", 0, err
				}
				if err := os.WriteFile(staged, data, 0o644); err != nil {
					return "", 0, err
				}
				return staged, int64(len(data)), nil
			},
		},
	}

	sharder, err := storage.NewSharder(cfg.Storage.ChunkWidth, cfg.Storage.Depth)
	require.NoError(t, err)

	var repo repository.FileRepository = mocks.repo
	svc := NewFileService(repo, mocks.content, mocks.pyramids, mocks.extractor, sharder, cfg)
	return svc, mocks
}

func pngUpload(t *testing.T) UploadInput {
	t.Helper()
	return UploadInput{
		Name: "photo.png",
		Mime: "image/png",
		Body: bytes.NewReader(testutil.EncodePNG(t, testutil.NewGradientImage(64, 48))),
	}
}

func TestIngestHappyPath(t *testing.T) {
	svc, mocks := newTestService(t, testConfig())
	ctx := context.Background()

	var upserted *models.FileRecord
	var upsertKey string
	var upsertMerge bool
	mocks.repo.UpsertFunc = func(ctx context.Context, key string, record *models.FileRecord, merge bool) error {
		upserted = record
		upsertKey = key
		upsertMerge = merge
		return nil
	}

	var relocated bool
	mocks.content.RelocateFunc = func(ctx context.Context, record *models.FileRecord) error {
		relocated = true
		return nil
	}

	resp, err := svc.Ingest(ctx, pngUpload(t))
	require.NoError(t, err)

	t.Run("all three hashes computed", func(t *testing.T) {
		assert.Len(t, resp.ContentHash, models.ContentHashLen)
		assert.Len(t, resp.PixelHash, models.PixelHashLen)
		require.NotNil(t, upserted)
		assert.Len(t, upserted.PerceptualHash, models.PerceptualHashLen)
	})

	t.Run("keyed by the addressing hash without merge", func(t *testing.T) {
		assert.Equal(t, resp.PixelHash, upsertKey)
		assert.False(t, upsertMerge)
	})

	t.Run("shard path computed from the pixel hash", func(t *testing.T) {
		assert.Equal(t, upserted.ShardDir+upserted.ShardFile+".png", resp.Path)
		assert.True(t, relocated)
	})

	t.Run("pyramid built", func(t *testing.T) {
		assert.True(t, resp.Tiled)
	})
}

func TestIngestRejectsUndecodableUpload(t *testing.T) {
	svc, mocks := newTestService(t, testConfig())

	upsertCalled := false
	mocks.repo.UpsertFunc = func(ctx context.Context, key string, record *models.FileRecord, merge bool) error {
		upsertCalled = true
		return nil
	}

	_, err := svc.Ingest(context.Background(), UploadInput{
		Name: "document.pdf",
		Mime: "application/pdf",
		Body: bytes.NewReader([]byte("%PDF-1.4 not an image")),
	})
	require.Error(t, err)

	assert.Equal(t, models.CodeDecodeFailed, models.ErrorCode(err))
	assert.False(t, upsertCalled)
}

func TestIngestPerceptualDuplicate(t *testing.T) {
	svc, mocks := newTestService(t, testConfig())

	existing := &models.FileRecord{Name: "earlier.png"}
	mocks.repo.GetByPerceptualHashFunc = func(ctx context.Context, hash string) (*models.FileRecord, error) {
		return existing, nil
	}

	relocateCalled := false
	mocks.content.RelocateFunc = func(ctx context.Context, record *models.FileRecord) error {
		relocateCalled = true
		return nil
	}

	_, err := svc.Ingest(context.Background(), pngUpload(t))
	require.Error(t, err)

	assert.Equal(t, models.CodeDuplicatePerceptual, models.ErrorCode(err))
	assert.False(t, relocateCalled, "duplicate must be detected before relocation")
}

func TestIngestUniqueIDDuplicate(t *testing.T) {
	svc, mocks := newTestService(t, testConfig())

	mocks.extractor.ExtractFunc = func(ctx context.Context, path string) (models.RawTags, error) {
		return models.RawTags{"EXIF:ImageUniqueID": "cam-123"}, nil
	}
	mocks.repo.GetByUniqueIDFunc = func(ctx context.Context, id string) (*models.FileRecord, error) {
		return &models.FileRecord{Name: "earlier.png", UniqueID: id}, nil
	}

	_, err := svc.Ingest(context.Background(), pngUpload(t))
	require.Error(t, err)
	assert.Equal(t, models.CodeDuplicateUniqueID, models.ErrorCode(err))
}

func TestIngestUnsupportedDatum(t *testing.T) {
	svc, mocks := newTestService(t, testConfig())

	mocks.extractor.ExtractFunc = func(ctx context.Context, path string) (models.RawTags, error) {
		return models.RawTags{
			"EXIF:GPSLatitude":    35.0,
			"EXIF:GPSLatitudeRef": "N",
			"EXIF:GPSMapDatum":    "TOKYO",
		}, nil
	}

	_, err := svc.Ingest(context.Background(), pngUpload(t))
	require.Error(t, err)
	assert.Equal(t, models.CodeUnsupportedDatum, models.ErrorCode(err))
}

func TestIngestExtractorFailureIsNotFatal(t *testing.T) {
	svc, mocks := newTestService(t, testConfig())

	mocks.extractor.ExtractFunc = func(ctx context.Context, path string) (models.RawTags, error) {
		return nil, errors.New("exiftool exploded")
	}

	resp, err := svc.Ingest(context.Background(), pngUpload(t))
	require.NoError(t, err)
	assert.NotEmpty(t, resp.PixelHash)
}

func TestIngestRelocationFailureAbortsUpsert(t *testing.T) {
	svc, mocks := newTestService(t, testConfig())

	mocks.content.RelocateFunc = func(ctx context.Context, record *models.FileRecord) error {
		return models.RelocationError{Source: record.Path, Destination: "/dev/full", Reason: "no space"}
	}

	upsertCalled := false
	mocks.repo.UpsertFunc = func(ctx context.Context, key string, record *models.FileRecord, merge bool) error {
		upsertCalled = true
		return nil
	}

	_, err := svc.Ingest(context.Background(), pngUpload(t))
	require.Error(t, err)
	assert.Equal(t, models.CodeRelocationFailed, models.ErrorCode(err))
	assert.False(t, upsertCalled, "record must never point at a missing file")
}

func TestIngestPyramidFailureIsNotFatal(t *testing.T) {
	svc, mocks := newTestService(t, testConfig())

	mocks.pyramids.BuildFunc = func(ctx context.Context, record *models.FileRecord) error {
		return models.PyramidBuildError{Hash: "x", Reason: "corrupt frame"}
	}

	resp, err := svc.Ingest(context.Background(), pngUpload(t))
	require.NoError(t, err)
	assert.False(t, resp.Tiled)
}

func TestIngestUpsertPolicy(t *testing.T) {
	t.Run("upsert policy requests a merge", func(t *testing.T) {
		cfg := testConfig()
		cfg.Storage.Policy = "upsert"
		svc, mocks := newTestService(t, cfg)

		var gotMerge bool
		mocks.repo.UpsertFunc = func(ctx context.Context, key string, record *models.FileRecord, merge bool) error {
			gotMerge = merge
			return nil
		}

		_, err := svc.Ingest(context.Background(), pngUpload(t))
		require.NoError(t, err)
		assert.True(t, gotMerge)
	})

	t.Run("re-ingest of identical bytes merges into the existing record", func(t *testing.T) {
		cfg := testConfig()
		cfg.Storage.Policy = "upsert"

		repo, err := repository.NewBadgerRepository(filepath.Join(t.TempDir(), "records"))
		require.NoError(t, err)
		defer repo.Close()

		sharder, err := storage.NewSharder(cfg.Storage.ChunkWidth, cfg.Storage.Depth)
		require.NoError(t, err)
		content, err := storage.NewFilesystemStore(t.TempDir(), t.TempDir(), sharder)
		require.NoError(t, err)

		svc := NewFileService(repo, content, &testutil.MockPyramidStore{}, &testutil.MockMetadataExtractor{}, sharder, cfg)
		ctx := context.Background()

		data := testutil.EncodePNG(t, testutil.NewGradientImage(64, 48))
		first, err := svc.Ingest(ctx, UploadInput{Name: "photo.png", Mime: "image/png", Body: bytes.NewReader(data)})
		require.NoError(t, err)

		second, err := svc.Ingest(ctx, UploadInput{Name: "reimport.png", Mime: "image/png", Body: bytes.NewReader(data)})
		require.NoError(t, err, "identical bytes must merge, not reject")
		assert.Equal(t, first.PixelHash, second.PixelHash)

		count, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		stored, err := repo.Get(ctx, first.PixelHash)
		require.NoError(t, err)
		assert.Equal(t, "reimport.png", stored.Name)
	})

	t.Run("reject policy still refuses identical bytes", func(t *testing.T) {
		svc, mocks := newTestService(t, testConfig())

		mocks.repo.GetByPerceptualHashFunc = func(ctx context.Context, hash string) (*models.FileRecord, error) {
			return &models.FileRecord{Name: "earlier.png", PixelHash: "deadbeef", PerceptualHash: hash}, nil
		}

		_, err := svc.Ingest(context.Background(), pngUpload(t))
		require.Error(t, err)
		assert.Equal(t, models.CodeDuplicatePerceptual, models.ErrorCode(err))
	})

	t.Run("content addressing keys by the content hash", func(t *testing.T) {
		cfg := testConfig()
		cfg.Storage.Addressing = models.AddressingContent
		svc, mocks := newTestService(t, cfg)

		var gotKey string
		var gotRecord *models.FileRecord
		mocks.repo.UpsertFunc = func(ctx context.Context, key string, record *models.FileRecord, merge bool) error {
			gotKey = key
			gotRecord = record
			return nil
		}

		_, err := svc.Ingest(context.Background(), pngUpload(t))
		require.NoError(t, err)
		assert.Equal(t, gotRecord.ContentHash, gotKey)
	})
}
