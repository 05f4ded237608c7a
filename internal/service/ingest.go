package service

import (
	"context"
	"net/http"
	"os"

	"photark/internal/config"
	"photark/internal/models"
	"photark/internal/repository"
	"photark/internal/storage"
	"photark/pkg/logger"

	"go.uber.org/zap"
)

// fileService implements FileService
type fileService struct {
	repo      repository.FileRepository
	content   storage.ContentStore
	pyramids  storage.PyramidStore
	extractor MetadataExtractor
	hasher    *Hasher
	norm      *Normalizer
	sharder   *storage.Sharder

	addressing models.AddressingHashKind
	merge      bool
}

// NewFileService creates the ingestion and retrieval core
func NewFileService(
	repo repository.FileRepository,
	content storage.ContentStore,
	pyramids storage.PyramidStore,
	extractor MetadataExtractor,
	sharder *storage.Sharder,
	cfg *config.Config,
) FileService {
	return &fileService{
		repo:       repo,
		content:    content,
		pyramids:   pyramids,
		extractor:  extractor,
		hasher:     NewHasher(),
		norm:       NewNormalizer(cfg.Metadata.GPSDatum),
		sharder:    sharder,
		addressing: cfg.Storage.Addressing,
		merge:      cfg.Storage.Policy == "upsert",
	}
}

// Ingest runs the upload pipeline. The ordering matters: identity hashes and
// both advisory duplicate checks come before any metadata work, relocation
// happens before the record commit so a committed record always points at a
// real file, and the tile build runs last because its failure must not undo
// an otherwise complete ingestion.
func (s *fileService) Ingest(ctx context.Context, upload UploadInput) (*models.UploadResponse, error) {
	staged, size, err := s.content.Stage(ctx, upload.Name, upload.Body)
	if err != nil {
		return nil, err
	}
	// The staged copy is only removed on failure; success relocates it
	committed := false
	defer func() {
		if !committed {
			os.Remove(staged)
		}
	}()

	data, err := os.ReadFile(staged)
	if err != nil {
		return nil, models.StorageError{Operation: "read_staged", Backend: "filesystem", Reason: err.Error()}
	}

	img, err := s.hasher.Decode(upload.Name, data)
	if err != nil {
		return nil, err
	}

	record := &models.FileRecord{
		Name: upload.Name,
		Path: staged,
		Mime: sniffMime(upload.Mime, data),
		Size: size,
	}

	record.PixelHash = s.hasher.PixelHash(img)
	record.PerceptualHash = s.hasher.PerceptualHash(img)
	record.ContentHash = s.hasher.ContentHash(data)
	key := record.AddressingHash(s.addressing)

	if dup, err := s.repo.GetByPerceptualHash(ctx, record.PerceptualHash); err == nil {
		// A perceptual match pointing at the same addressing hash is a
		// re-ingest of this record; under the upsert policy it merges
		// instead of rejecting
		if !s.merge || dup.AddressingHash(s.addressing) != key {
			logger.InfoWithContext(ctx, "Upload rejected as perceptual duplicate",
				zap.String("name", upload.Name),
				zap.String("perceptual_hash", record.PerceptualHash),
				zap.String("existing", dup.Name))
			return nil, models.DuplicateError{Field: "perceptual_hash", Value: record.PerceptualHash}
		}
		logger.InfoWithContext(ctx, "Re-ingest of existing record, merging",
			zap.String("name", upload.Name),
			zap.String("hash", key))
	} else if !models.IsNotFound(err) {
		return nil, err
	}

	tags, err := s.extractor.Extract(ctx, staged)
	if err != nil {
		logger.WarnWithContext(ctx, "Metadata extraction failed, ingesting without tags",
			zap.String("name", upload.Name),
			zap.Error(err))
		tags = models.RawTags{}
	}
	if err := s.norm.Apply(record, tags); err != nil {
		return nil, err
	}

	if record.UniqueID != "" {
		if dup, err := s.repo.GetByUniqueID(ctx, record.UniqueID); err == nil {
			if !s.merge || dup.AddressingHash(s.addressing) != key {
				logger.InfoWithContext(ctx, "Upload rejected as unique ID duplicate",
					zap.String("name", upload.Name),
					zap.String("unique_id", record.UniqueID),
					zap.String("existing", dup.Name))
				return nil, models.DuplicateError{Field: "unique_id", Value: record.UniqueID}
			}
		} else if !models.IsNotFound(err) {
			return nil, err
		}
	}

	record.ShardDir, record.ShardFile = s.sharder.Split(key)

	if err := s.content.Relocate(ctx, record); err != nil {
		return nil, err
	}
	committed = true

	if err := s.repo.Upsert(ctx, key, record, s.merge); err != nil {
		// The file is already in place under its addressing hash; a
		// duplicate here means another record owns the identity
		return nil, err
	}

	tiled := true
	if err := s.pyramids.Build(ctx, record); err != nil {
		tiled = false
		logger.ErrorWithContext(ctx, "Tile pyramid build failed",
			zap.String("name", upload.Name),
			zap.String("hash", key),
			zap.Error(err))
	}

	logger.InfoWithContext(ctx, "File ingested",
		zap.String("name", upload.Name),
		zap.String("pixel_hash", record.PixelHash),
		zap.String("content_hash", record.ContentHash),
		zap.Bool("tiled", tiled))

	return &models.UploadResponse{
		Name:        record.Name,
		PixelHash:   record.PixelHash,
		ContentHash: record.ContentHash,
		Path:        record.StoredName(),
		Tiled:       tiled,
	}, nil
}

// sniffMime trusts the client's declared type only when the sniffed content
// agrees it is an image
func sniffMime(declared string, data []byte) string {
	sniffed := http.DetectContentType(data[:min(len(data), 512)])
	if sniffed != "application/octet-stream" && sniffed != "text/plain; charset=utf-8" {
		return sniffed
	}
	return declared
}
