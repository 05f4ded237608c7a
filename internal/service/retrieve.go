package service

import (
	"context"

	"photark/internal/models"
)

// Info returns the stored record and its formatted photography summary. The
// hash resolves against the addressing index first, then the other identity
// indexes, so clients can address a file by any hash they hold.
func (s *fileService) Info(ctx context.Context, hash string) (*models.InfoResponse, error) {
	record, err := s.lookup(ctx, hash)
	if err != nil {
		return nil, err
	}

	info := record.ToInfoResponse(Summary(record.Metadata))
	return &info, nil
}

// Image returns the stored original's bytes and MIME type
func (s *fileService) Image(ctx context.Context, hash string) ([]byte, string, error) {
	record, err := s.lookup(ctx, hash)
	if err != nil {
		return nil, "", err
	}

	data, err := s.content.ReadImage(ctx, record.AddressingHash(s.addressing), record.Extension())
	if err != nil {
		return nil, "", err
	}

	return data, record.Mime, nil
}

// Tile returns one deep-zoom tile. The record lookup runs first so an
// unknown hash and a missing tile both surface as the same NotFound class.
func (s *fileService) Tile(ctx context.Context, hash string, zoom, x, y int) ([]byte, error) {
	record, err := s.lookup(ctx, hash)
	if err != nil {
		return nil, err
	}

	return s.pyramids.Tile(ctx, record.AddressingHash(s.addressing), zoom, x, y)
}

// lookup resolves a hash of any of the three kinds to its record
func (s *fileService) lookup(ctx context.Context, hash string) (*models.FileRecord, error) {
	record, err := s.repo.Get(ctx, hash)
	if err == nil {
		return record, nil
	}
	if !models.IsNotFound(err) {
		return nil, err
	}

	switch len(hash) {
	case models.ContentHashLen:
		// Addressing may be pixel-based while the client holds the
		// content hash, or the reverse
		if record, err := s.repo.GetByContentHash(ctx, hash); err == nil {
			return record, nil
		} else if !models.IsNotFound(err) {
			return nil, err
		}
		if record, err := s.repo.GetByPixelHash(ctx, hash); err == nil {
			return record, nil
		} else if !models.IsNotFound(err) {
			return nil, err
		}
	case models.PerceptualHashLen:
		if record, err := s.repo.GetByPerceptualHash(ctx, hash); err == nil {
			return record, nil
		} else if !models.IsNotFound(err) {
			return nil, err
		}
	}

	return nil, models.NotFoundError{Resource: "file", ID: hash}
}
