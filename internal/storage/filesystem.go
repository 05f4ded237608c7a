package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"

	"photark/internal/models"
	"photark/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FilesystemStore implements ContentStore on a local directory tree. Final
// paths are storage_root/<shard_dir><shard_file>.<ext>; the shard portion is
// a pure function of the addressing hash.
type FilesystemStore struct {
	root    string
	staging string
	sharder *Sharder
}

// NewFilesystemStore creates both roots if needed
func NewFilesystemStore(root, staging string, sharder *Sharder) (*FilesystemStore, error) {
	for _, dir := range []string{root, staging} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory %s: %w", dir, err)
		}
	}

	return &FilesystemStore{
		root:    root,
		staging: staging,
		sharder: sharder,
	}, nil
}

// Stage writes an incoming upload into the staging root. A random suffix
// keeps concurrent uploads of identically named files apart.
func (s *FilesystemStore) Stage(ctx context.Context, name string, r io.Reader) (string, int64, error) {
	staged := filepath.Join(s.staging, uuid.New().String()+"_"+filepath.Base(name))

	f, err := os.Create(staged)
	if err != nil {
		return "", 0, models.StorageError{
			Operation: "stage",
			Backend:   "filesystem",
			Reason:    err.Error(),
		}
	}

	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(staged)
		return "", 0, models.StorageError{
			Operation: "stage",
			Backend:   "filesystem",
			Reason:    err.Error(),
		}
	}

	logger.DebugWithContext(ctx, "Upload staged",
		zap.String("name", name),
		zap.String("staged_path", staged),
		zap.Int64("size", n))

	return staged, n, nil
}

// Relocate moves the staged file to its sharded destination and rewrites the
// record's path. The destination directory is created idempotently so
// concurrent uploads racing on the same shard prefix never fail each other.
// A failure here is fatal for the upload and must prevent the record upsert.
func (s *FilesystemStore) Relocate(ctx context.Context, record *models.FileRecord) error {
	dest := filepath.Join(s.root, filepath.FromSlash(record.StoredName()))

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return models.RelocationError{
			Source:      record.Path,
			Destination: dest,
			Reason:      err.Error(),
		}
	}

	if err := moveFile(record.Path, dest); err != nil {
		return models.RelocationError{
			Source:      record.Path,
			Destination: dest,
			Reason:      err.Error(),
		}
	}

	logger.InfoWithContext(ctx, "File relocated into content store",
		zap.String("source", record.Path),
		zap.String("destination", dest))

	record.Path = dest
	return nil
}

// ReadImage reads the stored image addressed by hash
func (s *FilesystemStore) ReadImage(ctx context.Context, hash, ext string) ([]byte, error) {
	path := s.ImagePath(hash, ext)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, models.NotFoundError{Resource: "image", ID: hash}
		}
		return nil, models.StorageError{
			Operation: "read_image",
			Backend:   "filesystem",
			Reason:    err.Error(),
		}
	}

	return data, nil
}

// ImagePath recomputes the final path from the addressing hash
func (s *FilesystemStore) ImagePath(hash, ext string) string {
	dir, file := s.sharder.Split(hash)
	return filepath.Join(s.root, filepath.FromSlash(dir+file+"."+ext))
}

// Health verifies the storage root is writable
func (s *FilesystemStore) Health(ctx context.Context) error {
	probe := filepath.Join(s.root, ".health_"+uuid.New().String())
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		return fmt.Errorf("storage root not writable: %w", err)
	}
	if err := os.Remove(probe); err != nil {
		logger.WarnWithContext(ctx, "Failed to remove health probe file", zap.Error(err))
	}
	return nil
}

// moveFile renames src to dst, falling back to copy-then-delete when the two
// paths live on different volumes. A failure after a partial copy removes the
// partial destination so no record ever references a truncated file.
func moveFile(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	if !isCrossDevice(err) {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("partial copy to %s: %w", dst, err)
	}
	if err := out.Sync(); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return err
	}

	return os.Remove(src)
}

// isCrossDevice detects the EXDEV class of rename failures
func isCrossDevice(err error) bool {
	return errors.Is(err, syscall.EXDEV)
}
