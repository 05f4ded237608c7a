package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"photark/internal/models"
	"photark/pkg/logger"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

// Key layout. Records live under their addressing-hash key; the index
// entries map each secondary identity back to that key. Keeping record and
// indexes in one transaction is what makes the uniqueness guarantee atomic.
const (
	recordPrefix          = "file:record:"
	contentIndexPrefix    = "file:index:content:"
	pixelIndexPrefix      = "file:index:pixel:"
	perceptualIndexPrefix = "file:index:perceptual:"
	uniqueIndexPrefix     = "file:index:unique:"
)

// BadgerRepository implements FileRepository on embedded BadgerDB
type BadgerRepository struct {
	db        *badger.DB
	directory string
}

var _ FileRepository = (*BadgerRepository)(nil)

// NewBadgerRepository opens (creating if needed) the BadgerDB record store
func NewBadgerRepository(directory string) (*BadgerRepository, error) {
	logger.Info("Initializing BadgerDB record store",
		zap.String("directory", directory))

	if err := os.MkdirAll(directory, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create record store directory: %w", err)
	}

	opts := badger.DefaultOptions(directory)
	opts.Logger = &badgerLogger{} // BadgerDB's own logging is too chatty

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB: %w", err)
	}

	return &BadgerRepository{db: db, directory: directory}, nil
}

// Upsert stores the record and its index entries in a single transaction
func (b *BadgerRepository) Upsert(ctx context.Context, key string, record *models.FileRecord, merge bool) error {
	if err := record.Validate(); err != nil {
		return err
	}

	// The body never mutates record so the transaction can be retried
	upsertTxn := func(txn *badger.Txn) error {
		stored := record

		existing, err := getRecord(txn, recordPrefix+key)
		if err != nil && err != badger.ErrKeyNotFound {
			return err
		}

		if existing != nil {
			if !merge {
				return models.DuplicateError{Field: "addressing_hash", Value: key}
			}
			// Re-ingestion of a known addressing hash: the new fields win,
			// stale index entries for replaced identities are removed
			if existing.PerceptualHash != record.PerceptualHash {
				_ = txn.Delete([]byte(perceptualIndexPrefix + existing.PerceptualHash))
			}
			if existing.UniqueID != "" && existing.UniqueID != record.UniqueID {
				_ = txn.Delete([]byte(uniqueIndexPrefix + existing.UniqueID))
			}
			if existing.ContentHash != record.ContentHash {
				_ = txn.Delete([]byte(contentIndexPrefix + existing.ContentHash))
			}
			existing.MergeFrom(record)
			stored = existing
		} else {
			fresh := *record
			now := time.Now()
			fresh.CreatedAt = now
			fresh.UpdatedAt = now
			stored = &fresh
		}

		// Uniqueness of content and pixel hash across all records
		for _, idx := range []struct{ prefix, value string }{
			{contentIndexPrefix, stored.ContentHash},
			{pixelIndexPrefix, stored.PixelHash},
		} {
			owner, err := getIndex(txn, idx.prefix+idx.value)
			if err != nil && err != badger.ErrKeyNotFound {
				return err
			}
			if err == nil && owner != key {
				return models.DuplicateError{Field: "addressing_hash", Value: idx.value}
			}
		}

		data, err := json.Marshal(stored)
		if err != nil {
			return fmt.Errorf("failed to marshal record: %w", err)
		}
		if err := txn.Set([]byte(recordPrefix+key), data); err != nil {
			return err
		}

		indexes := map[string]string{
			contentIndexPrefix + stored.ContentHash:       key,
			pixelIndexPrefix + stored.PixelHash:           key,
			perceptualIndexPrefix + stored.PerceptualHash: key,
		}
		if stored.UniqueID != "" {
			indexes[uniqueIndexPrefix+stored.UniqueID] = key
		}
		for k, v := range indexes {
			if err := txn.Set([]byte(k), []byte(v)); err != nil {
				return err
			}
		}

		return nil
	}

	err := b.db.Update(upsertTxn)
	if errors.Is(err, badger.ErrConflict) {
		// A racing upsert won the commit; the rerun observes its writes
		// and reports the duplicate instead of a transient failure
		err = b.db.Update(upsertTxn)
	}

	if err != nil {
		if _, ok := err.(models.DuplicateError); ok {
			return err
		}
		if _, ok := err.(models.ValidationError); ok {
			return err
		}
		logger.ErrorWithContext(ctx, "Failed to upsert file record",
			zap.String("key", key),
			zap.Error(err))
		return models.StorageError{
			Operation: "upsert",
			Backend:   "badger",
			Reason:    err.Error(),
		}
	}

	logger.DebugWithContext(ctx, "File record upserted",
		zap.String("key", key))

	return nil
}

// Get retrieves the record stored under an addressing-hash key
func (b *BadgerRepository) Get(ctx context.Context, key string) (*models.FileRecord, error) {
	var record *models.FileRecord

	err := b.db.View(func(txn *badger.Txn) error {
		var err error
		record, err = getRecord(txn, recordPrefix+key)
		return err
	})

	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, models.NotFoundError{Resource: "file", ID: key}
		}
		return nil, models.StorageError{
			Operation: "get",
			Backend:   "badger",
			Reason:    err.Error(),
		}
	}

	return record, nil
}

// GetByContentHash looks up the record owning a content hash
func (b *BadgerRepository) GetByContentHash(ctx context.Context, hash string) (*models.FileRecord, error) {
	return b.getViaIndex(ctx, contentIndexPrefix+hash, "content_hash", hash)
}

// GetByPixelHash looks up the record owning a pixel hash
func (b *BadgerRepository) GetByPixelHash(ctx context.Context, hash string) (*models.FileRecord, error) {
	return b.getViaIndex(ctx, pixelIndexPrefix+hash, "pixel_hash", hash)
}

// GetByPerceptualHash looks up a record with the exact perceptual hash
func (b *BadgerRepository) GetByPerceptualHash(ctx context.Context, hash string) (*models.FileRecord, error) {
	return b.getViaIndex(ctx, perceptualIndexPrefix+hash, "perceptual_hash", hash)
}

// GetByUniqueID looks up a record with the camera-assigned unique ID
func (b *BadgerRepository) GetByUniqueID(ctx context.Context, id string) (*models.FileRecord, error) {
	return b.getViaIndex(ctx, uniqueIndexPrefix+id, "unique_id", id)
}

// Count returns the number of stored records
func (b *BadgerRepository) Count(ctx context.Context) (int64, error) {
	var count int64

	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		iter := txn.NewIterator(opts)
		defer iter.Close()

		prefix := []byte(recordPrefix)
		for iter.Seek(prefix); iter.ValidForPrefix(prefix); iter.Next() {
			count++
		}
		return nil
	})

	return count, err
}

// Health verifies the store answers a round-trip
func (b *BadgerRepository) Health(ctx context.Context) error {
	testKey := fmt.Sprintf("health:check:%d", time.Now().UnixNano())

	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(testKey), []byte("ok"))
	})
	if err != nil {
		return fmt.Errorf("BadgerDB write test failed: %w", err)
	}

	err = b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(testKey))
	})
	if err != nil {
		logger.WarnWithContext(ctx, "Failed to cleanup health check key", zap.Error(err))
	}

	return nil
}

// Close closes the record store
func (b *BadgerRepository) Close() error {
	logger.Info("Closing BadgerDB record store")
	return b.db.Close()
}

// getViaIndex resolves an index entry to its record
func (b *BadgerRepository) getViaIndex(ctx context.Context, indexKey, field, value string) (*models.FileRecord, error) {
	var record *models.FileRecord

	err := b.db.View(func(txn *badger.Txn) error {
		owner, err := getIndex(txn, indexKey)
		if err != nil {
			return err
		}
		record, err = getRecord(txn, recordPrefix+owner)
		return err
	})

	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, models.NotFoundError{Resource: field, ID: value}
		}
		return nil, models.StorageError{
			Operation: "get_by_" + field,
			Backend:   "badger",
			Reason:    err.Error(),
		}
	}

	return record, nil
}

// getRecord reads and unmarshals a record inside a transaction
func getRecord(txn *badger.Txn, key string) (*models.FileRecord, error) {
	item, err := txn.Get([]byte(key))
	if err != nil {
		return nil, err
	}

	var record models.FileRecord
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &record)
	})
	if err != nil {
		return nil, err
	}

	return &record, nil
}

// getIndex reads an index entry inside a transaction
func getIndex(txn *badger.Txn, key string) (string, error) {
	item, err := txn.Get([]byte(key))
	if err != nil {
		return "", err
	}

	var owner string
	err = item.Value(func(val []byte) error {
		owner = string(val)
		return nil
	})
	return owner, err
}

// badgerLogger implements badger.Logger to suppress BadgerDB's verbosity
type badgerLogger struct{}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	if strings.Contains(format, "ERROR") || strings.Contains(format, "error") {
		logger.Error("BadgerDB error", zap.String("message", fmt.Sprintf(format, args...)))
	}
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {}

func (l *badgerLogger) Infof(format string, args ...interface{}) {}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {}
