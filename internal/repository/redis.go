package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"photark/internal/config"
	"photark/internal/models"
	"photark/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RedisRepository implements FileRepository on a shared Redis instance.
// Index entries are claimed with SETNX so concurrent ingests of the same
// content race safely: exactly one writer wins each identity.
type RedisRepository struct {
	client *redis.Client
}

var _ FileRepository = (*RedisRepository)(nil)

// NewRedisRepository connects to Redis using a redis:// URL; explicit
// credentials and pool settings from config override the URL's
func NewRedisRepository(cfg *config.RedisConfig) (*RedisRepository, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	if cfg.DB != 0 {
		opts.DB = cfg.DB
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.Timeout > 0 {
		opts.DialTimeout = cfg.Timeout
		opts.ReadTimeout = cfg.Timeout
		opts.WriteTimeout = cfg.Timeout
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Connected to Redis record store",
		zap.String("addr", opts.Addr))

	return &RedisRepository{client: client}, nil
}

// Upsert stores the record and claims its index entries
func (r *RedisRepository) Upsert(ctx context.Context, key string, record *models.FileRecord, merge bool) error {
	if err := record.Validate(); err != nil {
		return err
	}

	existing, err := r.load(ctx, recordPrefix+key)
	if err != nil && err != redis.Nil {
		return models.StorageError{Operation: "upsert", Backend: "redis", Reason: err.Error()}
	}

	if existing != nil {
		if !merge {
			return models.DuplicateError{Field: "addressing_hash", Value: key}
		}
		stale := []string{}
		if existing.PerceptualHash != record.PerceptualHash {
			stale = append(stale, perceptualIndexPrefix+existing.PerceptualHash)
		}
		if existing.UniqueID != "" && existing.UniqueID != record.UniqueID {
			stale = append(stale, uniqueIndexPrefix+existing.UniqueID)
		}
		if existing.ContentHash != record.ContentHash {
			stale = append(stale, contentIndexPrefix+existing.ContentHash)
		}
		if len(stale) > 0 {
			if err := r.client.Del(ctx, stale...).Err(); err != nil {
				return models.StorageError{Operation: "upsert", Backend: "redis", Reason: err.Error()}
			}
		}
		existing.MergeFrom(record)
		record = existing
	} else {
		now := time.Now()
		record.CreatedAt = now
		record.UpdatedAt = now
	}

	// Claim the uniqueness-bearing indexes first. A lost claim means some
	// other record already owns that identity.
	for _, idx := range []struct{ key, value string }{
		{contentIndexPrefix + record.ContentHash, record.ContentHash},
		{pixelIndexPrefix + record.PixelHash, record.PixelHash},
	} {
		set, err := r.client.SetNX(ctx, idx.key, key, 0).Result()
		if err != nil {
			return models.StorageError{Operation: "upsert", Backend: "redis", Reason: err.Error()}
		}
		if !set {
			owner, err := r.client.Get(ctx, idx.key).Result()
			if err != nil && err != redis.Nil {
				return models.StorageError{Operation: "upsert", Backend: "redis", Reason: err.Error()}
			}
			if owner != key {
				return models.DuplicateError{Field: "addressing_hash", Value: idx.value}
			}
		}
	}

	data, err := json.Marshal(record)
	if err != nil {
		return models.StorageError{Operation: "upsert", Backend: "redis", Reason: err.Error()}
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, recordPrefix+key, data, 0)
	pipe.Set(ctx, perceptualIndexPrefix+record.PerceptualHash, key, 0)
	if record.UniqueID != "" {
		pipe.Set(ctx, uniqueIndexPrefix+record.UniqueID, key, 0)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		logger.ErrorWithContext(ctx, "Failed to upsert file record",
			zap.String("key", key),
			zap.Error(err))
		return models.StorageError{Operation: "upsert", Backend: "redis", Reason: err.Error()}
	}

	logger.DebugWithContext(ctx, "File record upserted",
		zap.String("key", key))

	return nil
}

// Get retrieves the record stored under an addressing-hash key
func (r *RedisRepository) Get(ctx context.Context, key string) (*models.FileRecord, error) {
	record, err := r.load(ctx, recordPrefix+key)
	if err != nil {
		if err == redis.Nil {
			return nil, models.NotFoundError{Resource: "file", ID: key}
		}
		return nil, models.StorageError{Operation: "get", Backend: "redis", Reason: err.Error()}
	}
	return record, nil
}

// GetByContentHash looks up the record owning a content hash
func (r *RedisRepository) GetByContentHash(ctx context.Context, hash string) (*models.FileRecord, error) {
	return r.getViaIndex(ctx, contentIndexPrefix+hash, "content_hash", hash)
}

// GetByPixelHash looks up the record owning a pixel hash
func (r *RedisRepository) GetByPixelHash(ctx context.Context, hash string) (*models.FileRecord, error) {
	return r.getViaIndex(ctx, pixelIndexPrefix+hash, "pixel_hash", hash)
}

// GetByPerceptualHash looks up a record with the exact perceptual hash
func (r *RedisRepository) GetByPerceptualHash(ctx context.Context, hash string) (*models.FileRecord, error) {
	return r.getViaIndex(ctx, perceptualIndexPrefix+hash, "perceptual_hash", hash)
}

// GetByUniqueID looks up a record with the camera-assigned unique ID
func (r *RedisRepository) GetByUniqueID(ctx context.Context, id string) (*models.FileRecord, error) {
	return r.getViaIndex(ctx, uniqueIndexPrefix+id, "unique_id", id)
}

// Count returns the number of stored records
func (r *RedisRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	var cursor uint64

	for {
		keys, next, err := r.client.Scan(ctx, cursor, recordPrefix+"*", 1000).Result()
		if err != nil {
			return 0, models.StorageError{Operation: "count", Backend: "redis", Reason: err.Error()}
		}
		count += int64(len(keys))
		cursor = next
		if cursor == 0 {
			break
		}
	}

	return count, nil
}

// Health pings the Redis server
func (r *RedisRepository) Health(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("Redis ping failed: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func (r *RedisRepository) Close() error {
	logger.Info("Closing Redis record store")
	return r.client.Close()
}

func (r *RedisRepository) getViaIndex(ctx context.Context, indexKey, field, value string) (*models.FileRecord, error) {
	owner, err := r.client.Get(ctx, indexKey).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, models.NotFoundError{Resource: field, ID: value}
		}
		return nil, models.StorageError{Operation: "get_by_" + field, Backend: "redis", Reason: err.Error()}
	}

	record, err := r.load(ctx, recordPrefix+owner)
	if err != nil {
		if err == redis.Nil {
			return nil, models.NotFoundError{Resource: field, ID: value}
		}
		return nil, models.StorageError{Operation: "get_by_" + field, Backend: "redis", Reason: err.Error()}
	}

	return record, nil
}

func (r *RedisRepository) load(ctx context.Context, key string) (*models.FileRecord, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, err
	}

	var record models.FileRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, err
	}

	return &record, nil
}
