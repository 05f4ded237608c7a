package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"photark/internal/models"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Tiles     TilesConfig
	Metadata  MetadataConfig
	Repo      RepoConfig
	Redis     RedisConfig
	Upload    UploadConfig
	RateLimit RateLimitConfig
	Logger    LoggerConfig
	CORS      CORSConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port    string
	GinMode string
}

// StorageConfig holds the content-addressable store configuration
type StorageConfig struct {
	Root        string                    // final sharded image tree
	StagingRoot string                    // incoming uploads before relocation
	ChunkWidth  int                       // hex characters per shard segment
	Depth       int                       // number of directory segments
	Addressing  models.AddressingHashKind // which hash drives the shard path
	Policy      string                    // "reject" or "upsert" on addressing conflict
}

// TilesConfig holds pyramid generation parameters
type TilesConfig struct {
	Size    int // tile edge in pixels
	Overlap int // pixels shared between adjacent tiles
	Quality int // tile JPEG quality
}

// MetadataConfig holds metadata extraction and validation parameters
type MetadataConfig struct {
	ExiftoolPath string
	GPSDatum     string // accepted GPS map datum
}

// RepoConfig selects and configures the record store backend
type RepoConfig struct {
	Type      string // "badger" or "redis"
	Directory string // BadgerDB files (type=badger)
}

// RedisConfig holds Redis record store configuration
type RedisConfig struct {
	URL      string
	Password string
	DB       int
	PoolSize int
	Timeout  time.Duration
}

// UploadConfig holds upload limits
type UploadConfig struct {
	MaxFileSize int64
}

// RateLimitConfig holds rate limiting configuration (requests per minute)
type RateLimitConfig struct {
	Upload   int
	Download int
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level  string // "debug", "info", "warn", "error"
	Format string // "json", "console"
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	Enabled         bool
	AllowAllOrigins bool
	AllowedOrigins  []string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for development)
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port:    getEnv("PORT", "8080"),
			GinMode: getEnv("GIN_MODE", "release"),
		},
		Storage: StorageConfig{
			Root:        getEnv("STORAGE_ROOT", "./data/storage"),
			StagingRoot: getEnv("STAGING_ROOT", "./data/staging"),
			ChunkWidth:  getEnvInt("SHARD_CHUNK_WIDTH", 2),
			Depth:       getEnvInt("SHARD_DEPTH", 6),
			Addressing:  models.AddressingHashKind(getEnv("ADDRESSING_HASH", "pixel")),
			Policy:      getEnv("ADDRESSING_POLICY", "reject"),
		},
		Tiles: TilesConfig{
			Size:    getEnvInt("TILE_SIZE", 256),
			Overlap: getEnvInt("TILE_OVERLAP", 1),
			Quality: getEnvInt("TILE_QUALITY", 85),
		},
		Metadata: MetadataConfig{
			ExiftoolPath: getEnv("EXIFTOOL_PATH", "exiftool"),
			GPSDatum:     getEnv("GPS_DATUM", "WGS-84"),
		},
		Repo: RepoConfig{
			Type:      getEnv("REPO_TYPE", "badger"),
			Directory: getEnv("REPO_DIRECTORY", "./data/records"),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", "redis://localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			PoolSize: getEnvInt("REDIS_POOL_SIZE", 10),
			Timeout:  time.Duration(getEnvInt("REDIS_TIMEOUT", 5)) * time.Second,
		},
		Upload: UploadConfig{
			MaxFileSize: int64(getEnvInt("MAX_FILE_SIZE", 52428800)), // 50MB default
		},
		RateLimit: RateLimitConfig{
			Upload:   getEnvInt("RATE_LIMIT_UPLOAD", 10),
			Download: getEnvInt("RATE_LIMIT_DOWNLOAD", 120),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		CORS: CORSConfig{
			Enabled:         getEnvBool("CORS_ENABLED", true),
			AllowAllOrigins: getEnvBool("CORS_ALLOW_ALL_ORIGINS", false),
			AllowedOrigins:  getEnvStringSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration; shard parameters are checked here so
// a malformed sharder configuration is fatal at startup, never at request time
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}

	if c.Storage.Root == "" {
		return fmt.Errorf("STORAGE_ROOT is required")
	}
	if c.Storage.StagingRoot == "" {
		return fmt.Errorf("STAGING_ROOT is required")
	}
	if c.Storage.ChunkWidth <= 0 {
		return fmt.Errorf("SHARD_CHUNK_WIDTH must be a positive integer")
	}
	if c.Storage.Depth < 0 {
		return fmt.Errorf("SHARD_DEPTH must not be negative")
	}
	if c.Storage.Addressing != models.AddressingPixel && c.Storage.Addressing != models.AddressingContent {
		return fmt.Errorf("ADDRESSING_HASH must be one of: pixel, content")
	}
	validPolicies := []string{"reject", "upsert"}
	if !contains(validPolicies, c.Storage.Policy) {
		return fmt.Errorf("ADDRESSING_POLICY must be one of: %s", strings.Join(validPolicies, ", "))
	}

	if c.Tiles.Size <= 0 {
		return fmt.Errorf("TILE_SIZE must be a positive integer")
	}
	if c.Tiles.Overlap < 0 || c.Tiles.Overlap >= c.Tiles.Size {
		return fmt.Errorf("TILE_OVERLAP must be non-negative and smaller than TILE_SIZE")
	}
	if c.Tiles.Quality < 1 || c.Tiles.Quality > 100 {
		return fmt.Errorf("TILE_QUALITY must be between 1 and 100")
	}

	if c.Metadata.GPSDatum == "" {
		return fmt.Errorf("GPS_DATUM cannot be empty")
	}

	validRepoTypes := []string{"badger", "redis"}
	if !contains(validRepoTypes, c.Repo.Type) {
		return fmt.Errorf("REPO_TYPE must be one of: %s", strings.Join(validRepoTypes, ", "))
	}
	if c.Repo.Type == "badger" && c.Repo.Directory == "" {
		return fmt.Errorf("REPO_DIRECTORY is required when REPO_TYPE=badger")
	}
	if c.Repo.Type == "redis" && c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required when REPO_TYPE=redis")
	}

	if c.Upload.MaxFileSize <= 0 {
		return fmt.Errorf("MAX_FILE_SIZE must be positive")
	}

	if c.RateLimit.Upload <= 0 || c.RateLimit.Download <= 0 {
		return fmt.Errorf("rate limits must be positive integers")
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.Logger.Level) {
		return fmt.Errorf("LOG_LEVEL must be one of: %s", strings.Join(validLogLevels, ", "))
	}
	validLogFormats := []string{"json", "console"}
	if !contains(validLogFormats, c.Logger.Format) {
		return fmt.Errorf("LOG_FORMAT must be one of: %s", strings.Join(validLogFormats, ", "))
	}

	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.GinMode == "debug" || c.Logger.Format == "console"
}

// Helper functions for environment variable parsing

// getEnv returns environment variable value or default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns environment variable as integer or default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvBool returns environment variable as boolean or default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvStringSlice returns environment variable as string slice or default
func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		result := make([]string, 0, len(parts))
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}

// contains checks if slice contains value
func contains(slice []string, value string) bool {
	for _, item := range slice {
		if item == value {
			return true
		}
	}
	return false
}
