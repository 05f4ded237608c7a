package repository

import (
	"fmt"

	"photark/internal/config"
)

// NewFileRepository builds the record store backend selected by configuration
func NewFileRepository(cfg *config.Config) (FileRepository, error) {
	switch cfg.Repo.Type {
	case "badger":
		return NewBadgerRepository(cfg.Repo.Directory)
	case "redis":
		return NewRedisRepository(&cfg.Redis)
	default:
		return nil, fmt.Errorf("unknown record store type: %s", cfg.Repo.Type)
	}
}
