package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	infraconfig "github.com/erp/kanban/internal/infrastructure/config"
)

// Storage drivers
const (
	DriverNone       = "none"
	DriverMemory     = "memory"
	DriverFileSystem = "filesystem"
	DriverS3         = "s3"
)

// New creates the configured document store. The none driver returns a nil
// store, meaning documents are only handed back to the caller.
func New(ctx context.Context, cfg *infraconfig.StorageConfig, logger *zap.Logger) (DocumentStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Driver {
	case "", DriverNone:
		return nil, nil
	case DriverMemory:
		return NewMemoryStorage(cfg.BaseURL), nil
	case DriverFileSystem:
		return NewFileSystemStorage(&FileSystemStorageConfig{
			BasePath: cfg.BasePath,
			BaseURL:  cfg.BaseURL,
			Logger:   logger,
		})
	case DriverS3:
		s, err := NewS3Storage(cfg, WithLogger(logger))
		if err != nil {
			return nil, err
		}
		if err := s.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
