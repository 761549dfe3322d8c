package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	appinv "github.com/invoicer/backend/internal/application/invoicing"
	infraconfig "github.com/invoicer/backend/internal/infrastructure/config"
)

// Store is what the application needs from an artifact backend
type Store interface {
	appinv.ArtifactStore
	appinv.ArtifactReader
}

// Storage driver names
const (
	DriverS3         = "s3"
	DriverFilesystem = "filesystem"
	DriverStub       = "stub"
)

// New builds the store selected by cfg.Driver. The S3 bucket is created when missing.
func New(ctx context.Context, cfg infraconfig.StorageConfig, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Driver {
	case DriverS3:
		store, err := NewS3ArtifactStore(ctx, cfg, WithLogger(logger))
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return store, nil
	case DriverFilesystem, "":
		return NewFilesystemArtifactStore(cfg.BasePath, logger)
	case DriverStub:
		return NewStubArtifactStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
