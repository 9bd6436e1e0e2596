package storage

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/prn-tf/alexander-files/internal/config"
)

// New creates the backend selected by cfg.Backend.
func New(ctx context.Context, cfg config.StorageConfig, logger zerolog.Logger) (Backend, error) {
	switch cfg.Backend {
	case "filesystem":
		return NewFilesystem(cfg.DataDir, logger)
	case "s3":
		return NewS3(ctx, cfg.S3, logger)
	case "minio":
		return NewMinIO(ctx, cfg.S3, logger)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
