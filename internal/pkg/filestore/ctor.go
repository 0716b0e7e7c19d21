package filestore

import (
	"fmt"

	"github.com/ozontech/s3-uploader/internal/app/config"
	"github.com/ozontech/s3-uploader/logger"
	"go.uber.org/zap"
)

// New creates file store for configured provider wrapped with metrics.
func New(cfg config.FileStore) (FileStore, error) {
	var (
		store FileStore
		err   error
	)

	switch cfg.Provider {
	case config.FileStoreProviderS3:
		store, err = NewS3(cfg)
	case config.FileStoreProviderMinio:
		store, err = NewMinio(cfg)
	default:
		return nil, fmt.Errorf("unknown file store provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s file store: %w", cfg.Provider, err)
	}

	logger.Info("file store created",
		zap.String("provider", cfg.Provider),
		zap.String("bucket", cfg.BucketName),
		zap.String("endpoint", cfg.S3.Endpoint),
	)

	return WithMetrics(store, cfg.Provider), nil
}
