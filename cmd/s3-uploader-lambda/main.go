package main

import (
	"github.com/aws/aws-lambda-go/lambda"
	upload_v1 "github.com/ozontech/s3-uploader/internal/api/upload/v1"
	"github.com/ozontech/s3-uploader/internal/app/config"
	"github.com/ozontech/s3-uploader/internal/pkg/filestore"
	"github.com/ozontech/s3-uploader/internal/pkg/service/upload"
	"github.com/ozontech/s3-uploader/logger"
	"github.com/ozontech/s3-uploader/tracing"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		logger.Fatal("read config from env error", zap.Error(err))
	}

	if cfg.Tracing != nil {
		if _, err := tracing.Initialize(cfg.Tracing); err != nil {
			logger.Error("tracing initialization failed", zap.Error(err))
		}
	}

	store, err := filestore.New(*cfg.FileStore)
	if err != nil {
		logger.Fatal("failed to init file store", zap.Error(err))
	}

	uploadV1 := upload_v1.New(upload.New(store, *cfg.FileStore), cfg.Handlers.Upload)

	logger.Info("lambda started", zap.String("bucket", store.Bucket()))
	lambda.Start(uploadV1.LambdaHandler().Handle)
}
