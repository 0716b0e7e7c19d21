package upload

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ozontech/s3-uploader/internal/app/config"
	"github.com/ozontech/s3-uploader/internal/app/types"
	"github.com/ozontech/s3-uploader/internal/pkg/filestore"
	"github.com/ozontech/s3-uploader/internal/pkg/multipart"
	"github.com/ozontech/s3-uploader/metric"
	"github.com/ozontech/s3-uploader/tracing"
	"go.opentelemetry.io/otel/attribute"
)

type Service interface {
	Upload(ctx context.Context, req types.UploadRequest) (types.UploadResult, error)
}

type service struct {
	store filestore.FileStore

	putTimeout      time.Duration
	storageDomain   string
	publicURLPrefix string
}

func New(store filestore.FileStore, cfg config.FileStore) Service {
	return &service{
		store:           store,
		putTimeout:      cfg.PutTimeout,
		storageDomain:   cfg.StorageDomain,
		publicURLPrefix: cfg.PublicURLPrefix,
	}
}

// Upload extracts the file from multipart request and puts it into the
// bucket under its original filename.
func (s *service) Upload(ctx context.Context, req types.UploadRequest) (types.UploadResult, error) {
	ctx, span := tracing.StartSpan(ctx, "upload_service_upload")
	defer span.End()

	file, err := multipart.Extract(req.Headers, req.Body, req.IsBase64Encoded)
	if err != nil {
		metric.UploadExtractErrors.WithLabelValues(types.KindOf(err).String()).Inc()
		return types.UploadResult{}, err
	}

	// metadata only, uploads are never rejected by detected type
	contentType := mimetype.Detect(file.Content).String()

	span.SetAttributes(
		attribute.String("filename", file.Filename),
		attribute.Int("size", len(file.Content)),
		attribute.String("content_type", contentType),
	)

	if err = s.put(ctx, file, contentType); err != nil {
		return types.UploadResult{}, types.NewErrStorage(err)
	}

	metric.UploadSucceeded.Inc()
	metric.UploadFileSize.WithLabelValues(baseMediaType(contentType)).Observe(float64(len(file.Content)))

	return types.UploadResult{
		Filename:    file.Filename,
		URL:         ObjectURL(s.store.Bucket(), s.storageDomain, s.publicURLPrefix, file.Filename),
		Size:        len(file.Content),
		ContentType: contentType,
	}, nil
}

func (s *service) put(ctx context.Context, file types.ExtractedFile, contentType string) error {
	if s.putTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.putTimeout)
		defer cancel()
	}

	return s.store.Put(ctx, file.Filename, file.Content, contentType)
}

// ObjectURL returns public URL of the object:
// https://<bucket>.<domain>/<key>, or <prefix>/<key> when prefix is set.
func ObjectURL(bucket, domain, prefix, key string) string {
	if prefix != "" {
		return strings.TrimSuffix(prefix, "/") + "/" + key
	}
	return fmt.Sprintf("https://%s.%s/%s", bucket, domain, key)
}

func baseMediaType(contentType string) string {
	base, _, _ := strings.Cut(contentType, ";")
	return strings.TrimSpace(base)
}
