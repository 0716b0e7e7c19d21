package filestore

import (
	"context"
	"errors"
	"time"

	"github.com/ozontech/s3-uploader/metric"
)

const (
	putErrorOther       = "other"
	putErrorTimeout     = "timeout"
	putErrorCtxCanceled = "context canceled"
)

type metricFileStore struct {
	FileStore
	provider string
}

// WithMetrics records duration and errors of every Put.
func WithMetrics(store FileStore, provider string) FileStore {
	return &metricFileStore{
		FileStore: store,
		provider:  provider,
	}
}

func (s *metricFileStore) Put(ctx context.Context, key string, content []byte, contentType string) error {
	start := time.Now()
	err := s.FileStore.Put(ctx, key, content, contentType)
	metric.FileStorePutDuration.WithLabelValues(s.provider).Observe(time.Since(start).Seconds())

	incErrorMetric(ctx, err, s.provider)
	return err
}

// incErrorMetric classifies by ctx first: aws-sdk reports cancellation
// with its own error codes instead of wrapping context errors.
func incErrorMetric(ctx context.Context, err error, provider string) {
	if err == nil {
		return
	}

	var putErr string
	switch {
	case errors.Is(err, context.Canceled), errors.Is(ctx.Err(), context.Canceled):
		putErr = putErrorCtxCanceled
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		putErr = putErrorTimeout
	default:
		putErr = putErrorOther
	}

	metric.FileStorePutErrors.WithLabelValues(provider, putErr).Inc()
}
