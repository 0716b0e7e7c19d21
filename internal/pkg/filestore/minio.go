package filestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/ozontech/s3-uploader/internal/app/config"
)

type minioFileStore struct {
	client *minio.Client

	bucketName string
}

// NewMinio creates file store for S3-compatible endpoints (MinIO, Ceph,
// localstack). Endpoint may be given with or without scheme.
func NewMinio(cfg config.FileStore) (FileStore, error) {
	endpoint, secure, err := parseEndpoint(cfg.S3.Endpoint, !cfg.S3.DisableSSL)
	if err != nil {
		return nil, err
	}

	opts := &minio.Options{
		Secure: secure,
		Region: cfg.S3.Region,
	}
	if cfg.S3.AccessKeyID != "" {
		opts.Creds = credentials.NewStaticV4(cfg.S3.AccessKeyID, cfg.S3.SecretAccessKey, cfg.S3.SessionToken)
	} else {
		opts.Creds = credentials.NewEnvAWS()
	}
	if cfg.S3.ForcePathStyle {
		opts.BucketLookup = minio.BucketLookupPath
	}

	client, err := minio.New(endpoint, opts)
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &minioFileStore{
		client:     client,
		bucketName: cfg.BucketName,
	}, nil
}

func (s *minioFileStore) Put(ctx context.Context, key string, content []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucketName, key,
		bytes.NewReader(content), int64(len(content)),
		minio.PutObjectOptions{ContentType: contentType},
	)
	return err
}

func (s *minioFileStore) Bucket() string {
	return s.bucketName
}

// parseEndpoint returns host[:port] as minio expects it. Scheme, when
// present, overrides the secure flag.
func parseEndpoint(endpoint string, secure bool) (string, bool, error) {
	if endpoint == "" {
		return "", false, errors.New("empty endpoint")
	}
	if !strings.Contains(endpoint, "://") {
		return strings.TrimSuffix(endpoint, "/"), secure, nil
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return "", false, fmt.Errorf("parse endpoint %q: %w", endpoint, err)
	}
	if u.Host == "" {
		return "", false, fmt.Errorf("endpoint %q has no host", endpoint)
	}

	switch u.Scheme {
	case "https":
		secure = true
	case "http":
		secure = false
	default:
		return "", false, fmt.Errorf("unsupported endpoint scheme %q", u.Scheme)
	}

	return u.Host, secure, nil
}
