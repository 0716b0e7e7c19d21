package filestore

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/ozontech/s3-uploader/internal/app/config"
)

type s3FileStore struct {
	uploader *s3manager.Uploader

	bucketName string
}

// NewS3 creates AWS S3 file store. Without static credentials the default
// AWS credential chain is used (env, shared config, instance role).
func NewS3(cfg config.FileStore) (FileStore, error) {
	awsCfg := aws.Config{
		Region:           aws.String(cfg.S3.Region),
		S3ForcePathStyle: aws.Bool(cfg.S3.ForcePathStyle),
		DisableSSL:       aws.Bool(cfg.S3.DisableSSL),
	}
	if cfg.S3.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.S3.Endpoint)
	}
	if cfg.S3.AccessKeyID != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(
			cfg.S3.AccessKeyID, cfg.S3.SecretAccessKey, cfg.S3.SessionToken,
		)
	}

	s3Session, err := session.NewSessionWithOptions(session.Options{
		Config: awsCfg,
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 session: %w", err)
	}

	client := s3.New(s3Session)

	return &s3FileStore{
		uploader:   s3manager.NewUploaderWithClient(client),
		bucketName: cfg.BucketName,
	}, nil
}

func (s *s3FileStore) Put(ctx context.Context, key string, content []byte, contentType string) error {
	input := &s3manager.UploadInput{
		Key:    aws.String(key),
		Bucket: aws.String(s.bucketName),
		Body:   bytes.NewReader(content),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	_, err := s.uploader.UploadWithContext(ctx, input)
	return err
}

func (s *s3FileStore) Bucket() string {
	return s.bucketName
}
