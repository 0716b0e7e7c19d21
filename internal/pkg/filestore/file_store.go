package filestore

import "context"

//go:generate mockgen -destination=mock/file_store.go -package=mock . FileStore

// FileStore writes objects into a single pre-provisioned bucket.
type FileStore interface {
	Put(ctx context.Context, key string, content []byte, contentType string) error
	Bucket() string
}
