package storage

import (
	"context"
)

// Client abstracts the subset of object store operations the cache mirror
// and seed passes need.
type Client interface {
	UploadFile(ctx context.Context, key, filePath string, contentType string) error
	DownloadToFile(ctx context.Context, key, destPath string) error
	ListKeys(ctx context.Context, prefix string) ([]string, error)
	ClearBucket(ctx context.Context) error
}
