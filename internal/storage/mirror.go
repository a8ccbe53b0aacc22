package storage

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// MirrorResult summarises one mirror pass over the cache directory.
type MirrorResult struct {
	Uploaded int
	Failed   int
}

// MirrorDirectory uploads every regular file under localRoot to the object
// store, keyed by its slash-separated path relative to localRoot and the
// optional prefix. Individual upload failures are logged and counted; only
// walking failures and cancellation abort the pass.
func MirrorDirectory(ctx context.Context, client Client, localRoot, keyPrefix string) (*MirrorResult, error) {
	logger := logutil.GetLogger(ctx)
	result := &MirrorResult{}

	err := filepath.WalkDir(localRoot, func(filePath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(localRoot, filePath)
		if err != nil {
			return fmt.Errorf("relativise %s: %w", filePath, err)
		}
		key := objectKey(keyPrefix, rel)

		if err := client.UploadFile(ctx, key, filePath, ""); err != nil {
			logger.Warn("mirror upload failed",
				zap.String("key", key),
				zap.Error(err),
			)
			result.Failed++
			return nil
		}
		result.Uploaded++
		logger.Debug("mirror upload done", zap.String("key", key))
		return nil
	})
	if err != nil {
		return result, fmt.Errorf("walk %s: %w", localRoot, err)
	}

	logger.Info("mirror pass finished",
		zap.String("root", localRoot),
		zap.Int("uploaded", result.Uploaded),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

// SeedResult summarises one seed pass from the object store.
type SeedResult struct {
	Downloaded int
	Failed     int
	Skipped    int
}

// SeedDirectory downloads every object under the optional key prefix into
// localRoot, reversing the mirror layout: the key relative to the prefix
// becomes the local path. Keys that would escape localRoot are skipped.
// Individual download failures are logged and counted; only listing failures
// and cancellation abort the pass.
func SeedDirectory(ctx context.Context, client Client, localRoot, keyPrefix string) (*SeedResult, error) {
	logger := logutil.GetLogger(ctx)
	result := &SeedResult{}

	listPrefix := strings.Trim(keyPrefix, "/")
	if listPrefix != "" {
		listPrefix += "/"
	}

	keys, err := client.ListKeys(ctx, listPrefix)
	if err != nil {
		return result, fmt.Errorf("list keys under %q: %w", listPrefix, err)
	}

	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		rel := strings.TrimPrefix(key, listPrefix)
		if rel == "" || strings.HasSuffix(rel, "/") || !filepath.IsLocal(filepath.FromSlash(rel)) {
			logger.Warn("seed skipping unsafe key", zap.String("key", key))
			result.Skipped++
			continue
		}

		destPath := filepath.Join(localRoot, filepath.FromSlash(rel))
		if err := client.DownloadToFile(ctx, key, destPath); err != nil {
			logger.Warn("seed download failed",
				zap.String("key", key),
				zap.Error(err),
			)
			result.Failed++
			continue
		}
		result.Downloaded++
		logger.Debug("seed download done", zap.String("key", key))
	}

	logger.Info("seed pass finished",
		zap.String("root", localRoot),
		zap.Int("downloaded", result.Downloaded),
		zap.Int("failed", result.Failed),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

func objectKey(prefix, rel string) string {
	key := filepath.ToSlash(rel)
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return key
	}
	return path.Join(prefix, key)
}
