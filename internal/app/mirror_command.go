package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"romscrape/internal/storage"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// MirrorCommand uploads the metadata cache to an S3-compatible object store.
type MirrorCommand struct {
	env   *Env
	purge bool
}

// NewMirrorCommand constructs an executable mirror command.
func NewMirrorCommand(env *Env, purge bool) *MirrorCommand {
	return &MirrorCommand{env: env, purge: purge}
}

// Run executes the mirror command logic.
func (c *MirrorCommand) Run(ctx context.Context) error {
	if c.env.Cfg.S3 == nil {
		return errors.New("mirror requires an s3 section in the configuration")
	}

	client, err := storage.NewS3Client(ctx, *c.env.Cfg.S3)
	if err != nil {
		return err
	}

	if c.purge {
		logutil.GetLogger(ctx).Info("clearing mirror bucket",
			zap.String("bucket", c.env.Cfg.S3.Bucket),
		)
		if err := client.ClearBucket(ctx); err != nil {
			return err
		}
	}

	cacheRoot := filepath.Join(c.env.Cfg.AppDataRoot, "metadata")
	res, err := storage.MirrorDirectory(ctx, client, cacheRoot, c.env.Cfg.S3.Prefix)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "mirrored %d files (%d failed)\n", res.Uploaded, res.Failed)
	if res.Failed > 0 {
		return fmt.Errorf("%d uploads failed", res.Failed)
	}
	return nil
}
