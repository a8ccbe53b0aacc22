package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"romscrape/internal/storage"
)

// SeedCommand restores the metadata cache from an S3-compatible object store,
// the counterpart of MirrorCommand for provisioning a fresh machine.
type SeedCommand struct {
	env *Env
}

// NewSeedCommand constructs an executable seed command.
func NewSeedCommand(env *Env) *SeedCommand {
	return &SeedCommand{env: env}
}

// Run executes the seed command logic.
func (c *SeedCommand) Run(ctx context.Context) error {
	if c.env.Cfg.S3 == nil {
		return errors.New("seed requires an s3 section in the configuration")
	}

	client, err := storage.NewS3Client(ctx, *c.env.Cfg.S3)
	if err != nil {
		return err
	}

	cacheRoot := filepath.Join(c.env.Cfg.AppDataRoot, "metadata")
	res, err := storage.SeedDirectory(ctx, client, cacheRoot, c.env.Cfg.S3.Prefix)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "seeded %d files (%d failed, %d skipped)\n", res.Downloaded, res.Failed, res.Skipped)
	if res.Failed > 0 {
		return fmt.Errorf("%d downloads failed", res.Failed)
	}
	return nil
}
