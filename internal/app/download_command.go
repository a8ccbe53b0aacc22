package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"romscrape/internal/scraper"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// DownloadCommand scrapes metadata for one ROM and persists it to the cache.
type DownloadCommand struct {
	env      *Env
	systemID string
	romFile  string
	fallback bool
	force    bool
}

// NewDownloadCommand constructs an executable download command.
func NewDownloadCommand(env *Env, systemID, romFile string, fallback, force bool) *DownloadCommand {
	return &DownloadCommand{
		env:      env,
		systemID: systemID,
		romFile:  romFile,
		fallback: fallback,
		force:    force,
	}
}

// Run executes the download command logic.
func (c *DownloadCommand) Run(ctx context.Context) error {
	logger := logutil.GetLogger(ctx)

	if err := c.env.requireSystem(c.systemID); err != nil {
		return err
	}

	if !c.force && c.env.Service.HasMetadata(c.romFile, c.systemID) {
		logger.Info("metadata already cached, skipping",
			zap.String("system", c.systemID),
			zap.String("file", c.romFile),
		)
		return nil
	}

	var (
		md  *scraper.GameMetadata
		err error
	)
	if c.fallback {
		md, err = c.env.Service.DownloadMetadataWithFallback(ctx, c.romFile, c.systemID)
	} else {
		md, err = c.env.Service.DownloadMetadata(ctx, c.romFile, c.systemID)
	}
	if err != nil {
		return err
	}
	if md == nil {
		return fmt.Errorf("no metadata found for %s/%s", c.systemID, c.romFile)
	}

	data, err := json.MarshalIndent(md, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	fmt.Fprintln(os.Stdout, string(data))
	return nil
}
