package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"romscrape/internal/scraper"
)

// DownloadSystemCommand batch-scrapes every ROM of one system.
type DownloadSystemCommand struct {
	env      *Env
	systemID string
	opts     scraper.BatchOptions
}

// NewDownloadSystemCommand constructs an executable download-system command.
func NewDownloadSystemCommand(env *Env, systemID string, opts scraper.BatchOptions) *DownloadSystemCommand {
	return &DownloadSystemCommand{env: env, systemID: systemID, opts: opts}
}

// Run executes the download-system command logic.
func (c *DownloadSystemCommand) Run(ctx context.Context) error {
	if err := c.env.requireSystem(c.systemID); err != nil {
		return err
	}

	start := time.Now().Unix()
	res, err := c.env.Service.DownloadSystem(ctx, c.systemID, c.env.Cfg.RomsRoot,
		func(current, total int, fileName string) {
			fmt.Fprintf(os.Stdout, "[%d/%d] %s\n", current, total, fileName)
		},
		c.opts,
	)
	if err != nil {
		return err
	}
	recordRuns(ctx, c.env.Cfg, string(c.env.Service.DefaultType()), start, time.Now().Unix(), res)

	fmt.Fprintf(os.Stdout, "%s: processed=%d created=%d skipped=%d failed=%d\n",
		res.SystemID, res.Processed, res.Created, res.Skipped, res.Failed)
	return nil
}
