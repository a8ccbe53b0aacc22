package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"romscrape/internal/scraper"
)

// DownloadAllCommand batch-scrapes every system listed in the catalog.
type DownloadAllCommand struct {
	env  *Env
	opts scraper.BatchOptions
}

// NewDownloadAllCommand constructs an executable download-all command.
func NewDownloadAllCommand(env *Env, opts scraper.BatchOptions) *DownloadAllCommand {
	return &DownloadAllCommand{env: env, opts: opts}
}

// Run executes the download-all command logic.
func (c *DownloadAllCommand) Run(ctx context.Context) error {
	start := time.Now().Unix()
	all, err := c.env.Service.DownloadAll(ctx, c.env.Cfg.RomsRoot,
		func(systemID string, current, total int, fileName string) {
			fmt.Fprintf(os.Stdout, "[%s %d/%d] %s\n", systemID, current, total, fileName)
		},
		c.opts,
	)
	if err != nil {
		return err
	}

	end := time.Now().Unix()
	results := make([]*scraper.SystemDownloadResult, 0, len(all.Systems))
	for i := range all.Systems {
		results = append(results, &all.Systems[i])
	}
	recordRuns(ctx, c.env.Cfg, string(c.env.Service.DefaultType()), start, end, results...)

	fmt.Fprintf(os.Stdout, "total: processed=%d created=%d skipped=%d failed=%d\n",
		all.Processed, all.Created, all.Skipped, all.Failed)
	return nil
}
