package app

import (
	"context"

	"romscrape/internal/config"
	"romscrape/internal/journal"
	"romscrape/internal/scraper"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// recordRuns appends one journal row per system result. Journal failures are
// logged but never fail the scrape that produced the results.
func recordRuns(ctx context.Context, cfg *config.Config, provider string, start, end int64, results ...*scraper.SystemDownloadResult) {
	if cfg.Journal.Disabled {
		return
	}
	logger := logutil.GetLogger(ctx)

	j, err := journal.Open(ctx, cfg.JournalPath())
	if err != nil {
		logger.Warn("open journal failed", zap.Error(err))
		return
	}
	defer j.Close()

	for _, res := range results {
		items := make([]journal.ItemOutcome, 0, len(res.Items))
		for _, item := range res.Items {
			items = append(items, journal.ItemOutcome{
				FileName: item.FileName,
				Status:   string(item.Status),
			})
		}
		run := &journal.Run{
			SystemID:  res.SystemID,
			Provider:  provider,
			Processed: res.Processed,
			Created:   res.Created,
			Skipped:   res.Skipped,
			Failed:    res.Failed,
			StartTime: start,
			EndTime:   end,
			Items:     items,
		}
		if err := j.RecordRun(ctx, run); err != nil {
			logger.Warn("record journal run failed",
				zap.String("system", res.SystemID),
				zap.Error(err),
			)
		}
	}
}
