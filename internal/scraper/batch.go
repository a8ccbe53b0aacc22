package scraper

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"romscrape/internal/romname"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

const defaultBatchDelay = time.Second

// DownloadSystem scrapes every ROM file of one system directory, one file at
// a time. The algorithm is provider-independent and shared by all adapters:
// enumerate, filter excludes, skip cached entries unless forced, download
// with a fixed pause between network-touching files, and record a per-file
// outcome. Individual failures never abort the batch; only a failed
// directory listing or a cancelled context ends the run early.
func (d *Downloader) DownloadSystem(ctx context.Context, sc Scraper, systemID, romsRoot string, onProgress ProgressFunc, opts BatchOptions) (*SystemDownloadResult, error) {
	logger := logutil.GetLogger(ctx)

	systemDir := filepath.Join(romsRoot, systemID)
	romFiles, err := listRomFiles(systemDir, opts.Exclude)
	if err != nil {
		return nil, err
	}

	delay := opts.Delay
	if delay <= 0 {
		delay = defaultBatchDelay
	}

	result := &SystemDownloadResult{
		SystemID:  systemID,
		Processed: len(romFiles),
		Items:     make([]DownloadItem, 0, len(romFiles)),
	}

	for i, romFile := range romFiles {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if onProgress != nil {
			onProgress(i+1, len(romFiles), romFile)
		}

		if !opts.Force && d.cache.Has(systemID, romFile) {
			result.Skipped++
			result.Items = append(result.Items, DownloadItem{FileName: romFile, Status: StatusSkipped})
			// Cache hits make no network call, so no pacing needed.
			continue
		}

		md, err := d.DownloadMetadata(ctx, sc, romFile, systemID)
		switch {
		case err != nil:
			logger.Error("download metadata failed",
				zap.String("system", systemID),
				zap.String("file", romFile),
				zap.Error(err),
			)
			result.Failed++
			result.Items = append(result.Items, DownloadItem{FileName: romFile, Status: StatusFailed})
		case md == nil:
			result.Failed++
			result.Items = append(result.Items, DownloadItem{FileName: romFile, Status: StatusFailed})
		default:
			result.Created++
			result.Items = append(result.Items, DownloadItem{FileName: romFile, Status: StatusCreated, Metadata: md})
		}

		if i < len(romFiles)-1 {
			if err := sleepCtx(ctx, delay); err != nil {
				return result, err
			}
		}
	}

	logger.Info("system batch finished",
		zap.String("system", systemID),
		zap.Int("processed", result.Processed),
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

// listRomFiles enumerates regular files in the system directory and drops
// those matching the exclude patterns, keeping enumeration order stable.
func listRomFiles(systemDir string, exclude []string) ([]string, error) {
	entries, err := os.ReadDir(systemDir)
	if err != nil {
		return nil, fmt.Errorf("read system dir %s: %w", systemDir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if romname.ShouldExclude(entry.Name(), exclude) {
			continue
		}
		files = append(files, entry.Name())
	}
	sort.Strings(files)
	return files, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
