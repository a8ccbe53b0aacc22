package scraper

import (
	"context"

	"romscrape/internal/catalog"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// Service is the facade the outside world talks to. It selects the active
// provider through the registry and exposes the cached-read, single-download
// and batch operations; callers never touch adapters directly.
type Service struct {
	registry    *Registry
	dl          *Downloader
	cat         *catalog.Catalog
	defaultType Type
}

// NewService wires the facade. defaultType selects the provider used by the
// non-fallback operations.
func NewService(registry *Registry, dl *Downloader, cat *catalog.Catalog, defaultType Type) *Service {
	return &Service{
		registry:    registry,
		dl:          dl,
		cat:         cat,
		defaultType: defaultType,
	}
}

// DefaultType returns the active provider type.
func (s *Service) DefaultType() Type {
	return s.defaultType
}

// SetDefaultType switches the active provider.
func (s *Service) SetDefaultType(t Type) {
	s.defaultType = t
}

// GetMetadata returns the cached metadata document for a ROM, or nil when
// absent. Never touches the network.
func (s *Service) GetMetadata(romFileName, systemID string) *GameMetadata {
	return s.dl.GetCachedMetadata(systemID, romFileName)
}

// HasMetadata reports whether a cache entry exists for the ROM.
func (s *Service) HasMetadata(romFileName, systemID string) bool {
	return s.dl.HasMetadata(systemID, romFileName)
}

// DownloadMetadata scrapes one ROM with the default provider. A nil result
// with nil error means the provider found nothing.
func (s *Service) DownloadMetadata(ctx context.Context, romFileName, systemID string) (*GameMetadata, error) {
	sc, err := s.registry.Get(s.defaultType)
	if err != nil {
		return nil, err
	}
	return s.dl.DownloadMetadata(ctx, sc, romFileName, systemID)
}

// DownloadMetadataWithFallback tries the default provider first, then every
// other registered provider until one yields a result.
func (s *Service) DownloadMetadataWithFallback(ctx context.Context, romFileName, systemID string) (*GameMetadata, error) {
	md, err := s.DownloadMetadata(ctx, romFileName, systemID)
	if err != nil || md != nil {
		return md, err
	}

	logger := logutil.GetLogger(ctx)
	for _, t := range Types() {
		if t == s.defaultType {
			continue
		}
		sc, err := s.registry.Get(t)
		if err != nil {
			return nil, err
		}
		logger.Info("retrying with fallback provider",
			zap.String("provider", string(t)),
			zap.String("file", romFileName),
		)
		md, err := s.dl.DownloadMetadata(ctx, sc, romFileName, systemID)
		if err != nil || md != nil {
			return md, err
		}
	}
	return nil, nil
}

// DownloadSystem batch-scrapes one system. Catalog exclude patterns are
// merged with those supplied in opts.
func (s *Service) DownloadSystem(ctx context.Context, systemID, romsRoot string, onProgress ProgressFunc, opts BatchOptions) (*SystemDownloadResult, error) {
	sc, err := s.registry.Get(s.defaultType)
	if err != nil {
		return nil, err
	}
	opts.Exclude = append(append([]string{}, s.cat.ExcludePatterns(systemID)...), opts.Exclude...)
	return s.dl.DownloadSystem(ctx, sc, systemID, romsRoot, onProgress, opts)
}

// DownloadAll batch-scrapes every catalog system and sums the per-system
// totals. A system whose directory cannot be read is logged and counted as
// a zero-item result; the run continues with the next system.
func (s *Service) DownloadAll(ctx context.Context, romsRoot string, onProgress func(systemID string, current, total int, fileName string), opts BatchOptions) (*AllDownloadResult, error) {
	logger := logutil.GetLogger(ctx)

	all := &AllDownloadResult{}
	for _, sys := range s.cat.Systems {
		systemID := sys.ID

		var progress ProgressFunc
		if onProgress != nil {
			progress = func(current, total int, fileName string) {
				onProgress(systemID, current, total, fileName)
			}
		}

		res, err := s.DownloadSystem(ctx, systemID, romsRoot, progress, opts)
		if err != nil {
			if ctx.Err() != nil {
				return all, err
			}
			logger.Warn("system batch skipped",
				zap.String("system", systemID),
				zap.Error(err),
			)
			res = &SystemDownloadResult{SystemID: systemID}
		}

		all.Systems = append(all.Systems, *res)
		all.Processed += res.Processed
		all.Created += res.Created
		all.Skipped += res.Skipped
		all.Failed += res.Failed
	}
	return all, nil
}
