package app

import (
	"fmt"

	"romscrape/internal/catalog"
	"romscrape/internal/config"
	"romscrape/internal/scraper"
)

// Env bundles the long-lived collaborators every command needs: the parsed
// catalog and the scraping service wired over cache, downloader and provider
// registry.
type Env struct {
	Cfg     *config.Config
	Catalog *catalog.Catalog
	Service *scraper.Service
}

// NewEnv builds the shared command environment from configuration.
func NewEnv(cfg *config.Config) (*Env, error) {
	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	cache := scraper.NewCache(cfg.AppDataRoot)
	dl := scraper.NewDownloader(cache)
	registry := scraper.NewRegistry(cfg.Credentials(), cat.ScreenScraperSystemID, cat.IGDBPlatformID)
	svc := scraper.NewService(registry, dl, cat, cfg.DefaultScraperType())

	return &Env{
		Cfg:     cfg,
		Catalog: cat,
		Service: svc,
	}, nil
}

// requireSystem validates that the catalog knows the system id.
func (e *Env) requireSystem(systemID string) error {
	if _, ok := e.Catalog.Find(systemID); !ok {
		return fmt.Errorf("unknown system %q", systemID)
	}
	return nil
}
