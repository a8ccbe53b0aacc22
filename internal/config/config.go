package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"romscrape/internal/scraper"
)

// Config describes the application level configuration loaded from json.
type Config struct {
	// RomsRoot is the directory holding one subdirectory per system.
	RomsRoot string `json:"romsRoot"`
	// AppDataRoot is where the metadata cache and journal live.
	AppDataRoot string `json:"appDataRoot"`
	// CatalogPath points at the system catalog document.
	CatalogPath string `json:"catalogPath"`

	Scrapers ScrapersConfig `json:"scrapers"`
	Journal  JournalConfig  `json:"journal,omitempty"`
	S3       *S3Config      `json:"s3,omitempty"`
}

// ScrapersConfig selects the default provider and carries credentials.
type ScrapersConfig struct {
	Default       string                           `json:"default,omitempty"`
	ScreenScraper scraper.ScreenScraperCredentials `json:"screenscraper,omitempty"`
	IGDB          scraper.IGDBCredentials          `json:"igdb,omitempty"`
}

// JournalConfig tunes the scrape run journal.
type JournalConfig struct {
	// Path overrides the journal database location; empty means
	// <appDataRoot>/journal.db.
	Path string `json:"path,omitempty"`
	// Disabled turns run recording off entirely.
	Disabled bool `json:"disabled,omitempty"`
}

// S3Config holds the options for mirroring the cache to an object store.
type S3Config struct {
	Host            string `json:"host"`
	Bucket          string `json:"bucket"`
	Region          string `json:"region"`
	AccessKeyID     string `json:"accessKeyId"`
	SecretAccessKey string `json:"secretAccessKey"`
	SessionToken    string `json:"sessionToken,omitempty"`
	ForcePathStyle  bool   `json:"forcePathStyle,omitempty"`
	// Prefix is prepended to every uploaded object key.
	Prefix string `json:"prefix,omitempty"`
}

// LoadFirst tries to load configuration from the given paths, returning the
// first successfully decoded configuration. If none of the paths contain a
// readable config, an error is returned.
func LoadFirst(paths ...string) (*Config, error) {
	var lastErr error
	for _, path := range paths {
		if path == "" {
			continue
		}
		cfg, err := Load(path)
		if errors.Is(err, os.ErrNotExist) {
			lastErr = err
			continue
		}
		if err != nil {
			return nil, err
		}
		return cfg, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("config not found in paths: %v", paths)
	}
	return nil, lastErr
}

// Load reads configuration from a single json file path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate performs basic validation of the configuration.
func (c *Config) Validate() error {
	if c.RomsRoot == "" {
		return errors.New("config.romsRoot must be set")
	}
	if c.AppDataRoot == "" {
		return errors.New("config.appDataRoot must be set")
	}
	if c.CatalogPath == "" {
		return errors.New("config.catalogPath must be set")
	}
	if c.Scrapers.Default != "" {
		if _, err := scraper.ParseType(c.Scrapers.Default); err != nil {
			return fmt.Errorf("config.scrapers.default: %w", err)
		}
	}
	if c.S3 != nil {
		if c.S3.Host == "" {
			return errors.New("config.s3.host must be set")
		}
		if c.S3.Bucket == "" {
			return errors.New("config.s3.bucket must be set")
		}
	}
	return nil
}

// DefaultScraperType resolves the configured default provider, falling back
// to ScreenScraper when unset.
func (c *Config) DefaultScraperType() scraper.Type {
	if c.Scrapers.Default == "" {
		return scraper.TypeScreenScraper
	}
	t, err := scraper.ParseType(c.Scrapers.Default)
	if err != nil {
		return scraper.TypeScreenScraper
	}
	return t
}

// Credentials bundles the configured provider credentials.
func (c *Config) Credentials() scraper.Credentials {
	return scraper.Credentials{
		ScreenScraper: c.Scrapers.ScreenScraper,
		IGDB:          c.Scrapers.IGDB,
	}
}

// JournalPath resolves the journal database location.
func (c *Config) JournalPath() string {
	if c.Journal.Path != "" {
		return c.Journal.Path
	}
	return filepath.Join(c.AppDataRoot, "journal.db")
}
