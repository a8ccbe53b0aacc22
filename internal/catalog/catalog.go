// Package catalog loads the system catalog: the list of known emulated
// systems with their per-provider identifiers and scan exclude lists.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// System describes one emulated system known to the catalog.
type System struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Extensions []string `json:"extensions,omitempty"`
	Exclude    []string `json:"exclude,omitempty"`
	Scrapers   Scrapers `json:"scrapers,omitempty"`
}

// Scrapers carries provider-specific identifiers for a system.
type Scrapers struct {
	ScreenScraper ScreenScraperRef `json:"screenscraper,omitempty"`
	IGDB          IGDBRef          `json:"igdb,omitempty"`
}

// ScreenScraperRef holds the numeric ScreenScraper system id, kept as a
// string since it only ever travels as a query parameter.
type ScreenScraperRef struct {
	SystemID string `json:"systemId,omitempty"`
}

// IGDBRef holds the IGDB platform id for a system.
type IGDBRef struct {
	PlatformID string `json:"platformId,omitempty"`
}

// Catalog is the parsed catalog document.
type Catalog struct {
	Systems []System `json:"systems"`
}

// Load reads a catalog from a JSON file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}

	var cat Catalog
	if err := json.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("decode catalog %s: %w", path, err)
	}

	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return &cat, nil
}

// Validate performs basic validation of the catalog document.
func (c *Catalog) Validate() error {
	if len(c.Systems) == 0 {
		return fmt.Errorf("catalog has no systems")
	}
	seen := make(map[string]struct{}, len(c.Systems))
	for i, sys := range c.Systems {
		id := strings.TrimSpace(sys.ID)
		if id == "" {
			return fmt.Errorf("catalog system %d has no id", i)
		}
		key := strings.ToLower(id)
		if _, ok := seen[key]; ok {
			return fmt.Errorf("catalog system id %s duplicated", id)
		}
		seen[key] = struct{}{}
	}
	return nil
}

// Find returns the system with the given id, matched case-insensitively.
func (c *Catalog) Find(systemID string) (System, bool) {
	target := strings.ToLower(strings.TrimSpace(systemID))
	for _, sys := range c.Systems {
		if strings.ToLower(sys.ID) == target {
			return sys, true
		}
	}
	return System{}, false
}

// ScreenScraperSystemID resolves the ScreenScraper id for a system. There is
// no built-in fallback table: an empty result means the catalog carries no
// mapping and the caller decides what to send.
func (c *Catalog) ScreenScraperSystemID(systemID string) (string, bool) {
	sys, ok := c.Find(systemID)
	if !ok {
		return "", false
	}
	id := strings.TrimSpace(sys.Scrapers.ScreenScraper.SystemID)
	if id == "" {
		return "", false
	}
	return id, true
}

// IGDBPlatformID resolves the IGDB platform id for a system. An empty result
// means the catalog carries no mapping.
func (c *Catalog) IGDBPlatformID(systemID string) (string, bool) {
	sys, ok := c.Find(systemID)
	if !ok {
		return "", false
	}
	id := strings.TrimSpace(sys.Scrapers.IGDB.PlatformID)
	if id == "" {
		return "", false
	}
	return id, true
}

// ExcludePatterns returns the scan exclude list configured for a system.
func (c *Catalog) ExcludePatterns(systemID string) []string {
	sys, ok := c.Find(systemID)
	if !ok {
		return nil
	}
	return sys.Exclude
}
