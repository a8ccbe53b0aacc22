package scraper

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"romscrape/internal/romname"
)

// Cache stores per-ROM metadata documents and downloaded media files under
// <root>/metadata/<systemId>/. The root is the application data directory,
// not the ROMs root, so metadata survives ROM folder reorganisation.
//
// Writes for the same ROM are serialised through a per-entry lock so a manual
// download racing a batch run cannot interleave partial files; the last
// writer wins.
type Cache struct {
	root string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewCache builds a cache anchored at the given application data root.
func NewCache(appDataRoot string) *Cache {
	return &Cache{
		root:  appDataRoot,
		locks: make(map[string]*sync.Mutex),
	}
}

// Root returns the application data root the cache is anchored at.
func (c *Cache) Root() string {
	return c.root
}

// MetadataRoot returns the directory holding all cached metadata.
func (c *Cache) MetadataRoot() string {
	return filepath.Join(c.root, "metadata")
}

// SystemDir returns the cache directory for a system.
func (c *Cache) SystemDir(systemID string) string {
	return filepath.Join(c.MetadataRoot(), systemID)
}

// DocumentPath returns the metadata JSON path for a ROM.
func (c *Cache) DocumentPath(systemID, romFileName string) string {
	return filepath.Join(c.SystemDir(systemID), romname.Base(romFileName)+".json")
}

// Has reports whether a metadata document exists for the ROM. It never
// touches the network and treats any stat failure as "absent".
func (c *Cache) Has(systemID, romFileName string) bool {
	info, err := os.Stat(c.DocumentPath(systemID, romFileName))
	return err == nil && !info.IsDir()
}

// Read returns the cached metadata document, or nil when it is missing or
// unreadable. Corrupt cache entries count as absent, never as errors.
func (c *Cache) Read(systemID, romFileName string) *GameMetadata {
	data, err := os.ReadFile(c.DocumentPath(systemID, romFileName))
	if err != nil {
		return nil
	}
	var md GameMetadata
	if err := json.Unmarshal(data, &md); err != nil {
		return nil
	}
	return &md
}

// Write persists the metadata document, creating the system directory as
// needed. IO failures propagate to the caller.
func (c *Cache) Write(systemID, romFileName string, md *GameMetadata) error {
	dir := c.SystemDir(systemID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure cache dir %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(md, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata for %s: %w", romFileName, err)
	}

	path := c.DocumentPath(systemID, romFileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write metadata %s: %w", path, err)
	}
	return nil
}

// WriteAsset stores a downloaded media file next to the metadata document.
// The suffix carries the semantic slot, e.g. "_cover" or "_video-normalized";
// ext includes the leading dot.
func (c *Cache) WriteAsset(systemID, romFileName, suffix, ext string, data []byte) (string, error) {
	dir := c.SystemDir(systemID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("ensure cache dir %s: %w", dir, err)
	}

	path := filepath.Join(dir, romname.Base(romFileName)+suffix+ext)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write asset %s: %w", path, err)
	}
	return path, nil
}

// RemoveAssets deletes every previously downloaded media file for the ROM.
// Used before a forced re-download so a new scrape cannot leave stale assets
// from the old one behind. The metadata document itself is left alone.
func (c *Cache) RemoveAssets(systemID, romFileName string) error {
	dir := c.SystemDir(systemID)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read cache dir %s: %w", dir, err)
	}

	prefix := romname.Base(romFileName) + "_"
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("remove stale asset %s: %w", path, err)
		}
	}
	return nil
}

// Lock acquires the per-ROM write lock and returns its release function.
func (c *Cache) Lock(systemID, romFileName string) func() {
	key := systemID + "/" + romname.Base(romFileName)

	c.mu.Lock()
	lock, ok := c.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		c.locks[key] = lock
	}
	c.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
