package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeCatalog(t, `{
  "systems": [
    {
      "id": "snes",
      "name": "Super Nintendo",
      "extensions": [".sfc", ".smc"],
      "scrapers": {"screenscraper": {"systemId": "4"}, "igdb": {"platformId": "19"}}
    },
    {
      "id": "neogeo",
      "name": "Neo Geo",
      "exclude": ["neogeo.zip", "*.bios"]
    }
  ]
}`)

	cat, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cat.Systems, 2)

	ssid, ok := cat.ScreenScraperSystemID("SNES")
	assert.True(t, ok)
	assert.Equal(t, "4", ssid)

	_, ok = cat.ScreenScraperSystemID("neogeo")
	assert.False(t, ok)

	platform, ok := cat.IGDBPlatformID("snes")
	assert.True(t, ok)
	assert.Equal(t, "19", platform)

	_, ok = cat.IGDBPlatformID("neogeo")
	assert.False(t, ok)

	assert.Equal(t, []string{"neogeo.zip", "*.bios"}, cat.ExcludePatterns("neogeo"))
	assert.Nil(t, cat.ExcludePatterns("unknown"))
}

func TestLoadRejectsEmpty(t *testing.T) {
	path := writeCatalog(t, `{"systems": []}`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsDuplicateIDs(t *testing.T) {
	path := writeCatalog(t, `{"systems": [{"id": "snes"}, {"id": "SNES"}]}`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestFindCaseInsensitive(t *testing.T) {
	cat := &Catalog{Systems: []System{{ID: "Mega-Drive"}}}
	sys, ok := cat.Find(" mega-drive ")
	assert.True(t, ok)
	assert.Equal(t, "Mega-Drive", sys.ID)
}
