package scraper

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// outcomeScraper maps ROM base names to canned results, letting a batch mix
// hits, misses and hard failures.
type outcomeScraper struct {
	games map[string]*ScrapedGame
	errs  map[string]error
	calls []string
}

func (o *outcomeScraper) Name() string { return "outcome" }

func (o *outcomeScraper) SearchGame(ctx context.Context, romFileName, systemID string) (*ScrapedGame, error) {
	o.calls = append(o.calls, romFileName)
	if err, ok := o.errs[romFileName]; ok {
		return nil, err
	}
	return o.games[romFileName], nil
}

func (o *outcomeScraper) ImageType(mediaType string) (ImageType, bool) { return "", false }
func (o *outcomeScraper) VideoType(mediaType string) (VideoType, bool) { return "", false }
func (o *outcomeScraper) ImageQualityPriority(img ImageType, mediaType, format string) int {
	return 0
}

func writeRomFiles(t *testing.T, romsRoot, systemID string, names ...string) {
	t.Helper()
	dir := filepath.Join(romsRoot, systemID)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("rom"), 0o644))
	}
}

func TestDownloadSystemMixedOutcomes(t *testing.T) {
	romsRoot := t.TempDir()
	writeRomFiles(t, romsRoot, "neogeo", "found.zip", "missing.zip", "broken.zip")

	cache := NewCache(t.TempDir())
	dl := NewDownloader(cache)

	sc := &outcomeScraper{
		games: map[string]*ScrapedGame{
			"found.zip": {ID: "1", Name: "Found Game"},
		},
		errs: map[string]error{
			"broken.zip": errors.New("boom"),
		},
	}

	var progress []string
	res, err := dl.DownloadSystem(context.Background(), sc, "neogeo", romsRoot,
		func(current, total int, fileName string) {
			progress = append(progress, fileName)
			assert.Equal(t, 3, total)
			assert.Equal(t, len(progress), current, "progress index is 1-based")
		},
		BatchOptions{Delay: time.Millisecond},
	)
	require.NoError(t, err)

	assert.Equal(t, "neogeo", res.SystemID)
	assert.Equal(t, 3, res.Processed)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 0, res.Skipped)
	assert.Equal(t, 2, res.Failed)
	require.Len(t, res.Items, 3)

	// Enumeration is sorted, so outcomes arrive in name order.
	assert.Equal(t, []string{"broken.zip", "found.zip", "missing.zip"}, progress)
	assert.Equal(t, StatusFailed, res.Items[0].Status)
	assert.Equal(t, StatusCreated, res.Items[1].Status)
	require.NotNil(t, res.Items[1].Metadata)
	assert.Equal(t, "Found Game", res.Items[1].Metadata.Name)
	assert.Equal(t, StatusFailed, res.Items[2].Status)

	assert.True(t, cache.Has("neogeo", "found.zip"))
	assert.False(t, cache.Has("neogeo", "missing.zip"))
}

func TestDownloadSystemSkipsCachedEntries(t *testing.T) {
	romsRoot := t.TempDir()
	writeRomFiles(t, romsRoot, "snes", "a.sfc", "b.sfc")

	dl := NewDownloader(NewCache(t.TempDir()))
	sc := &outcomeScraper{games: map[string]*ScrapedGame{
		"a.sfc": {ID: "1", Name: "A"},
		"b.sfc": {ID: "2", Name: "B"},
	}}

	first, err := dl.DownloadSystem(context.Background(), sc, "snes", romsRoot, nil, BatchOptions{Delay: time.Millisecond})
	require.NoError(t, err)
	assert.Equal(t, 2, first.Created)

	second, err := dl.DownloadSystem(context.Background(), sc, "snes", romsRoot, nil, BatchOptions{Delay: time.Millisecond})
	require.NoError(t, err)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 2, second.Skipped)
	assert.Len(t, sc.calls, 2, "cached entries must not hit the provider again")
}

func TestDownloadSystemForceRedownloads(t *testing.T) {
	romsRoot := t.TempDir()
	writeRomFiles(t, romsRoot, "snes", "a.sfc")

	dl := NewDownloader(NewCache(t.TempDir()))
	sc := &outcomeScraper{games: map[string]*ScrapedGame{
		"a.sfc": {ID: "1", Name: "A"},
	}}

	_, err := dl.DownloadSystem(context.Background(), sc, "snes", romsRoot, nil, BatchOptions{Delay: time.Millisecond})
	require.NoError(t, err)

	res, err := dl.DownloadSystem(context.Background(), sc, "snes", romsRoot, nil, BatchOptions{Force: true, Delay: time.Millisecond})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 0, res.Skipped)
	assert.Len(t, sc.calls, 2)
}

func TestDownloadSystemAppliesExcludes(t *testing.T) {
	romsRoot := t.TempDir()
	writeRomFiles(t, romsRoot, "snes", "game.sfc", "game (Beta).sfc", "bios.sfc")

	dl := NewDownloader(NewCache(t.TempDir()))
	sc := &outcomeScraper{games: map[string]*ScrapedGame{
		"game.sfc": {ID: "1", Name: "Game"},
	}}

	res, err := dl.DownloadSystem(context.Background(), sc, "snes", romsRoot, nil, BatchOptions{
		Exclude: []string{"*(Beta)*", "bios.sfc"},
		Delay:   time.Millisecond,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Processed)
	assert.Equal(t, []string{"game.sfc"}, sc.calls)
}

func TestDownloadSystemIgnoresSubdirectories(t *testing.T) {
	romsRoot := t.TempDir()
	writeRomFiles(t, romsRoot, "snes", "game.sfc")
	require.NoError(t, os.MkdirAll(filepath.Join(romsRoot, "snes", "saves"), 0o755))

	dl := NewDownloader(NewCache(t.TempDir()))
	sc := &outcomeScraper{games: map[string]*ScrapedGame{
		"game.sfc": {ID: "1", Name: "Game"},
	}}

	res, err := dl.DownloadSystem(context.Background(), sc, "snes", romsRoot, nil, BatchOptions{Delay: time.Millisecond})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Processed)
}

func TestDownloadSystemMissingDirectoryFails(t *testing.T) {
	dl := NewDownloader(NewCache(t.TempDir()))
	sc := &outcomeScraper{}

	res, err := dl.DownloadSystem(context.Background(), sc, "nonexistent", t.TempDir(), nil, BatchOptions{})
	assert.Error(t, err)
	assert.Nil(t, res)
}

func TestDownloadSystemHonoursCancellation(t *testing.T) {
	romsRoot := t.TempDir()
	writeRomFiles(t, romsRoot, "snes", "a.sfc", "b.sfc", "c.sfc")

	dl := NewDownloader(NewCache(t.TempDir()))
	sc := &outcomeScraper{games: map[string]*ScrapedGame{
		"a.sfc": {ID: "1", Name: "A"},
	}}

	ctx, cancel := context.WithCancel(context.Background())
	res, err := dl.DownloadSystem(ctx, sc, "snes", romsRoot,
		func(current, total int, fileName string) {
			if current == 1 {
				cancel()
			}
		},
		// A long delay would stall the run if cancellation were ignored.
		BatchOptions{Delay: time.Minute},
	)
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res)
	assert.Less(t, len(sc.calls), 3)
}

func TestSleepCtxReturnsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepCtx(ctx, time.Minute), context.Canceled)
}
