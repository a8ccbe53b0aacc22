package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeScraper returns a canned game; classification mimics ScreenScraper's
// wheel handling so selection logic can be exercised without the network.
type fakeScraper struct {
	game      *ScrapedGame
	searchErr error
	calls     int
}

func (f *fakeScraper) Name() string { return "fake" }

func (f *fakeScraper) SearchGame(ctx context.Context, romFileName, systemID string) (*ScrapedGame, error) {
	f.calls++
	return f.game, f.searchErr
}

func (f *fakeScraper) ImageType(mediaType string) (ImageType, bool) {
	switch mediaType {
	case "wheel", "wheel-hd":
		return ImageWheel, true
	case "cover":
		return ImageCover, true
	}
	return "", false
}

func (f *fakeScraper) VideoType(mediaType string) (VideoType, bool) {
	if mediaType == "video-normalized" {
		return VideoNormalized, true
	}
	return "", false
}

func (f *fakeScraper) ImageQualityPriority(img ImageType, mediaType, format string) int {
	if mediaType == "wheel-hd" {
		return 10
	}
	if mediaType == "wheel" {
		return 7
	}
	return 0
}

func TestSelectBestImagesPrefersHigherScore(t *testing.T) {
	sc := &fakeScraper{}
	best := selectBestImages(sc, []ScrapedMedia{
		{Type: "wheel", URL: "A"},
		{Type: "wheel-hd", URL: "B"},
	})

	require.Contains(t, best, ImageWheel)
	assert.Equal(t, "B", best[ImageWheel].URL)
}

func TestSelectBestImagesFirstSeenWinsTies(t *testing.T) {
	sc := &fakeScraper{}
	best := selectBestImages(sc, []ScrapedMedia{
		{Type: "cover", URL: "first"},
		{Type: "cover", URL: "second"},
	})
	assert.Equal(t, "first", best[ImageCover].URL)
}

func TestSelectBestImagesIgnoresUnknownTypes(t *testing.T) {
	sc := &fakeScraper{}
	best := selectBestImages(sc, []ScrapedMedia{{Type: "manual", URL: "X"}})
	assert.Empty(t, best)
}

func TestDownloadMetadataNotFound(t *testing.T) {
	dl := NewDownloader(NewCache(t.TempDir()))
	sc := &fakeScraper{game: nil}

	md, err := dl.DownloadMetadata(context.Background(), sc, "missing.zip", "neogeo")
	require.NoError(t, err)
	assert.Nil(t, md)
	assert.False(t, dl.HasMetadata("neogeo", "missing.zip"))
}

func TestDownloadMetadataPersistsDocumentAndAssets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/cover.png":
			w.Header().Set("Content-Type", "image/png")
			w.Write([]byte("png-bytes"))
		case "/clip":
			w.Header().Set("Content-Type", "video/webm")
			w.Write([]byte("webm-bytes"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	cache := NewCache(t.TempDir())
	dl := NewDownloader(cache)
	sc := &fakeScraper{game: &ScrapedGame{
		ID:   "77",
		Name: "Metal Slug 5",
		Media: []ScrapedMedia{
			{Type: "cover", URL: srv.URL + "/cover.png"},
			{Type: "video-normalized", URL: srv.URL + "/clip"},
		},
	}}

	md, err := dl.DownloadMetadata(context.Background(), sc, "mslug5.zip", "neogeo")
	require.NoError(t, err)
	require.NotNil(t, md)

	wantCover := filepath.Join(cache.SystemDir("neogeo"), "mslug5_cover.png")
	assert.Equal(t, wantCover, md.Images[ImageCover])
	wantVideo := filepath.Join(cache.SystemDir("neogeo"), "mslug5_video-normalized.webm")
	assert.Equal(t, wantVideo, md.Videos[VideoNormalized])

	for _, path := range []string{wantCover, wantVideo} {
		_, err := os.Stat(path)
		assert.NoError(t, err, path)
	}

	cached := dl.GetCachedMetadata("neogeo", "mslug5.zip")
	require.NotNil(t, cached)
	assert.Equal(t, md, cached)
}

func TestDownloadMetadataSurvivesAssetFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	dl := NewDownloader(NewCache(t.TempDir()))
	sc := &fakeScraper{game: &ScrapedGame{
		ID:    "1",
		Name:  "Broken Media",
		Media: []ScrapedMedia{{Type: "cover", URL: srv.URL + "/x"}},
	}}

	md, err := dl.DownloadMetadata(context.Background(), sc, "game.zip", "snes")
	require.NoError(t, err)
	require.NotNil(t, md)
	assert.Empty(t, md.Images)
	assert.True(t, dl.HasMetadata("snes", "game.zip"))
}

func TestForcedRedownloadDropsStaleAssets(t *testing.T) {
	cache := NewCache(t.TempDir())
	dl := NewDownloader(cache)

	stale, err := cache.WriteAsset("snes", "game.zip", "_title", ".jpg", []byte("old"))
	require.NoError(t, err)

	sc := &fakeScraper{game: &ScrapedGame{ID: "2", Name: "Game"}}
	md, err := dl.DownloadMetadata(context.Background(), sc, "game.zip", "snes")
	require.NoError(t, err)
	require.NotNil(t, md)

	_, err = os.Stat(stale)
	assert.True(t, os.IsNotExist(err), "stale asset should be removed")
}

func TestImageExtension(t *testing.T) {
	assert.Equal(t, ".jpg", imageExtension("image/jpeg"))
	assert.Equal(t, ".png", imageExtension("image/png; charset=binary"))
	assert.Equal(t, ".gif", imageExtension("image/gif"))
	assert.Equal(t, ".webp", imageExtension("image/webp"))
	assert.Equal(t, ".jpg", imageExtension("application/octet-stream"))
	assert.Equal(t, ".jpg", imageExtension(""))
}

func TestVideoExtension(t *testing.T) {
	assert.Equal(t, ".webm", videoExtension("video/webm"))
	assert.Equal(t, ".ogg", videoExtension("video/ogg"))
	assert.Equal(t, ".mkv", videoExtension("video/x-matroska"))
	assert.Equal(t, ".mp4", videoExtension("video/mp4"))
	assert.Equal(t, ".mp4", videoExtension(""))
}

func TestRedactURL(t *testing.T) {
	in := "https://api.screenscraper.fr/api2/jeuInfos.php?gameid=1&ssid=bob&sspassword=secret&softname=romscrape"
	out := redactURL(in)
	assert.NotContains(t, out, "bob")
	assert.NotContains(t, out, "secret")
	assert.Contains(t, out, "ssid=%2A%2A%2A")
	assert.Contains(t, out, "gameid=1")
}
