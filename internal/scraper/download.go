package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

const (
	defaultUserAgent   = "romscrape/1.0"
	requestTimeout     = 30 * time.Second
	maxLoggedBodyBytes = 300
)

// Downloader runs the provider-independent half of a scrape: invoking
// SearchGame, classifying and selecting media, fetching the winning assets
// and persisting everything through the cache.
type Downloader struct {
	cache     *Cache
	client    *http.Client
	userAgent string
}

// NewDownloader builds a Downloader over the given cache.
func NewDownloader(cache *Cache) *Downloader {
	return &Downloader{
		cache:     cache,
		client:    &http.Client{Timeout: requestTimeout},
		userAgent: defaultUserAgent,
	}
}

// Cache exposes the underlying metadata cache.
func (d *Downloader) Cache() *Cache {
	return d.cache
}

// DownloadMetadata searches the provider for the ROM and persists the result
// plus its best media assets. A nil metadata with nil error means the
// provider had nothing (the dominant expected-failure path). Media download
// failures are logged and skipped: a metadata record is still written even
// when every asset fetch fails. Only cache write failures surface as errors.
func (d *Downloader) DownloadMetadata(ctx context.Context, sc Scraper, romFileName, systemID string) (*GameMetadata, error) {
	game, err := sc.SearchGame(ctx, romFileName, systemID)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, nil
	}

	unlock := d.cache.Lock(systemID, romFileName)
	defer unlock()

	// A forced re-scrape may yield different media; drop the old files so
	// they cannot outlive the document that referenced them.
	if err := d.cache.RemoveAssets(systemID, romFileName); err != nil {
		return nil, err
	}

	md := &GameMetadata{
		ID:          game.ID,
		Name:        game.Name,
		Description: game.Description,
		ReleaseDate: game.ReleaseDate,
		Genre:       game.Genre,
		Developer:   game.Developer,
		Publisher:   game.Publisher,
		Players:     game.Players,
		Rating:      game.Rating,
		Images:      map[ImageType]string{},
	}

	logger := logutil.GetLogger(ctx)

	for imgType, selected := range selectBestImages(sc, game.Media) {
		path, err := d.fetchAsset(ctx, selected.URL, systemID, romFileName, "_"+string(imgType), imageExtension)
		if err != nil {
			logger.Warn("image download failed",
				zap.String("provider", sc.Name()),
				zap.String("image_type", string(imgType)),
				zap.String("url", selected.URL),
				zap.Error(err),
			)
			continue
		}
		md.Images[imgType] = path
	}

	// Videos are not subject to best-of selection: every entry that maps to
	// a video slot is downloaded, keyed by subtype.
	for _, media := range game.Media {
		vidType, ok := sc.VideoType(media.Type)
		if !ok {
			continue
		}
		path, err := d.fetchAsset(ctx, media.URL, systemID, romFileName, "_video-"+string(vidType), videoExtension)
		if err != nil {
			logger.Warn("video download failed",
				zap.String("provider", sc.Name()),
				zap.String("video_type", string(vidType)),
				zap.String("url", media.URL),
				zap.Error(err),
			)
			continue
		}
		if md.Videos == nil {
			md.Videos = map[VideoType]string{}
		}
		md.Videos[vidType] = path
	}

	if err := d.cache.Write(systemID, romFileName, md); err != nil {
		return nil, err
	}
	return md, nil
}

// GetCachedMetadata is a pure cache read; it never touches the network.
func (d *Downloader) GetCachedMetadata(systemID, romFileName string) *GameMetadata {
	return d.cache.Read(systemID, romFileName)
}

// HasMetadata reports whether a cache document exists for the ROM.
func (d *Downloader) HasMetadata(systemID, romFileName string) bool {
	return d.cache.Has(systemID, romFileName)
}

type selectedMedia struct {
	URL   string
	Score int
}

// selectBestImages classifies raw media into semantic slots and keeps the
// single highest-scoring candidate per slot. Ties go to the first seen.
func selectBestImages(sc Scraper, media []ScrapedMedia) map[ImageType]selectedMedia {
	best := make(map[ImageType]selectedMedia)
	for _, m := range media {
		imgType, ok := sc.ImageType(m.Type)
		if !ok {
			continue
		}
		score := sc.ImageQualityPriority(imgType, m.Type, m.Format)
		current, seen := best[imgType]
		if !seen || score > current.Score {
			best[imgType] = selectedMedia{URL: m.URL, Score: score}
		}
	}
	return best
}

func (d *Downloader) fetchAsset(ctx context.Context, rawURL, systemID, romFileName, suffix string, extFor func(contentType string) string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("build asset request: %w", err)
	}
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch asset: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("asset fetch status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read asset body: %w", err)
	}

	ext := extFor(resp.Header.Get("Content-Type"))
	return d.cache.WriteAsset(systemID, romFileName, suffix, ext, data)
}

func imageExtension(contentType string) string {
	switch strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0])) {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}

func videoExtension(contentType string) string {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "webm"):
		return ".webm"
	case strings.Contains(ct, "ogg"):
		return ".ogg"
	case strings.Contains(ct, "matroska"), strings.Contains(ct, "mkv"):
		return ".mkv"
	default:
		return ".mp4"
	}
}

// redactURL masks credential query parameters before a URL hits the log.
func redactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	for _, key := range []string{"ssid", "sspassword", "devid", "devpassword", "client_id", "client_secret"} {
		if q.Has(key) {
			q.Set(key, "***")
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// truncateBody clips a response body for logging.
func truncateBody(body []byte) string {
	if len(body) > maxLoggedBodyBytes {
		return string(body[:maxLoggedBodyBytes]) + "..."
	}
	return string(body)
}
