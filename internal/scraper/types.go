// Package scraper implements the metadata scraping core: provider adapters
// for ScreenScraper and IGDB, best-of media selection, the local metadata
// cache and the batch download orchestrator.
package scraper

import (
	"context"
	"time"
)

// ImageType is the semantic slot a provider image is classified into.
type ImageType string

const (
	ImageCover      ImageType = "cover"
	ImageScreenshot ImageType = "screenshot"
	ImageTitle      ImageType = "title"
	ImageWheel      ImageType = "wheel"
)

// VideoType is the semantic slot a provider video is classified into.
type VideoType string

const (
	VideoNormalized VideoType = "normalized"
)

// GameMetadata is the persisted per-ROM metadata document. Scalar fields are
// optional: an empty string means the provider did not know.
type GameMetadata struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description,omitempty"`
	ReleaseDate string               `json:"releaseDate,omitempty"`
	Genre       string               `json:"genre,omitempty"`
	Developer   string               `json:"developer,omitempty"`
	Publisher   string               `json:"publisher,omitempty"`
	Players     string               `json:"players,omitempty"`
	Rating      string               `json:"rating,omitempty"`
	Images      map[ImageType]string `json:"images"`
	Videos      map[VideoType]string `json:"videos,omitempty"`
}

// ScrapedMedia is one raw media descriptor as reported by a provider, before
// classification into a semantic slot.
type ScrapedMedia struct {
	Type   string `json:"type"`
	URL    string `json:"url"`
	Format string `json:"format"`
}

// ScrapedGame is the provider-agnostic intermediate produced by SearchGame.
type ScrapedGame struct {
	ID          string
	Name        string
	Description string
	ReleaseDate string
	Genre       string
	Developer   string
	Publisher   string
	Players     string
	Rating      string
	Media       []ScrapedMedia
}

// Scraper is the provider adapter contract. SearchGame fails soft: a nil
// result with a nil error means "not found", covering missing credentials,
// empty search results and unrecoverable provider errors alike. Errors are
// reserved for local faults the caller may want to surface.
type Scraper interface {
	Name() string

	SearchGame(ctx context.Context, romFileName, systemID string) (*ScrapedGame, error)

	// ImageType classifies a provider-native media tag into a semantic
	// image slot. The second result is false for unrecognised tags.
	ImageType(mediaType string) (ImageType, bool)

	// VideoType classifies a provider-native media tag into a video slot.
	VideoType(mediaType string) (VideoType, bool)

	// ImageQualityPriority ranks same-slot candidates; higher wins. Zero is
	// the default "no preference".
	ImageQualityPriority(img ImageType, mediaType, format string) int
}

// ItemStatus is the outcome of one file in a batch run.
type ItemStatus string

const (
	StatusCreated ItemStatus = "created"
	StatusSkipped ItemStatus = "skipped"
	StatusFailed  ItemStatus = "failed"
)

// DownloadItem records the outcome for a single ROM file in a batch run.
type DownloadItem struct {
	FileName string        `json:"fileName"`
	Status   ItemStatus    `json:"status"`
	Metadata *GameMetadata `json:"metadata,omitempty"`
}

// SystemDownloadResult aggregates a batch run over one system. It is built
// fresh per run and never persisted by the scraping core.
type SystemDownloadResult struct {
	SystemID  string         `json:"systemId"`
	Processed int            `json:"processed"`
	Created   int            `json:"created"`
	Skipped   int            `json:"skipped"`
	Failed    int            `json:"failed"`
	Items     []DownloadItem `json:"items"`
}

// AllDownloadResult aggregates batch runs across every catalog system.
type AllDownloadResult struct {
	Systems   []SystemDownloadResult `json:"systems"`
	Processed int                    `json:"processed"`
	Created   int                    `json:"created"`
	Skipped   int                    `json:"skipped"`
	Failed    int                    `json:"failed"`
}

// ProgressFunc is invoked before each file of a batch run with the 1-based
// index, total count and file name.
type ProgressFunc func(current, total int, fileName string)

// BatchOptions tunes a batch run.
type BatchOptions struct {
	// Force re-downloads entries that already have a cache document.
	Force bool
	// Exclude lists file patterns to skip, on top of catalog excludes.
	Exclude []string
	// Delay is the pause after each network-touching file; the zero value
	// means the default one second.
	Delay time.Duration
}

// Credentials carries provider credentials as received from configuration.
// The scraping core never loads these itself.
type Credentials struct {
	ScreenScraper ScreenScraperCredentials `json:"screenscraper,omitempty"`
	IGDB          IGDBCredentials          `json:"igdb,omitempty"`
}

// ScreenScraperCredentials holds either end-user or developer credentials;
// one of the two pairs must be present for requests to be attempted.
type ScreenScraperCredentials struct {
	SSID        string `json:"ssid,omitempty"`
	SSPassword  string `json:"sspassword,omitempty"`
	DevID       string `json:"devid,omitempty"`
	DevPassword string `json:"devpassword,omitempty"`
	Softname    string `json:"softname,omitempty"`
}

// IGDBCredentials holds the Twitch OAuth2 client-credentials pair.
type IGDBCredentials struct {
	ClientID     string `json:"clientId,omitempty"`
	ClientSecret string `json:"clientSecret,omitempty"`
}
