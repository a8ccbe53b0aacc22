package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"romscrape/internal/romname"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

const (
	igdbName        = "igdb"
	igdbGamesURL    = "https://api.igdb.com/v4/games"
	igdbTokenURL    = "https://id.twitch.tv/oauth2/token"
	igdbImageCDN    = "https://images.igdb.com/igdb/image/upload"
	igdbCoverSize   = "t_cover_big"
	igdbScreenSize  = "t_screenshot_big"
	tokenSafetySecs = 60
)

// IGDB is the adapter for the IGDB v4 API. Authentication is a Twitch
// OAuth2 client-credentials token cached in memory and refreshed when fewer
// than sixty seconds of validity remain.
type IGDB struct {
	creds           IGDBCredentials
	resolvePlatform SystemResolver
	gamesURL        string
	tokenURL        string
	client          *http.Client
	userAgent       string

	mu          sync.Mutex
	token       string
	tokenExpiry int64 // epoch seconds
	now         func() time.Time
}

// NewIGDB builds the adapter. The resolver supplies catalog platform id
// mappings used to narrow searches and may be nil.
func NewIGDB(creds IGDBCredentials, resolver SystemResolver) *IGDB {
	return &IGDB{
		creds:           creds,
		resolvePlatform: resolver,
		gamesURL:        igdbGamesURL,
		tokenURL:        igdbTokenURL,
		client:          &http.Client{Timeout: requestTimeout},
		userAgent:       defaultUserAgent,
		now:             time.Now,
	}
}

func (g *IGDB) Name() string { return igdbName }

// SearchGame queries the games endpoint with an IGDB query-language body,
// narrowed to the catalog's platform id for the system when one is mapped.
func (g *IGDB) SearchGame(ctx context.Context, romFileName, systemID string) (*ScrapedGame, error) {
	logger := logutil.GetLogger(ctx)

	token, ok := g.ensureToken(ctx)
	if !ok {
		return nil, nil
	}

	cleanName := romname.Clean(romFileName)
	query := fmt.Sprintf(`search "%s"; fields id,name,summary,storyline,first_release_date,`+
		`genres.name,involved_companies.company.name,involved_companies.developer,`+
		`involved_companies.publisher,cover.image_id,screenshots.image_id,total_rating,rating;`,
		escapeIGDBQuotes(cleanName))
	if platformID, ok := g.platformID(systemID); ok {
		query += fmt.Sprintf(` where platforms = (%s);`, platformID)
	}
	query += ` limit 1;`

	logger.Debug("igdb request",
		zap.String("url", g.gamesURL),
		zap.String("query", query),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.gamesURL, strings.NewReader(query))
	if err != nil {
		logger.Error("build igdb request failed", zap.Error(err))
		return nil, nil
	}
	req.Header.Set("Client-ID", g.creds.ClientID)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		logger.Error("igdb request failed", zap.Error(err))
		return nil, nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Error("read igdb response failed", zap.Error(err))
		return nil, nil
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		logger.Warn("igdb rate limit exceeded")
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		logger.Error("igdb http error",
			zap.Int("status", resp.StatusCode),
			zap.String("body", truncateBody(body)),
		)
		return nil, nil
	}

	var games []igdbGame
	if err := json.Unmarshal(body, &games); err != nil {
		logger.Error("decode igdb response failed",
			zap.String("body", truncateBody(body)),
			zap.Error(err),
		)
		return nil, nil
	}
	if len(games) == 0 {
		return nil, nil
	}
	return mapIGDBGame(games[0]), nil
}

// platformID resolves the system's IGDB platform id. Non-numeric mappings
// are dropped rather than spliced into the query body.
func (g *IGDB) platformID(systemID string) (string, bool) {
	if g.resolvePlatform == nil {
		return "", false
	}
	id, ok := g.resolvePlatform(systemID)
	if !ok {
		return "", false
	}
	if _, err := strconv.Atoi(id); err != nil {
		return "", false
	}
	return id, true
}

// ImageType maps IGDB media tags, which are already semantic.
func (g *IGDB) ImageType(mediaType string) (ImageType, bool) {
	switch mediaType {
	case "cover":
		return ImageCover, true
	case "screenshot":
		return ImageScreenshot, true
	default:
		return "", false
	}
}

// VideoType always misses: IGDB media here is image-only.
func (g *IGDB) VideoType(mediaType string) (VideoType, bool) {
	return "", false
}

func (g *IGDB) ImageQualityPriority(img ImageType, mediaType, format string) int {
	return 0
}

// ensureToken returns a token with at least a minute of validity left,
// fetching a fresh one over the client-credentials flow when needed.
func (g *IGDB) ensureToken(ctx context.Context) (string, bool) {
	logger := logutil.GetLogger(ctx)

	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now().Unix()
	if g.token != "" && g.tokenExpiry-tokenSafetySecs > now {
		return g.token, true
	}

	if g.creds.ClientID == "" || g.creds.ClientSecret == "" {
		logger.Warn("igdb credentials missing: need clientId+clientSecret")
		return "", false
	}

	form := url.Values{
		"client_id":     {g.creds.ClientID},
		"client_secret": {g.creds.ClientSecret},
		"grant_type":    {"client_credentials"},
	}

	logger.Debug("igdb token request", zap.String("url", g.tokenURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		logger.Error("build igdb token request failed", zap.Error(err))
		return "", false
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.client.Do(req)
	if err != nil {
		logger.Error("igdb token request failed", zap.Error(err))
		return "", false
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Error("read igdb token response failed", zap.Error(err))
		return "", false
	}
	if resp.StatusCode != http.StatusOK {
		logger.Error("igdb token fetch failed",
			zap.Int("status", resp.StatusCode),
			zap.String("body", truncateBody(body)),
		)
		return "", false
	}

	var tok struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &tok); err != nil {
		logger.Error("decode igdb token failed", zap.Error(err))
		return "", false
	}

	g.token = tok.AccessToken
	g.tokenExpiry = now + tok.ExpiresIn
	return g.token, true
}

type igdbGame struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	Summary          string `json:"summary"`
	Storyline        string `json:"storyline"`
	FirstReleaseDate int64  `json:"first_release_date"`
	Genres           []struct {
		Name string `json:"name"`
	} `json:"genres"`
	InvolvedCompanies []struct {
		Company struct {
			Name string `json:"name"`
		} `json:"company"`
		Developer bool `json:"developer"`
		Publisher bool `json:"publisher"`
	} `json:"involved_companies"`
	TotalRating *float64 `json:"total_rating"`
	Rating      *float64 `json:"rating"`
	Cover       *struct {
		ImageID string `json:"image_id"`
	} `json:"cover"`
	Screenshots []struct {
		ImageID string `json:"image_id"`
	} `json:"screenshots"`
}

func mapIGDBGame(game igdbGame) *ScrapedGame {
	var developer, publisher string
	for _, ic := range game.InvolvedCompanies {
		if ic.Developer && developer == "" {
			developer = ic.Company.Name
		}
		if ic.Publisher && publisher == "" {
			publisher = ic.Company.Name
		}
	}

	var genres []string
	for _, g := range game.Genres {
		if g.Name != "" {
			genres = append(genres, g.Name)
		}
	}

	description := game.Summary
	if description == "" {
		description = game.Storyline
	}

	var releaseDate string
	if game.FirstReleaseDate != 0 {
		releaseDate = strconv.Itoa(time.Unix(game.FirstReleaseDate, 0).UTC().Year())
	}

	var rating string
	switch {
	case game.TotalRating != nil:
		rating = strconv.Itoa(int(*game.TotalRating + 0.5))
	case game.Rating != nil:
		rating = strconv.Itoa(int(*game.Rating + 0.5))
	}

	var media []ScrapedMedia
	if game.Cover != nil && game.Cover.ImageID != "" {
		media = append(media, ScrapedMedia{
			Type:   "cover",
			URL:    igdbImageURL(game.Cover.ImageID, igdbCoverSize),
			Format: "jpg",
		})
	}
	if len(game.Screenshots) > 0 && game.Screenshots[0].ImageID != "" {
		media = append(media, ScrapedMedia{
			Type:   "screenshot",
			URL:    igdbImageURL(game.Screenshots[0].ImageID, igdbScreenSize),
			Format: "jpg",
		})
	}

	return &ScrapedGame{
		ID:          strconv.FormatInt(game.ID, 10),
		Name:        game.Name,
		Description: description,
		ReleaseDate: releaseDate,
		Genre:       strings.Join(genres, "/"),
		Developer:   developer,
		Publisher:   publisher,
		Rating:      rating,
		Media:       media,
	}
}

// igdbImageURL builds a CDN URL from an opaque image id and size template.
func igdbImageURL(imageID, size string) string {
	return fmt.Sprintf("%s/%s/%s.jpg", igdbImageCDN, size, imageID)
}

func escapeIGDBQuotes(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}
