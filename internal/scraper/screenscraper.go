package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"romscrape/internal/romname"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

const (
	screenScraperName    = "screenscraper"
	screenScraperBaseURL = "https://api.screenscraper.fr/api2"
	defaultSoftname      = "romscrape"
)

// Ordered preference lists for region/language tagged response variants.
var (
	ssNameRegions   = []string{"ss", "wor", "eu", "us", "jp"}
	ssDateRegions   = []string{"wor", "eu", "us", "jp"}
	ssTextLanguages = []string{"fr", "en"}
)

// SystemResolver maps a generic catalog system id to the provider's own
// numeric system id. A false result means no mapping exists.
type SystemResolver func(systemID string) (string, bool)

// ScreenScraper is the adapter for the ScreenScraper.fr API. Lookup is
// two-phase: a cheap jeuInfos call with the raw ROM basename first, then a
// jeuRecherche search with a cleaned name and a final jeuInfos by game id.
type ScreenScraper struct {
	creds         ScreenScraperCredentials
	resolveSystem SystemResolver
	baseURL       string
	client        *http.Client
	userAgent     string
}

// NewScreenScraper builds the adapter. The resolver supplies catalog system
// id mappings and may be nil when no catalog is available.
func NewScreenScraper(creds ScreenScraperCredentials, resolver SystemResolver) *ScreenScraper {
	return &ScreenScraper{
		creds:         creds,
		resolveSystem: resolver,
		baseURL:       screenScraperBaseURL,
		client:        &http.Client{Timeout: requestTimeout},
		userAgent:     defaultUserAgent,
	}
}

func (s *ScreenScraper) Name() string { return screenScraperName }

// SearchGame resolves a ROM file name into a ScrapedGame. All expected
// failures (missing credentials, no results, provider errors, rate limits)
// yield a nil game with nil error.
func (s *ScreenScraper) SearchGame(ctx context.Context, romFileName, systemID string) (*ScrapedGame, error) {
	logger := logutil.GetLogger(ctx)

	hasUserCreds := s.creds.SSID != "" && s.creds.SSPassword != ""
	hasDevCreds := s.creds.DevID != "" && s.creds.DevPassword != ""
	if !hasUserCreds && !hasDevCreds {
		// Without either pair the API rejects the call with an HTML page;
		// short-circuit instead of failing on a JSON parse downstream.
		logger.Warn("screenscraper credentials missing: need ssid+sspassword or devid+devpassword")
		return nil, nil
	}

	systeme := strings.TrimSpace(systemID)
	if mapped, ok := s.systemID(systeme); ok {
		systeme = mapped
	}

	baseName := romname.Base(romFileName)

	// Fast path: jeuInfos with the raw basename as romnom handles exact and
	// near-exact filename matches (e.g. mslug5) in a single request.
	if jeu := s.fetchGame(ctx, "jeuInfos.php", url.Values{
		"systemeid": {systeme},
		"romtype":   {"rom"},
		"romnom":    {baseName},
	}); jeu != nil {
		return s.mapGame(jeu), nil
	}

	cleanName := romname.Clean(romFileName)

	gameID := s.searchGameID(ctx, systeme, url.Values{"recherche": {cleanName}})
	if gameID == "" {
		// recherche found nothing; romnom search catches filename-shaped
		// titles the human-name search misses.
		gameID = s.searchGameID(ctx, systeme, url.Values{"romnom": {baseName}})
	}
	if gameID == "" {
		return nil, nil
	}

	jeu := s.fetchGame(ctx, "jeuInfos.php", url.Values{
		"gameid":    {gameID},
		"systemeid": {systeme},
	})
	if jeu == nil {
		return nil, nil
	}
	return s.mapGame(jeu), nil
}

func (s *ScreenScraper) systemID(systemID string) (string, bool) {
	if s.resolveSystem == nil {
		return "", false
	}
	return s.resolveSystem(systemID)
}

// ImageType normalises ScreenScraper's native media tags.
func (s *ScreenScraper) ImageType(mediaType string) (ImageType, bool) {
	switch strings.ToLower(mediaType) {
	case "box-2d", "box-front":
		return ImageCover, true
	case "sstitle", "screenmarquee", "screenmarqueesmall", "marquee":
		return ImageTitle, true
	case "ss", "screenshot":
		return ImageScreenshot, true
	case "wheel", "wheel-hd", "wheelhd", "wheel-carbon", "wheel-steel":
		return ImageWheel, true
	default:
		return "", false
	}
}

func (s *ScreenScraper) VideoType(mediaType string) (VideoType, bool) {
	if strings.ToLower(mediaType) == "video-normalized" {
		return VideoNormalized, true
	}
	return "", false
}

// ImageQualityPriority prefers HD wheel variants over the plainer ones; it
// only disambiguates candidates inside the wheel slot.
func (s *ScreenScraper) ImageQualityPriority(img ImageType, mediaType, format string) int {
	if img != ImageWheel {
		return 0
	}
	t := strings.ToLower(mediaType)
	switch {
	case strings.Contains(t, "wheel-hd"), strings.Contains(t, "wheelhd"):
		return 10
	case t == "wheel":
		return 7
	case t == "wheel-steel":
		return 5
	case t == "wheel-carbon":
		return 4
	default:
		return 0
	}
}

// searchGameID runs jeuRecherche with the given lookup parameter and returns
// the first candidate's game id, or empty when nothing matched.
func (s *ScreenScraper) searchGameID(ctx context.Context, systeme string, lookup url.Values) string {
	params := url.Values{
		"systemeid": {systeme},
		"langue":    {"fr"},
	}
	for k, vs := range lookup {
		params[k] = vs
	}

	env := s.request(ctx, "jeuRecherche.php", params)
	if env == nil {
		return ""
	}
	return firstGameID(env.Response)
}

// fetchGame runs an endpoint expected to return a full game record and
// extracts it, or nil on any failure.
func (s *ScreenScraper) fetchGame(ctx context.Context, endpoint string, params url.Values) *ssGame {
	env := s.request(ctx, endpoint, params)
	if env == nil {
		return nil
	}
	return firstGame(env.Response)
}

// request performs one authenticated GET and decodes the response envelope.
// Every failure mode (HTTP error, rate limit, non-JSON body, API-reported
// error in header.erreur) is logged and collapsed to nil.
func (s *ScreenScraper) request(ctx context.Context, endpoint string, params url.Values) *ssEnvelope {
	logger := logutil.GetLogger(ctx)

	q := url.Values{"output": {"json"}}
	for k, vs := range params {
		q[k] = vs
	}
	s.applyAuth(q)

	reqURL := s.baseURL + "/" + endpoint + "?" + q.Encode()
	logger.Debug("screenscraper request", zap.String("url", redactURL(reqURL)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		logger.Error("build screenscraper request failed", zap.Error(err))
		return nil
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		logger.Error("screenscraper request failed",
			zap.String("url", redactURL(reqURL)),
			zap.Error(err),
		)
		return nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Error("read screenscraper response failed", zap.Error(err))
		return nil
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		// No retry here: batch pacing is the only rate-limit mitigation.
		logger.Warn("screenscraper rate limit exceeded", zap.String("endpoint", endpoint))
		return nil
	}
	if resp.StatusCode != http.StatusOK {
		logger.Error("screenscraper http error",
			zap.Int("status", resp.StatusCode),
			zap.String("endpoint", endpoint),
			zap.String("body", truncateBody(body)),
		)
		return nil
	}

	ct := strings.ToLower(resp.Header.Get("Content-Type"))
	if !strings.Contains(ct, "application/json") {
		logger.Error("screenscraper returned non-json",
			zap.String("endpoint", endpoint),
			zap.String("content_type", ct),
			zap.String("body", truncateBody(body)),
		)
		return nil
	}

	var env ssEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		logger.Error("decode screenscraper response failed",
			zap.String("endpoint", endpoint),
			zap.String("body", truncateBody(body)),
			zap.Error(err),
		)
		return nil
	}

	// The API signals failure in the envelope, not the HTTP status.
	if env.Header.Erreur != "" {
		logger.Error("screenscraper api error",
			zap.String("endpoint", endpoint),
			zap.String("erreur", env.Header.Erreur),
		)
		return nil
	}
	return &env
}

func (s *ScreenScraper) applyAuth(q url.Values) {
	if s.creds.SSID != "" {
		q.Set("ssid", s.creds.SSID)
	}
	if s.creds.SSPassword != "" {
		q.Set("sspassword", s.creds.SSPassword)
	}
	if s.creds.DevID != "" {
		q.Set("devid", s.creds.DevID)
	}
	if s.creds.DevPassword != "" {
		q.Set("devpassword", s.creds.DevPassword)
	}
	softname := s.creds.Softname
	if softname == "" {
		softname = defaultSoftname
	}
	q.Set("softname", softname)
}

func (s *ScreenScraper) mapGame(jeu *ssGame) *ScrapedGame {
	id := jeu.ID.String()
	if id == "" {
		id = jeu.JeuID.String()
	}

	media := make([]ScrapedMedia, 0, len(jeu.Medias))
	for _, m := range jeu.Medias {
		if m.URL == "" {
			continue
		}
		media = append(media, ScrapedMedia{Type: m.Type, URL: m.URL, Format: m.Format})
	}

	return &ScrapedGame{
		ID:          id,
		Name:        pickByRegion(jeu.Noms, ssNameRegions, jeu.Nom),
		Description: pickByLanguage(jeu.Synopsis, ssTextLanguages),
		ReleaseDate: pickByRegion(jeu.Dates, ssDateRegions, ""),
		Genre:       pickGenres(jeu.Genres, ssTextLanguages),
		Developer:   jeu.Developpeur.Value(),
		Publisher:   jeu.Editeur.Value(),
		Players:     jeu.Joueurs.Value(),
		Rating:      jeu.Note.Value(),
		Media:       media,
	}
}

// --- response envelope -------------------------------------------------
//
// ScreenScraper's JSON is loosely shaped: "response" may be an object or an
// array, "jeu" an object or an array, numeric ids may arrive as numbers or
// strings. Each variable spot gets its own tolerant decode step instead of
// an untyped traversal.

type ssEnvelope struct {
	Header struct {
		Erreur string `json:"erreur"`
	} `json:"header"`
	Response json.RawMessage `json:"response"`
}

type ssResponseBody struct {
	Jeu  json.RawMessage `json:"jeu"`
	Jeux json.RawMessage `json:"jeux"`
}

type ssGame struct {
	ID          flexString     `json:"id"`
	JeuID       flexString     `json:"jeuid"`
	IDJeu       flexString     `json:"idJeu"`
	Nom         string         `json:"nom"`
	Noms        []ssTaggedText `json:"noms"`
	Synopsis    []ssTaggedText `json:"synopsis"`
	Dates       []ssTaggedText `json:"dates"`
	Genres      []ssGenre      `json:"genres"`
	Developpeur ssText         `json:"developpeur"`
	Editeur     ssText         `json:"editeur"`
	Joueurs     ssText         `json:"joueurs"`
	Note        ssText         `json:"note"`
	Medias      []ssMedia      `json:"medias"`
}

type ssTaggedText struct {
	Region string `json:"region"`
	Langue string `json:"langue"`
	Text   string `json:"text"`
}

type ssGenre struct {
	Principale flexString     `json:"principale"`
	Noms       []ssTaggedText `json:"noms"`
}

type ssMedia struct {
	Type   string `json:"type"`
	URL    string `json:"url"`
	Format string `json:"format"`
}

// flexString accepts a JSON string or number.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number: %w", err)
	}
	*f = flexString(n.String())
	return nil
}

func (f flexString) String() string { return string(f) }

// ssText accepts a bare string or an object carrying a "text" field.
type ssText struct {
	text string
}

func (t *ssText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if data[0] == '"' {
		return json.Unmarshal(data, &t.text)
	}
	var obj struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		// Unexpected shape counts as absent, not as a hard failure.
		return nil
	}
	t.text = obj.Text
	return nil
}

func (t ssText) Value() string { return t.text }

// responseBodies normalises the object-or-array "response" value.
func responseBodies(raw json.RawMessage) []ssResponseBody {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}
	if raw[0] == '[' {
		var list []ssResponseBody
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil
		}
		return list
	}
	var one ssResponseBody
	if err := json.Unmarshal(raw, &one); err != nil {
		return nil
	}
	return []ssResponseBody{one}
}

// firstGame extracts the first full game record from a response.
func firstGame(raw json.RawMessage) *ssGame {
	for _, body := range responseBodies(raw) {
		if g := decodeGame(body.Jeu); g != nil {
			return g
		}
		if g := decodeGame(body.Jeux); g != nil {
			return g
		}
	}
	return nil
}

func decodeGame(raw json.RawMessage) *ssGame {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if raw[0] == '[' {
		var list []ssGame
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil
		}
		for i := range list {
			if isGameRecord(&list[i]) {
				return &list[i]
			}
		}
		return nil
	}
	var one ssGame
	if err := json.Unmarshal(raw, &one); err == nil && isGameRecord(&one) {
		return &one
	}
	// Some endpoints nest the list one level deeper: {"jeux":{"jeu":[...]}}.
	var nested struct {
		Jeu json.RawMessage `json:"jeu"`
	}
	if err := json.Unmarshal(raw, &nested); err != nil || len(nested.Jeu) == 0 {
		return nil
	}
	return decodeGame(nested.Jeu)
}

// isGameRecord filters out container objects: any JSON object decodes into
// an ssGame, so a record must carry at least an id or a name to count.
func isGameRecord(g *ssGame) bool {
	return g.ID != "" || g.JeuID != "" || g.IDJeu != "" || g.Nom != "" || len(g.Noms) > 0
}

// firstGameID pulls the first search candidate's id, tolerating the three
// field names the API uses for it.
func firstGameID(raw json.RawMessage) string {
	g := firstGame(raw)
	if g == nil {
		return ""
	}
	for _, id := range []flexString{g.ID, g.JeuID, g.IDJeu} {
		if id != "" {
			return id.String()
		}
	}
	return ""
}

func pickByRegion(entries []ssTaggedText, regions []string, fallback string) string {
	for _, region := range regions {
		for _, entry := range entries {
			if strings.EqualFold(entry.Region, region) && entry.Text != "" {
				return entry.Text
			}
		}
	}
	for _, entry := range entries {
		if entry.Text != "" {
			return entry.Text
		}
	}
	return fallback
}

func pickByLanguage(entries []ssTaggedText, langs []string) string {
	for _, lang := range langs {
		for _, entry := range entries {
			if strings.EqualFold(entry.Langue, lang) && entry.Text != "" {
				return entry.Text
			}
		}
	}
	for _, entry := range entries {
		if entry.Text != "" {
			return entry.Text
		}
	}
	return ""
}

// pickGenres joins genre names, preferring entries flagged as principal and
// the first matching language variant of each.
func pickGenres(genres []ssGenre, langs []string) string {
	primary := make([]ssGenre, 0, len(genres))
	for _, g := range genres {
		if g.Principale.String() == "1" {
			primary = append(primary, g)
		}
	}
	list := genres
	if len(primary) > 0 {
		list = primary
	}

	var names []string
	seen := make(map[string]struct{})
	for _, g := range list {
		name := pickByLanguage(g.Noms, langs)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return strings.Join(names, " / ")
}
