package services

import (
	"context"
	"net/url"
	"strconv"

	"github.com/desertthunder/hifi/internal/credentials"
)

// TidalConfig holds the upstream endpoints and the fixed request parameters.
type TidalConfig struct {
	APIURL     string
	WebURL     string
	Locale     string
	DeviceType string
	HomePage   string
}

// Fetcher is the subset of [APIService] the catalog needs.
type Fetcher interface {
	GetJSON(ctx context.Context, cred *credentials.Credential, r Request) (any, error)
}

// TidalService implements [Catalog] against the Tidal v1 API.
type TidalService struct {
	api Fetcher
	cfg TidalConfig
}

// NewTidalService creates a catalog client that issues requests through api.
func NewTidalService(api Fetcher, cfg TidalConfig) *TidalService {
	if cfg.Locale == "" {
		cfg.Locale = "en_US"
	}
	if cfg.DeviceType == "" {
		cfg.DeviceType = "BROWSER"
	}
	return &TidalService{api: api, cfg: cfg}
}

var _ Catalog = (*TidalService)(nil)

// region returns the countryCode parameter alone.
func region(cred *credentials.Credential) url.Values {
	return url.Values{"countryCode": {cred.CountryCode}}
}

// browse returns countryCode plus the locale and device type the web player sends.
func (t *TidalService) browse(cred *credentials.Credential) url.Values {
	v := region(cred)
	v.Set("locale", t.cfg.Locale)
	v.Set("deviceType", t.cfg.DeviceType)
	return v
}

func window(v url.Values, offset, limit int) url.Values {
	v.Set("offset", strconv.Itoa(offset))
	v.Set("limit", strconv.Itoa(limit))
	return v
}

func playback(quality, qualityParam string) url.Values {
	return url.Values{
		qualityParam:        {quality},
		"playbackmode":      {"STREAM"},
		"assetpresentation": {"FULL"},
	}
}

func (t *TidalService) get(ctx context.Context, cred *credentials.Credential, path string, params url.Values) (any, error) {
	return t.api.GetJSON(ctx, cred, Request{BaseURL: t.cfg.APIURL, Path: path, Params: params})
}

func (t *TidalService) getWeb(ctx context.Context, cred *credentials.Credential, path string, params url.Values) (any, error) {
	return t.api.GetJSON(ctx, cred, Request{BaseURL: t.cfg.WebURL, Path: path, Params: params})
}

// Home fetches the curated single-module landing page from the web API.
func (t *TidalService) Home(ctx context.Context, cred *credentials.Credential) (any, error) {
	return t.getWeb(ctx, cred, t.cfg.HomePage, t.browse(cred))
}

// Page fetches a module page such as pages/mix or pages/genre_page.
func (t *TidalService) Page(ctx context.Context, cred *credentials.Credential, path string) (any, error) {
	return t.get(ctx, cred, path, t.browse(cred))
}

// PagedData fetches one window of a module's paged list.
func (t *TidalService) PagedData(ctx context.Context, cred *credentials.Credential, dataPath string, offset, limit int) (any, error) {
	return t.get(ctx, cred, dataPath, window(t.browse(cred), offset, limit))
}

func (t *TidalService) Album(ctx context.Context, cred *credentials.Credential, id string) (any, error) {
	return t.get(ctx, cred, "albums/"+url.PathEscape(id), region(cred))
}

func (t *TidalService) AlbumItems(ctx context.Context, cred *credentials.Credential, id string, offset, limit int) (any, error) {
	return t.get(ctx, cred, "albums/"+url.PathEscape(id)+"/items", window(region(cred), offset, limit))
}

func (t *TidalService) Artist(ctx context.Context, cred *credentials.Credential, id string) (any, error) {
	return t.get(ctx, cred, "artists/"+url.PathEscape(id), region(cred))
}

// ArtistAlbums lists up to 100 releases. filter is empty for albums or EPSANDSINGLES.
func (t *TidalService) ArtistAlbums(ctx context.Context, cred *credentials.Credential, id string, filter string) (any, error) {
	params := region(cred)
	params.Set("limit", "100")
	if filter != "" {
		params.Set("filter", filter)
	}
	return t.get(ctx, cred, "artists/"+url.PathEscape(id)+"/albums", params)
}

func (t *TidalService) Track(ctx context.Context, cred *credentials.Credential, id string) (any, error) {
	return t.get(ctx, cred, "tracks/"+url.PathEscape(id), region(cred))
}

func (t *TidalService) Lyrics(ctx context.Context, cred *credentials.Credential, id string) (any, error) {
	return t.get(ctx, cred, "tracks/"+url.PathEscape(id)+"/lyrics", t.browse(cred))
}

// PlaybackInfo fetches the standard stream descriptor for a track.
func (t *TidalService) PlaybackInfo(ctx context.Context, cred *credentials.Credential, id, quality string) (any, error) {
	return t.get(ctx, cred, "tracks/"+url.PathEscape(id)+"/playbackinfopostpaywall/v4", playback(quality, "audioquality"))
}

// StreamInfo fetches the adaptive-stream descriptor from the web API.
func (t *TidalService) StreamInfo(ctx context.Context, cred *credentials.Credential, id, quality string) (any, error) {
	return t.getWeb(ctx, cred, "tracks/"+url.PathEscape(id)+"/playbackinfo", playback(quality, "audioquality"))
}

func (t *TidalService) VideoPlaybackInfo(ctx context.Context, cred *credentials.Credential, id, quality string) (any, error) {
	return t.get(ctx, cred, "videos/"+url.PathEscape(id)+"/playbackinfo", playback(quality, "videoquality"))
}

func (t *TidalService) Playlist(ctx context.Context, cred *credentials.Credential, id string) (any, error) {
	return t.get(ctx, cred, "playlists/"+url.PathEscape(id), region(cred))
}

// PlaylistItems lists the first 100 entries of a playlist.
func (t *TidalService) PlaylistItems(ctx context.Context, cred *credentials.Credential, id string) (any, error) {
	params := region(cred)
	params.Set("limit", "100")
	return t.get(ctx, cred, "playlists/"+url.PathEscape(id)+"/items", params)
}

func (t *TidalService) Search(ctx context.Context, cred *credentials.Credential, kind SearchKind, query string, offset, limit int) (any, error) {
	path, types := kind.endpoint()
	params := window(region(cred), offset, limit)
	params.Set("query", query)
	if types != "" {
		params.Set("types", types)
	}
	return t.get(ctx, cred, path, params)
}
