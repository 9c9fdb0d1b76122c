package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/hifi/internal/credentials"
	"github.com/desertthunder/hifi/internal/formatter"
	"github.com/desertthunder/hifi/internal/models"
	"github.com/desertthunder/hifi/internal/services"
	"github.com/desertthunder/hifi/internal/shared"
)

// Quality tiers the playback routes default to.
const (
	QualityHiRes    = "HI_RES_LOSSLESS"
	QualityLossless = "LOSSLESS"
	QualityVideo    = "HIGH"
)

// CredentialSource is the part of [credentials.Store] the gateway reads.
type CredentialSource interface {
	Load() (*credentials.Credential, error)
	Region() credentials.RegionReport
	Exists() bool
}

// RunLister lists recorded login runs, newest first.
type RunLister interface {
	List(criteria map[string]any) ([]*models.LoginRun, error)
}

// GatewayOpts holds the dependencies of a [Gateway].
type GatewayOpts struct {
	Credentials CredentialSource
	Catalog     services.Catalog
	Runs        RunLister // optional
	ImagesURL   string
	Logger      *log.Logger
}

// Gateway serves the catalog proxy routes.
type Gateway struct {
	creds     CredentialSource
	catalog   services.Catalog
	runs      RunLister
	imagesURL string
	logger    *log.Logger
}

// NewGateway creates a gateway. A nil logger discards output.
func NewGateway(opts GatewayOpts) *Gateway {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}
	return &Gateway{
		creds:     opts.Credentials,
		catalog:   opts.Catalog,
		runs:      opts.Runs,
		imagesURL: opts.ImagesURL,
		logger:    opts.Logger,
	}
}

// rawBody is written verbatim with its own content type instead of as JSON.
type rawBody struct {
	contentType string
	data        []byte
}

// route is a catalog handler. It runs after the credential has been loaded.
type route func(ctx context.Context, cred *credentials.Credential, r *http.Request) (any, error)

// Register mounts every gateway route on r.
func (g *Gateway) Register(r Router) {
	r.Handle(http.MethodGet, "/home", g.authed(g.home))
	r.Handle(http.MethodGet, "/module-paged-data/{path...}", g.authed(g.modulePagedData))
	r.Handle(http.MethodGet, "/album/{id}/tracks", g.authed(g.albumTracks))
	r.Handle(http.MethodGet, "/artist", g.authed(g.artist))
	r.Handle(http.MethodGet, "/dash", g.authed(g.dash))
	r.Handle(http.MethodGet, "/track", g.authed(g.track))
	r.Handle(http.MethodGet, "/lyrics", g.authed(g.lyrics))
	r.Handle(http.MethodGet, "/song", g.authed(g.song))
	r.Handle(http.MethodGet, "/search", g.authed(g.search))
	r.Handle(http.MethodGet, "/playlist", g.authed(g.playlist))
	r.Handle(http.MethodGet, "/cover", g.authed(g.cover))
	r.Handle(http.MethodGet, "/item/{type}/{id}", g.authed(g.item))
	r.Handle(http.MethodGet, "/video-playback-info", g.authed(g.videoPlaybackInfo))

	r.Handle(http.MethodGet, "/get-token-region", http.HandlerFunc(g.tokenRegion))
	r.Handle(http.MethodGet, "/health", http.HandlerFunc(g.health))
	r.Handle(http.MethodGet, "/login-runs", http.HandlerFunc(g.loginRuns))
}

// authed loads the credential before anything else, so a missing token is a 401
// whatever the route's own inputs are.
func (g *Gateway) authed(fn route) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cred, err := g.creds.Load()
		if err != nil {
			writeError(w, r, g.logger, err)
			return
		}

		out, err := fn(r.Context(), cred, r)
		if err != nil {
			writeError(w, r, g.logger, err)
			return
		}

		if raw, ok := out.(rawBody); ok {
			w.Header().Set("Content-Type", raw.contentType)
			w.WriteHeader(http.StatusOK)
			w.Write(raw.data)
			return
		}
		writeJSON(w, http.StatusOK, out)
	})
}

func (g *Gateway) home(ctx context.Context, cred *credentials.Credential, _ *http.Request) (any, error) {
	return g.catalog.Home(ctx, cred)
}

// modulePagedData fetches a module's paged list, resolving the module's data path
// first unless the path already is one.
func (g *Gateway) modulePagedData(ctx context.Context, cred *credentials.Credential, r *http.Request) (any, error) {
	q := r.URL.Query()
	offset, err := intQuery(q, "offset", 0)
	if err != nil {
		return nil, err
	}
	limit, err := intQuery(q, "limit", 50)
	if err != nil {
		return nil, err
	}

	path := r.PathValue("path")
	dataPath := path
	if !formatter.IsDataPath(path) {
		page, err := g.catalog.Page(ctx, cred, path)
		if err != nil {
			return nil, err
		}
		var ok bool
		if dataPath, ok = formatter.DataAPIPath(page); !ok {
			return nil, fmt.Errorf("%w: module %s has no dataApiPath", shared.ErrNotFound, path)
		}
	}

	return g.catalog.PagedData(ctx, cred, dataPath, offset, limit)
}

func (g *Gateway) albumTracks(ctx context.Context, cred *credentials.Credential, r *http.Request) (any, error) {
	id, err := numericID(r.PathValue("id"), "id")
	if err != nil {
		return nil, err
	}
	q := r.URL.Query()
	offset, err := intQuery(q, "offset", 0)
	if err != nil {
		return nil, err
	}
	limit, err := intQuery(q, "limit", 100)
	if err != nil {
		return nil, err
	}

	page, err := g.catalog.AlbumItems(ctx, cred, id, offset, limit)
	if err != nil {
		return nil, err
	}
	return formatter.UnwrapItems(page), nil
}

// artist returns bare details for ?id, or details plus albums and EPs/singles for ?f.
func (g *Gateway) artist(ctx context.Context, cred *credentials.Credential, r *http.Request) (any, error) {
	q := r.URL.Query()

	if q.Get("f") != "" {
		id, err := numericID(q.Get("f"), "f")
		if err != nil {
			return nil, err
		}

		var details, albums, singles any
		err = services.FetchAll(ctx,
			services.Into(&details, func(ctx context.Context) (any, error) { return g.catalog.Artist(ctx, cred, id) }),
			services.Into(&albums, func(ctx context.Context) (any, error) { return g.catalog.ArtistAlbums(ctx, cred, id, "") }),
			services.Into(&singles, func(ctx context.Context) (any, error) {
				return g.catalog.ArtistAlbums(ctx, cred, id, "EPSANDSINGLES")
			}),
		)
		if err != nil {
			return nil, err
		}
		return formatter.NewDiscography(details, albums, singles), nil
	}

	if q.Get("id") != "" {
		id, err := numericID(q.Get("id"), "id")
		if err != nil {
			return nil, err
		}
		return g.catalog.Artist(ctx, cred, id)
	}

	return nil, fmt.Errorf("%w: either 'id' or 'f' query is required for artist", shared.ErrBadRequest)
}

// dash returns the decoded adaptive-stream manifest with the upstream mime type.
func (g *Gateway) dash(ctx context.Context, cred *credentials.Credential, r *http.Request) (any, error) {
	id, err := requiredID(r.URL.Query(), "id")
	if err != nil {
		return nil, err
	}
	quality := queryDefault(r.URL.Query(), "quality", QualityHiRes)

	info, err := g.catalog.StreamInfo(ctx, cred, id, quality)
	if err != nil {
		return nil, err
	}
	playback, err := formatter.DecodePlayback(info)
	if err != nil {
		return nil, err
	}

	contentType := playback.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return rawBody{contentType: contentType, data: playback.Data}, nil
}

// track returns [info, playback, {OriginalTrackUrl}] for non hi-res qualities.
func (g *Gateway) track(ctx context.Context, cred *credentials.Credential, r *http.Request) (any, error) {
	quality := queryDefault(r.URL.Query(), "quality", QualityLossless)
	if quality == QualityHiRes {
		return nil, fmt.Errorf("%w: %s not supported, use /dash endpoint", shared.ErrBadRequest, QualityHiRes)
	}
	id, err := requiredID(r.URL.Query(), "id")
	if err != nil {
		return nil, err
	}

	var info, playback any
	err = services.FetchAll(ctx,
		services.Into(&info, func(ctx context.Context) (any, error) { return g.catalog.Track(ctx, cred, id) }),
		services.Into(&playback, func(ctx context.Context) (any, error) { return g.catalog.PlaybackInfo(ctx, cred, id, quality) }),
	)
	if err != nil {
		return nil, err
	}

	trackURL, err := formatter.OriginalTrackURL(playback)
	if err != nil {
		return nil, err
	}
	return []any{info, playback, trackURL}, nil
}

func (g *Gateway) lyrics(ctx context.Context, cred *credentials.Credential, r *http.Request) (any, error) {
	id, err := requiredID(r.URL.Query(), "id")
	if err != nil {
		return nil, err
	}
	lyrics, err := g.catalog.Lyrics(ctx, cred, id)
	if err != nil {
		return nil, err
	}
	return []any{lyrics}, nil
}

// song searches tracks and plays the first hit: [hit, playback, {OriginalTrackUrl}].
func (g *Gateway) song(ctx context.Context, cred *credentials.Credential, r *http.Request) (any, error) {
	q := r.URL.Query()
	query := q.Get("q")
	if query == "" {
		return nil, fmt.Errorf("%w: 'q' query is required", shared.ErrBadRequest)
	}
	quality := queryDefault(q, "quality", QualityLossless)

	result, err := g.catalog.Search(ctx, cred, services.SearchTracks, query, 0, 1)
	if err != nil {
		return nil, err
	}
	hit, ok := formatter.FirstItem(result)
	if !ok {
		return nil, fmt.Errorf("%w: no track found for query: %s", shared.ErrNotFound, query)
	}
	id, ok := formatter.IDOf(hit)
	if !ok {
		return nil, fmt.Errorf("%w: search hit has no id", shared.ErrMalformedResponse)
	}

	playback, err := g.catalog.PlaybackInfo(ctx, cred, id, quality)
	if err != nil {
		return nil, err
	}
	trackURL, err := formatter.OriginalTrackURL(playback)
	if err != nil {
		return nil, err
	}
	return []any{hit, playback, trackURL}, nil
}

// searchKeys lists the search discriminators in precedence order.
var searchKeys = []struct {
	param string
	kind  services.SearchKind
}{
	{"s", services.SearchTracks},
	{"a", services.SearchArtists},
	{"al", services.SearchAlbums},
	{"v", services.SearchVideos},
	{"p", services.SearchPlaylists},
}

// search dispatches on the first non-empty discriminator.
func (g *Gateway) search(ctx context.Context, cred *credentials.Credential, r *http.Request) (any, error) {
	q := r.URL.Query()
	limit, err := intQuery(q, "limit", 25)
	if err != nil {
		return nil, err
	}
	offset, err := intQuery(q, "offset", 0)
	if err != nil {
		return nil, err
	}

	for _, k := range searchKeys {
		if query := q.Get(k.param); query != "" {
			return g.catalog.Search(ctx, cred, k.kind, query, offset, limit)
		}
	}
	return nil, fmt.Errorf("%w: a search query parameter is required", shared.ErrBadRequest)
}

// playlist returns [playlist, items].
func (g *Gateway) playlist(ctx context.Context, cred *credentials.Credential, r *http.Request) (any, error) {
	id, err := resourceID(r.URL.Query().Get("id"), "id")
	if err != nil {
		return nil, err
	}

	var playlist, items any
	err = services.FetchAll(ctx,
		services.Into(&playlist, func(ctx context.Context) (any, error) { return g.catalog.Playlist(ctx, cred, id) }),
		services.Into(&items, func(ctx context.Context) (any, error) { return g.catalog.PlaylistItems(ctx, cred, id) }),
	)
	if err != nil {
		return nil, err
	}
	return []any{playlist, items}, nil
}

// cover returns album art for a track id, or for up to ten tracks matching q.
func (g *Gateway) cover(ctx context.Context, cred *credentials.Credential, r *http.Request) (any, error) {
	q := r.URL.Query()

	if raw := q.Get("id"); raw != "" {
		id, err := numericID(raw, "id")
		if err != nil {
			return nil, err
		}
		track, err := g.catalog.Track(ctx, cred, id)
		if err != nil {
			return nil, err
		}
		return []formatter.Cover{formatter.TrackCover(g.imagesURL, track)}, nil
	}

	if query := q.Get("q"); query != "" {
		result, err := g.catalog.Search(ctx, cred, services.SearchTracks, query, 0, formatter.MaxCovers)
		if err != nil {
			return nil, err
		}
		return formatter.SearchCovers(g.imagesURL, result), nil
	}

	return nil, fmt.Errorf("%w: either 'id' or 'q' query is required for cover", shared.ErrBadRequest)
}

func (g *Gateway) item(ctx context.Context, cred *credentials.Credential, r *http.Request) (any, error) {
	id, err := resourceID(r.PathValue("id"), "id")
	if err != nil {
		return nil, err
	}
	switch kind := r.PathValue("type"); kind {
	case "album":
		return g.catalog.Album(ctx, cred, id)
	case "track":
		return g.catalog.Track(ctx, cred, id)
	default:
		return nil, fmt.Errorf("%w: invalid item type %q", shared.ErrBadRequest, kind)
	}
}

// videoPlaybackInfo returns the decoded video manifest as JSON.
func (g *Gateway) videoPlaybackInfo(ctx context.Context, cred *credentials.Credential, r *http.Request) (any, error) {
	id, err := requiredID(r.URL.Query(), "id")
	if err != nil {
		return nil, err
	}
	quality := queryDefault(r.URL.Query(), "quality", QualityVideo)

	info, err := g.catalog.VideoPlaybackInfo(ctx, cred, id, quality)
	if err != nil {
		return nil, err
	}
	playback, err := formatter.DecodePlayback(info)
	if err != nil {
		return nil, err
	}
	return playback.JSON()
}

// tokenRegion never fails; unreadable state is reported in the payload.
func (g *Gateway) tokenRegion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, g.creds.Region())
}

func (g *Gateway) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "credentials": g.creds.Exists()})
}

func (g *Gateway) loginRuns(w http.ResponseWriter, r *http.Request) {
	if g.runs == nil {
		writeJSON(w, http.StatusOK, []*models.LoginRun{})
		return
	}

	limit, err := intQuery(r.URL.Query(), "limit", 20)
	if err != nil {
		writeError(w, r, g.logger, err)
		return
	}
	runs, err := g.runs.List(map[string]any{"limit": limit})
	if err != nil {
		writeError(w, r, g.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func queryDefault(q url.Values, key, fallback string) string {
	if v := q.Get(key); v != "" {
		return v
	}
	return fallback
}

func intQuery(q url.Values, key string, fallback int) (int, error) {
	raw := q.Get(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: '%s' must be a non-negative integer", shared.ErrBadRequest, key)
	}
	return n, nil
}

// numericID validates a catalog id and returns it in canonical form.
func numericID(raw, key string) (string, error) {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return "", fmt.Errorf("%w: '%s' must be an integer", shared.ErrBadRequest, key)
	}
	return strconv.FormatInt(n, 10), nil
}

// resourceID accepts any non-numeric id that stays a single upstream path segment.
func resourceID(raw, key string) (string, error) {
	switch {
	case raw == "":
		return "", fmt.Errorf("%w: '%s' query is required", shared.ErrBadRequest, key)
	case raw == "." || raw == ".." || strings.ContainsAny(raw, "/\\"):
		return "", fmt.Errorf("%w: '%s' is not a valid id", shared.ErrBadRequest, key)
	}
	return raw, nil
}

func requiredID(q url.Values, key string) (string, error) {
	raw := q.Get(key)
	if raw == "" {
		return "", fmt.Errorf("%w: '%s' query is required", shared.ErrBadRequest, key)
	}
	return numericID(raw, key)
}
