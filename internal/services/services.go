// package services defines the catalog API surface the gateway proxies
//
// Tidal (api.tidal.com, tidal.com web API)
package services

import (
	"context"

	"github.com/desertthunder/hifi/internal/credentials"
)

// Catalog is the set of upstream reads the gateway composes its routes from.
//
// Every method returns the decoded upstream JSON untouched. Reshaping is the
// caller's business.
type Catalog interface {
	Home(ctx context.Context, cred *credentials.Credential) (any, error)
	Page(ctx context.Context, cred *credentials.Credential, path string) (any, error)
	PagedData(ctx context.Context, cred *credentials.Credential, dataPath string, offset, limit int) (any, error)

	Album(ctx context.Context, cred *credentials.Credential, id string) (any, error)
	AlbumItems(ctx context.Context, cred *credentials.Credential, id string, offset, limit int) (any, error)

	Artist(ctx context.Context, cred *credentials.Credential, id string) (any, error)
	ArtistAlbums(ctx context.Context, cred *credentials.Credential, id string, filter string) (any, error)

	Track(ctx context.Context, cred *credentials.Credential, id string) (any, error)
	Lyrics(ctx context.Context, cred *credentials.Credential, id string) (any, error)
	PlaybackInfo(ctx context.Context, cred *credentials.Credential, id, quality string) (any, error)
	StreamInfo(ctx context.Context, cred *credentials.Credential, id, quality string) (any, error)
	VideoPlaybackInfo(ctx context.Context, cred *credentials.Credential, id, quality string) (any, error)

	Playlist(ctx context.Context, cred *credentials.Credential, id string) (any, error)
	PlaylistItems(ctx context.Context, cred *credentials.Credential, id string) (any, error)

	Search(ctx context.Context, cred *credentials.Credential, kind SearchKind, query string, offset, limit int) (any, error)
}

// SearchKind selects a catalog search endpoint.
type SearchKind int

const (
	SearchTracks SearchKind = iota
	SearchArtists
	SearchAlbums
	SearchVideos
	SearchPlaylists
)

func (k SearchKind) String() string {
	switch k {
	case SearchTracks:
		return "tracks"
	case SearchArtists:
		return "artists"
	case SearchAlbums:
		return "albums"
	case SearchVideos:
		return "videos"
	case SearchPlaylists:
		return "playlists"
	default:
		return "unknown"
	}
}

// endpoint returns the search path and, for top-hits searches, the types filter.
func (k SearchKind) endpoint() (path, types string) {
	switch k {
	case SearchArtists:
		return "search/top-hits", "ARTISTS,TRACKS"
	case SearchAlbums:
		return "search/top-hits", "ALBUMS"
	case SearchVideos:
		return "search/videos", ""
	case SearchPlaylists:
		return "search/playlists", ""
	default:
		return "search/tracks", ""
	}
}
