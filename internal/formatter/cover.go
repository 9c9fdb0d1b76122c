package formatter

import (
	"fmt"
	"strings"
)

// MaxCovers caps the number of entries returned for a cover search.
const MaxCovers = 10

// Cover holds artwork URLs for one album or track at three sizes.
// The URLs are nil when no cover identifier is known.
type Cover struct {
	ID     any     `json:"id"`
	Name   any     `json:"name"`
	Large  *string `json:"1280"`
	Medium *string `json:"640"`
	Small  *string `json:"80"`
}

// CoverURL builds {base}/{segments}/{size}x{size}.jpg, where segments is the
// cover identifier with dashes turned into path separators.
func CoverURL(base, coverID string, size int) string {
	return fmt.Sprintf("%s/%s/%dx%d.jpg", strings.TrimRight(base, "/"), strings.ReplaceAll(coverID, "-", "/"), size, size)
}

func newCover(base string, id, name, coverID any) Cover {
	c := Cover{ID: id, Name: name}
	if cid, ok := coverID.(string); ok && cid != "" {
		large, medium, small := CoverURL(base, cid, 1280), CoverURL(base, cid, 640), CoverURL(base, cid, 80)
		c.Large, c.Medium, c.Small = &large, &medium, &small
	}
	return c
}

// TrackCover describes the album art of a track, labelled with the album's id and title.
func TrackCover(base string, track any) Cover {
	album := field(track, "album")
	return newCover(base, field(album, "id"), field(album, "title"), field(album, "cover"))
}

// SearchCovers describes the album art of up to [MaxCovers] tracks in a search result,
// labelled with each track's id and title.
func SearchCovers(base string, result any) []Cover {
	items := ItemsOf(result)
	if len(items) > MaxCovers {
		items = items[:MaxCovers]
	}

	covers := make([]Cover, 0, len(items))
	for _, track := range items {
		album := field(track, "album")
		covers = append(covers, newCover(base, field(track, "id"), field(track, "title"), field(album, "cover")))
	}
	return covers
}
