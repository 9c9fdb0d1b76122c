package formatter

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"testing"

	"github.com/desertthunder/hifi/internal/shared"
	tu "github.com/desertthunder/hifi/internal/testing"
)

func decode(t *testing.T, s string) any {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		t.Fatalf("bad fixture %s: %v", s, err)
	}
	return v
}

func TestPlayback(t *testing.T) {
	t.Run("OriginalTrackURL", func(t *testing.T) {
		info := map[string]any{"manifest": tu.Manifest(t, "https://cdn/a.flac", "https://cdn/b.flac"), "manifestMimeType": "application/vnd.tidal.bts"}

		got, err := OriginalTrackURL(info)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.OriginalTrackURL != "https://cdn/a.flac" {
			t.Errorf("expected first url, got %s", got.OriginalTrackURL)
		}

		out, _ := json.Marshal(got)
		if string(out) != `{"OriginalTrackUrl":"https://cdn/a.flac"}` {
			t.Errorf("unexpected encoding %s", out)
		}
	})

	t.Run("DecodePlayback Keeps Mime Type", func(t *testing.T) {
		mpd := "<MPD></MPD>"
		info := map[string]any{"manifest": base64.StdEncoding.EncodeToString([]byte(mpd)), "manifestMimeType": "application/dash+xml"}

		p, err := DecodePlayback(info)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.MimeType != "application/dash+xml" || string(p.Data) != mpd {
			t.Errorf("unexpected playback %q %q", p.MimeType, p.Data)
		}
	})

	tc := []struct {
		name string
		info any
	}{
		{name: "no manifest", info: map[string]any{}},
		{name: "not base64", info: map[string]any{"manifest": "***"}},
		{name: "not json", info: map[string]any{"manifest": base64.StdEncoding.EncodeToString([]byte("<MPD/>"))}},
		{name: "no urls", info: map[string]any{"manifest": tu.Manifest(t)}},
		{name: "not an object", info: []any{"manifest"}},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := OriginalTrackURL(tt.info); !errors.Is(err, shared.ErrMalformedResponse) {
				t.Errorf("expected ErrMalformedResponse, got %v", err)
			}
		})
	}
}

func TestPages(t *testing.T) {
	t.Run("IsDataPath", func(t *testing.T) {
		if !IsDataPath("pages/data/abc-123") {
			t.Error("expected pages/data/ prefix to be a data path")
		}
		if IsDataPath("pages/mix") {
			t.Error("pages/mix is a module page")
		}
	})

	t.Run("DataAPIPath", func(t *testing.T) {
		page := decode(t, `{"rows":[{"modules":[{"pagedList":{"dataApiPath":"pages/data/xyz"}}]}]}`)

		got, ok := DataAPIPath(page)
		if !ok || got != "pages/data/xyz" {
			t.Errorf("expected pages/data/xyz, got %q %v", got, ok)
		}

		for _, missing := range []string{`{}`, `{"rows":[]}`, `{"rows":[{"modules":[{}]}]}`, `{"rows":[{"modules":[{"pagedList":{"dataApiPath":""}}]}]}`} {
			if _, ok := DataAPIPath(decode(t, missing)); ok {
				t.Errorf("expected no data path in %s", missing)
			}
		}
	})

	t.Run("UnwrapItems", func(t *testing.T) {
		page := decode(t, `{"limit":2,"offset":0,"totalNumberOfItems":12,"items":[{"item":{"id":1},"type":"track"},{"item":{"id":2},"type":"video"}]}`)

		got := UnwrapItems(page)
		out, _ := json.Marshal(got)
		want := `{"items":[{"id":1},{"id":2}],"limit":2,"offset":0,"totalNumberOfItems":12}`
		if string(out) != want {
			t.Errorf("expected %s, got %s", want, out)
		}
	})

	t.Run("UnwrapItems Missing Fields", func(t *testing.T) {
		out, _ := json.Marshal(UnwrapItems(decode(t, `{}`)))
		want := `{"items":[],"limit":null,"offset":null,"totalNumberOfItems":null}`
		if string(out) != want {
			t.Errorf("expected %s, got %s", want, out)
		}
	})
}

func TestCovers(t *testing.T) {
	const base = "https://resources.tidal.com/images"

	t.Run("CoverURL", func(t *testing.T) {
		got := CoverURL(base, "ab12-cd34-ef56", 640)
		if got != base+"/ab12/cd34/ef56/640x640.jpg" {
			t.Errorf("unexpected url %s", got)
		}
	})

	t.Run("TrackCover Uses Album", func(t *testing.T) {
		track := decode(t, `{"id":11,"title":"Song","album":{"id":22,"title":"Record","cover":"aa-bb"}}`)

		c := TrackCover(base, track)
		out, _ := json.Marshal(c)
		want := `{"id":22,"name":"Record","1280":"` + base + `/aa/bb/1280x1280.jpg","640":"` + base + `/aa/bb/640x640.jpg","80":"` + base + `/aa/bb/80x80.jpg"}`
		if string(out) != want {
			t.Errorf("expected %s, got %s", want, out)
		}
	})

	t.Run("Missing Cover Yields Nulls", func(t *testing.T) {
		for _, fixture := range []string{`{"id":1,"album":{"id":2,"title":"x"}}`, `{"id":1,"album":{"id":2,"cover":null}}`, `{"id":1}`} {
			c := TrackCover(base, decode(t, fixture))
			if c.Large != nil || c.Medium != nil || c.Small != nil {
				t.Errorf("expected null urls for %s", fixture)
			}
		}
	})

	t.Run("SearchCovers Caps And Labels With Track", func(t *testing.T) {
		items := make([]any, 0, 15)
		for i := range 15 {
			items = append(items, map[string]any{"id": i, "title": "t", "album": map[string]any{"id": 100 + i, "cover": "c-d"}})
		}

		covers := SearchCovers(base, map[string]any{"items": items})
		if len(covers) != MaxCovers {
			t.Fatalf("expected %d covers, got %d", MaxCovers, len(covers))
		}
		if covers[3].ID != 3 {
			t.Errorf("expected track id 3, got %v", covers[3].ID)
		}
	})

	t.Run("SearchCovers Empty", func(t *testing.T) {
		covers := SearchCovers(base, map[string]any{})
		out, _ := json.Marshal(covers)
		if string(out) != "[]" {
			t.Errorf("expected empty list, got %s", out)
		}
	})
}

func TestListHelpers(t *testing.T) {
	t.Run("FirstItem", func(t *testing.T) {
		hit, ok := FirstItem(decode(t, `{"items":[{"id":7,"title":"a"},{"id":8}]}`))
		if !ok {
			t.Fatal("expected a first item")
		}
		if id, _ := IDOf(hit); id != "7" {
			t.Errorf("expected id 7, got %s", id)
		}

		if _, ok := FirstItem(decode(t, `{"items":[]}`)); ok {
			t.Error("expected no item for an empty list")
		}
	})

	t.Run("IDOf Keeps Large Numbers", func(t *testing.T) {
		obj := map[string]any{"id": json.Number("1234567890123")}
		if id, ok := IDOf(obj); !ok || id != "1234567890123" {
			t.Errorf("unexpected id %q", id)
		}
		if _, ok := IDOf(map[string]any{"title": "x"}); ok {
			t.Error("expected no id")
		}
	})

	t.Run("NewDiscography", func(t *testing.T) {
		d := NewDiscography(
			decode(t, `{"id":1,"name":"Artist"}`),
			decode(t, `{"items":[{"id":10},{"id":11}]}`),
			decode(t, `{"totalNumberOfItems":0}`),
		)
		if len(d.Albums) != 2 || len(d.Singles) != 0 {
			t.Errorf("unexpected discography %+v", d)
		}

		out, _ := json.Marshal(d)
		if string(out) != `{"details":{"id":1,"name":"Artist"},"albums":[{"id":10},{"id":11}],"singles":[]}` {
			t.Errorf("unexpected encoding %s", out)
		}
	})
}
