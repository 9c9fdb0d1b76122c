package formatter

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/desertthunder/hifi/internal/shared"
)

// Playback is the decoded manifest of a playback info response.
type Playback struct {
	MimeType string
	Data     []byte
}

// Manifest is the JSON form of a non-adaptive stream manifest.
type Manifest struct {
	MimeType       string   `json:"mimeType"`
	Codecs         string   `json:"codecs"`
	EncryptionType string   `json:"encryptionType"`
	URLs           []string `json:"urls"`
}

// TrackURL is the third element of composite track responses.
type TrackURL struct {
	OriginalTrackURL string `json:"OriginalTrackUrl"`
}

// DecodePlayback base64-decodes the manifest field of a playback info payload.
func DecodePlayback(info any) (*Playback, error) {
	encoded, ok := field(info, "manifest").(string)
	if !ok || encoded == "" {
		return nil, fmt.Errorf("%w: playback info has no manifest", shared.ErrMalformedResponse)
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: manifest is not base64: %v", shared.ErrMalformedResponse, err)
	}

	mime, _ := field(info, "manifestMimeType").(string)
	return &Playback{MimeType: mime, Data: data}, nil
}

// Manifest parses the decoded bytes as a JSON manifest.
func (p *Playback) Manifest() (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(p.Data, &m); err != nil {
		return nil, fmt.Errorf("%w: manifest is not JSON: %v", shared.ErrMalformedResponse, err)
	}
	return &m, nil
}

// JSON returns the decoded manifest as generic JSON, preserving fields [Manifest] does not name.
func (p *Playback) JSON() (any, error) {
	var v any
	if err := json.Unmarshal(p.Data, &v); err != nil {
		return nil, fmt.Errorf("%w: manifest is not JSON: %v", shared.ErrMalformedResponse, err)
	}
	return v, nil
}

// OriginalTrackURL extracts the first stream URL of a playback info payload.
func OriginalTrackURL(info any) (*TrackURL, error) {
	playback, err := DecodePlayback(info)
	if err != nil {
		return nil, err
	}

	m, err := playback.Manifest()
	if err != nil {
		return nil, err
	}

	if len(m.URLs) == 0 {
		return nil, fmt.Errorf("%w: manifest lists no urls", shared.ErrMalformedResponse)
	}
	return &TrackURL{OriginalTrackURL: m.URLs[0]}, nil
}
