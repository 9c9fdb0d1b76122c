package credentials

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
)

// Placeholder regions reported by [Store.Region].
const (
	RegionNotAvailable = "N/A"
	RegionUnknown      = "Unk"
	RegionError        = "Err"
)

// RegionReport describes the region stored alongside the token.
type RegionReport struct {
	Region string `json:"region"`
	Error  string `json:"error,omitempty"`
}

// Region inspects the token file without requiring a usable token.
//
// It never fails: a missing file yields N/A, a file without country_code
// yields Unk and anything unreadable yields Err with the reason.
func (s *Store) Region() RegionReport {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return RegionReport{Region: RegionNotAvailable, Error: "Token file not found"}
		}
		return RegionReport{Region: RegionError, Error: err.Error()}
	}

	var payload struct {
		CountryCode any `json:"country_code"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return RegionReport{Region: RegionError, Error: err.Error()}
	}

	code, ok := payload.CountryCode.(string)
	if !ok || code == "" {
		return RegionReport{Region: RegionUnknown}
	}
	return RegionReport{Region: code}
}
