package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/desertthunder/hifi/internal/shared"
)

// DefaultCountryCode is used when the token file does not name a region.
const DefaultCountryCode = "US"

// Credential is the bearer token plus the region the catalog is queried for.
type Credential struct {
	AccessToken string `json:"access_token"`
	CountryCode string `json:"country_code"`
}

// Token wraps the access token as a bearer [oauth2.Token].
func (c *Credential) Token() *oauth2.Token {
	return &oauth2.Token{AccessToken: c.AccessToken, TokenType: "Bearer"}
}

// Store loads credentials from a token file on disk.
type Store struct {
	path   string
	logger *log.Logger
	warn   rate.Sometimes
}

// NewStore returns a Store reading path. A nil logger discards warnings.
func NewStore(path string, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Store{
		path:   path,
		logger: logger,
		warn:   rate.Sometimes{Interval: time.Minute},
	}
}

// Path returns the token file location.
func (s *Store) Path() string { return s.path }

// Load reads the token file. Every failure wraps [shared.ErrUnauthorized].
func (s *Store) Load() (*Credential, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, s.unauthorized("%w: %s does not exist, run the login flow first", shared.ErrMissingCredentials, s.path)
		}
		return nil, s.unauthorized("%s could not be read: %v", s.path, err)
	}

	var cred Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return nil, s.unauthorized("%s is not a valid token file: %v", s.path, err)
	}

	if cred.AccessToken == "" {
		return nil, s.unauthorized("%s does not contain an access_token", s.path)
	}

	if cred.CountryCode == "" {
		cred.CountryCode = DefaultCountryCode
	}

	return &cred, nil
}

// Exists reports whether the token file is present.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

func (s *Store) unauthorized(format string, args ...any) error {
	err := fmt.Errorf("%w: "+format, append([]any{shared.ErrUnauthorized}, args...)...)
	s.warn.Do(func() { s.logger.Warn("credentials unavailable", "path", s.path, "error", err) })
	return err
}
