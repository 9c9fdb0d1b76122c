// Authenticated upstream access for the catalog API
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/desertthunder/hifi/internal/credentials"
	"github.com/desertthunder/hifi/internal/shared"
)

// Observer is told about every upstream call once its response (or failure) is known.
//
// status is 0 when no response was received.
type Observer func(host string, status int, elapsed time.Duration)

// APIService issues GET requests to the catalog API on behalf of a [credentials.Credential].
type APIService struct {
	httpClient *http.Client
	observer   Observer
}

// NewAPIService creates a new API service instance. A nil client uses [http.DefaultClient].
func NewAPIService(client *http.Client) *APIService {
	if client == nil {
		client = http.DefaultClient
	}
	return &APIService{httpClient: client}
}

// WithObserver registers o to be called after each upstream request.
func (a *APIService) WithObserver(o Observer) *APIService {
	a.observer = o
	return a
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// JSON decodes the body, keeping numbers as [json.Number] so large ids survive re-encoding.
func (r *APIResponse) JSON() (any, error) {
	dec := json.NewDecoder(bytes.NewReader(r.Body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrMalformedResponse, err)
	}
	return v, nil
}

// UpstreamError is a non-2xx response from the catalog API.
type UpstreamError struct {
	Status int
	Body   string
	URL    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned %d for %s: %s", e.Status, e.URL, e.Body)
}

func (e *UpstreamError) Unwrap() error { return shared.ErrAPIRequest }

// Request names an upstream resource: BaseURL joined with Path, plus query Params.
type Request struct {
	BaseURL string
	Path    string
	Params  url.Values
}

// URL renders the absolute request URL.
func (r Request) URL() (string, error) {
	raw := strings.TrimRight(r.BaseURL, "/") + "/" + strings.TrimLeft(r.Path, "/")
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: bad upstream url %q: %v", shared.ErrBadRequest, raw, err)
	}
	if len(r.Params) > 0 {
		u.RawQuery = r.Params.Encode()
	}
	return u.String(), nil
}

// Get performs an authenticated GET and returns the raw response.
//
// Non-2xx responses are returned as an [*UpstreamError] together with the response.
func (a *APIService) Get(ctx context.Context, cred *credentials.Credential, r Request) (*APIResponse, error) {
	fullURL, err := r.URL()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	cred.Token().SetAuthHeader(req)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := a.httpClient.Do(req)
	if err != nil {
		a.observe(req.URL.Host, 0, start)
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %s: %v", shared.ErrTimeout, r.Path, err)
		}
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	a.observe(req.URL.Host, resp.StatusCode, start)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", shared.ErrAPIRequest, err)
	}

	apiResp := &APIResponse{StatusCode: resp.StatusCode, Headers: resp.Header, Body: body}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apiResp, &UpstreamError{Status: resp.StatusCode, Body: string(body), URL: fullURL}
	}
	return apiResp, nil
}

// GetJSON performs [APIService.Get] and decodes the body.
func (a *APIService) GetJSON(ctx context.Context, cred *credentials.Credential, r Request) (any, error) {
	resp, err := a.Get(ctx, cred, r)
	if err != nil {
		return nil, err
	}
	return resp.JSON()
}

func (a *APIService) observe(host string, status int, start time.Time) {
	if a.observer != nil {
		a.observer(host, status, time.Since(start))
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
