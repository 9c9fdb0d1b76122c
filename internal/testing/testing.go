// package testing contains shared testing utilities
package testing

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails once maxWrites writes have gone through
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

// Reply is a canned upstream response. Body is written verbatim when it is a string
// and JSON encoded otherwise.
type Reply struct {
	Status int
	Body   any
}

// Call is one request received by an [Upstream].
type Call struct {
	Path          string
	Query         url.Values
	Authorization string
}

// Upstream is a fake catalog API keyed by request path.
type Upstream struct {
	*httptest.Server

	mu     sync.Mutex
	routes map[string]Reply
	calls  []Call
}

// NewUpstream starts a fake catalog API that answers each path in routes.
// Unknown paths get a 404. The server is closed when the test ends.
func NewUpstream(t *testing.T, routes map[string]Reply) *Upstream {
	t.Helper()
	u := &Upstream{routes: routes}
	u.Server = httptest.NewServer(http.HandlerFunc(u.serve))
	t.Cleanup(u.Close)
	return u
}

func (u *Upstream) serve(w http.ResponseWriter, r *http.Request) {
	u.mu.Lock()
	u.calls = append(u.calls, Call{Path: r.URL.Path, Query: r.URL.Query(), Authorization: r.Header.Get("Authorization")})
	reply, ok := u.routes[r.URL.Path]
	u.mu.Unlock()

	if !ok {
		reply = Reply{Status: http.StatusNotFound, Body: `{"status":404,"userMessage":"not found"}`}
	}
	if reply.Status == 0 {
		reply.Status = http.StatusOK
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(reply.Status)
	switch body := reply.Body.(type) {
	case string:
		w.Write([]byte(body))
	case nil:
	default:
		json.NewEncoder(w).Encode(body)
	}
}

// Set replaces or adds the reply for path.
func (u *Upstream) Set(path string, reply Reply) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.routes[path] = reply
}

// Calls returns a copy of every request received so far.
func (u *Upstream) Calls() []Call {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]Call(nil), u.calls...)
}

// Call returns the first request made to path, if any.
func (u *Upstream) Call(path string) (Call, bool) {
	for _, c := range u.Calls() {
		if c.Path == path {
			return c, true
		}
	}
	return Call{}, false
}

// WriteToken writes a token file into dir and returns its path. An empty country is omitted.
func WriteToken(t *testing.T, dir, token, country string) string {
	t.Helper()
	payload := map[string]string{"access_token": token}
	if country != "" {
		payload["country_code"] = country
	}
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("Failed to encode token: %v", err)
	}
	path := filepath.Join(dir, "token.json")
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("Failed to write token file: %v", err)
	}
	return path
}

// Manifest builds a base64 stream manifest listing urls, as found in playback info responses.
func Manifest(t *testing.T, urls ...string) string {
	t.Helper()
	data, err := json.Marshal(map[string]any{
		"mimeType":       "audio/flac",
		"codecs":         "flac",
		"encryptionType": "NONE",
		"urls":           urls,
	})
	if err != nil {
		t.Fatalf("Failed to encode manifest: %v", err)
	}
	return base64.StdEncoding.EncodeToString(data)
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
