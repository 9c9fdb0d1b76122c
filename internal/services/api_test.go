package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/desertthunder/hifi/internal/credentials"
	"github.com/desertthunder/hifi/internal/shared"
	tu "github.com/desertthunder/hifi/internal/testing"
)

var testCred = &credentials.Credential{AccessToken: "tok", CountryCode: "US"}

func TestAPIService(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		t.Run("With Custom Client", func(t *testing.T) {
			customClient := &http.Client{}
			srv := NewAPIService(customClient)

			if srv.httpClient != customClient {
				t.Error("expected custom client to be used")
			}
		})

		t.Run("With Nil Client", func(t *testing.T) {
			srv := NewAPIService(nil)

			if srv.httpClient != http.DefaultClient {
				t.Error("expected http.DefaultClient to be used")
			}
		})
	})

	t.Run("Request URL", func(t *testing.T) {
		r := Request{
			BaseURL: "https://api.tidal.com/v1/",
			Path:    "/pages/data/abc-123",
			Params:  url.Values{"countryCode": {"US"}, "limit": {"50"}},
		}

		got, err := r.URL()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := "https://api.tidal.com/v1/pages/data/abc-123?countryCode=US&limit=50"
		if got != want {
			t.Errorf("expected %s, got %s", want, got)
		}
	})

	t.Run("Get", func(t *testing.T) {
		t.Run("Injects Bearer Token", func(t *testing.T) {
			upstream := tu.NewUpstream(t, map[string]tu.Reply{
				"/v1/tracks/1": {Body: map[string]any{"id": 1}},
			})

			srv := NewAPIService(upstream.Client())
			resp, err := srv.Get(context.Background(), testCred, Request{BaseURL: upstream.URL + "/v1", Path: "tracks/1"})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if resp.StatusCode != http.StatusOK {
				t.Errorf("expected status 200, got %d", resp.StatusCode)
			}

			call, ok := upstream.Call("/v1/tracks/1")
			if !ok {
				t.Fatal("expected upstream to be called")
			}
			if call.Authorization != "Bearer tok" {
				t.Errorf("expected Bearer tok, got %q", call.Authorization)
			}
		})

		t.Run("Non-2xx Becomes UpstreamError", func(t *testing.T) {
			upstream := tu.NewUpstream(t, map[string]tu.Reply{
				"/v1/tracks/1": {Status: http.StatusTooManyRequests, Body: `{"userMessage":"slow down"}`},
			})

			_, err := NewAPIService(upstream.Client()).Get(context.Background(), testCred, Request{BaseURL: upstream.URL + "/v1", Path: "tracks/1"})

			var upErr *UpstreamError
			if !errors.As(err, &upErr) {
				t.Fatalf("expected UpstreamError, got %v", err)
			}
			if upErr.Status != http.StatusTooManyRequests {
				t.Errorf("expected status 429, got %d", upErr.Status)
			}
			if upErr.Body != `{"userMessage":"slow down"}` {
				t.Errorf("expected body to be kept verbatim, got %s", upErr.Body)
			}
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Error("expected UpstreamError to unwrap to ErrAPIRequest")
			}
		})

		t.Run("Transport Failure", func(t *testing.T) {
			client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused"))}

			_, err := NewAPIService(client).Get(context.Background(), testCred, Request{BaseURL: "http://example.com", Path: "x"})
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
			var upErr *UpstreamError
			if errors.As(err, &upErr) {
				t.Error("transport failures carry no upstream status")
			}
		})

		t.Run("Timeout", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(time.Second):
				}
			}))
			defer server.Close()

			client := &http.Client{Timeout: 20 * time.Millisecond}
			_, err := NewAPIService(client).Get(context.Background(), testCred, Request{BaseURL: server.URL, Path: "slow"})
			if !errors.Is(err, shared.ErrTimeout) {
				t.Errorf("expected ErrTimeout, got %v", err)
			}
		})

		t.Run("Body Read Failure", func(t *testing.T) {
			resp := &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(&tu.FCloser{}), Header: http.Header{}}
			client := &http.Client{Transport: tu.NewMockRoundTripper(resp, nil)}

			_, err := NewAPIService(client).Get(context.Background(), testCred, Request{BaseURL: "http://example.com", Path: "x"})
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
		})

		t.Run("Observer Sees Status", func(t *testing.T) {
			upstream := tu.NewUpstream(t, map[string]tu.Reply{"/ok": {Body: "{}"}})

			var gotStatus int
			srv := NewAPIService(upstream.Client()).WithObserver(func(host string, status int, elapsed time.Duration) {
				gotStatus = status
			})
			if _, err := srv.Get(context.Background(), testCred, Request{BaseURL: upstream.URL, Path: "ok"}); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if gotStatus != http.StatusOK {
				t.Errorf("expected observer to see 200, got %d", gotStatus)
			}
		})
	})

	t.Run("JSON", func(t *testing.T) {
		t.Run("Keeps Large Integers", func(t *testing.T) {
			resp := &APIResponse{Body: []byte(`{"id":9007199254740993}`)}

			v, err := resp.JSON()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			out, _ := json.Marshal(v)
			if string(out) != `{"id":9007199254740993}` {
				t.Errorf("expected id to survive re-encoding, got %s", out)
			}
		})

		t.Run("Malformed Body", func(t *testing.T) {
			_, err := (&APIResponse{Body: []byte("<html>")}).JSON()
			if !errors.Is(err, shared.ErrMalformedResponse) {
				t.Errorf("expected ErrMalformedResponse, got %v", err)
			}
		})
	})
}
