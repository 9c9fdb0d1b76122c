package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/hifi/internal/services"
	"github.com/desertthunder/hifi/internal/shared"
)

// errorBody is the JSON shape of every failed response.
type errorBody struct {
	Detail string `json:"detail"`
}

// StatusOf maps a route failure to its HTTP status and detail message.
//
// Upstream failures keep the upstream status and body text.
func StatusOf(err error) (int, string) {
	var upstream *services.UpstreamError
	switch {
	case errors.Is(err, shared.ErrUnauthorized):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, shared.ErrBadRequest):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.As(err, &upstream):
		return upstream.Status, upstream.Body
	case errors.Is(err, shared.ErrTimeout):
		return http.StatusGatewayTimeout, err.Error()
	case errors.Is(err, shared.ErrAPIRequest):
		return http.StatusBadGateway, err.Error()
	default:
		return http.StatusInternalServerError, err.Error()
	}
}

// writeError logs err and writes it as a {"detail": ...} response.
func writeError(w http.ResponseWriter, r *http.Request, logger *log.Logger, err error) {
	status, detail := StatusOf(err)

	kv := []any{"path", r.URL.Path, "status", status, "request_id", RequestID(r.Context()), "error", err}
	var upstream *services.UpstreamError
	if errors.As(err, &upstream) {
		kv = append(kv, "upstream_status", upstream.Status, "upstream_url", upstream.URL)
	}
	if status >= 500 {
		logger.Error("route failed", kv...)
	} else {
		logger.Warn("route failed", kv...)
	}

	writeJSON(w, status, errorBody{Detail: detail})
}

// writeJSON encodes v without HTML escaping so stream URLs come out as they went in.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.Encode(v)
}
