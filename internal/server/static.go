package server

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
)

// StaticHandler serves the bundled web client for any path no other route claims.
type StaticHandler struct {
	dir string
}

// NewStaticHandler serves files under dir. An empty dir serves nothing.
func NewStaticHandler(dir string) *StaticHandler {
	return &StaticHandler{dir: dir}
}

// Routes returns the HTTP routes this handler serves.
func (h *StaticHandler) Routes() []string {
	return []string{http.MethodGet + " /"}
}

// ServeHTTP maps / to index.html and any other path to the file of the same name.
// Directories and missing files are a JSON 404.
func (h *StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := path.Clean("/" + r.URL.Path)
	if name == "/" {
		name = "/index.html"
	}

	if h.dir == "" {
		writeJSON(w, http.StatusNotFound, errorBody{Detail: "Not Found"})
		return
	}

	full := filepath.Join(h.dir, filepath.FromSlash(name))
	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		writeJSON(w, http.StatusNotFound, errorBody{Detail: "Not Found"})
		return
	}

	http.ServeFile(w, r, full)
}
