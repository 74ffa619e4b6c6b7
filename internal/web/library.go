package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/tgillam/jukebox/internal/catalog"
	"github.com/tgillam/jukebox/internal/shared"
)

// maxUploadBytes bounds a single multipart upload.
const maxUploadBytes = 64 << 20

// LibraryHandler exposes the track library over HTTP: list, upload and
// delete. Writes land directly in the library directory; the catalog's
// directory watcher picks them up.
type LibraryHandler struct {
	catalog *catalog.Catalog
	ext     string
	logger  *log.Logger
}

// NewLibraryHandler creates the handler over the catalog.
func NewLibraryHandler(cat *catalog.Catalog, ext string, logger *log.Logger) *LibraryHandler {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &LibraryHandler{
		catalog: cat,
		ext:     ext,
		logger:  shared.WithLogger(logger, "component", "web"),
	}
}

// Routes returns the method-qualified patterns this handler serves.
func (h *LibraryHandler) Routes() []string {
	return []string{
		"GET /files",
		"POST /upload",
		"DELETE /files/{name}",
	}
}

func (h *LibraryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodGet:
		h.list(w, r)
	case r.Method == http.MethodPost:
		h.upload(w, r)
	case r.Method == http.MethodDelete:
		h.delete(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

type fileEntry struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func (h *LibraryHandler) list(w http.ResponseWriter, _ *http.Request) {
	tracks := h.catalog.Tracks()
	entries := make([]fileEntry, len(tracks))
	for i, track := range tracks {
		entries[i] = fileEntry{ID: track.ID, Title: track.Title}
	}
	writeJSON(w, http.StatusOK, map[string]any{"files": entries})
}

func (h *LibraryHandler) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("missing file field: %w", err))
		return
	}
	defer file.Close()

	name, err := h.safeName(header.Filename)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	dest := filepath.Join(h.catalog.Dir(), name)
	tmp, err := os.CreateTemp(h.catalog.Dir(), "upload-*")
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if err := tmp.Close(); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	if _, err := h.catalog.Reload(); err != nil {
		h.logger.Warn("failed to reload after upload", "error", err)
	}
	h.logger.Info("uploaded", "file", name, "size", header.Size)
	writeJSON(w, http.StatusCreated, map[string]string{"id": name})
}

func (h *LibraryHandler) delete(w http.ResponseWriter, r *http.Request) {
	name, err := h.safeName(r.PathValue("name"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	path := filepath.Join(h.catalog.Dir(), name)
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			writeError(w, http.StatusNotFound, fmt.Errorf("%w: %s", shared.ErrTrackNotFound, name))
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	if _, err := h.catalog.Reload(); err != nil {
		h.logger.Warn("failed to reload after delete", "error", err)
	}
	h.logger.Info("deleted", "file", name)
	writeJSON(w, http.StatusOK, map[string]string{"deleted": name})
}

// safeName restricts a client-supplied name to a bare library file: no
// path separators, the configured extension only.
func (h *LibraryHandler) safeName(name string) (string, error) {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." || name == ".." {
		return "", fmt.Errorf("%w: empty file name", shared.ErrInvalidInput)
	}
	if !strings.EqualFold(filepath.Ext(name), h.ext) {
		return "", fmt.Errorf("%w: only %s files are accepted", shared.ErrInvalidInput, h.ext)
	}
	return name, nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"detail": err.Error()})
}
