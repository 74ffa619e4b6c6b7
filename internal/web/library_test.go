package web

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/tgillam/jukebox/internal/catalog"
	"github.com/tgillam/jukebox/internal/shared"
	jbtesting "github.com/tgillam/jukebox/internal/testing"
)

func newTestRouter(t *testing.T, ids ...string) (*Router, *catalog.Catalog) {
	t.Helper()
	dir := t.TempDir()
	jbtesting.WriteLibrary(t, dir, ids...)

	cat, err := catalog.New(shared.LibraryConfig{Dir: dir, Extension: ".mp3", LocalResults: 5}, nil)
	if err != nil {
		t.Fatalf("failed to create catalog: %v", err)
	}
	if _, err := cat.Reload(); err != nil {
		t.Fatalf("failed to reload catalog: %v", err)
	}

	router := NewRouter()
	router.Handler(NewLibraryHandler(cat, ".mp3", nil))
	return router, cat
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	part.Write(content)
	writer.Close()
	return &buf, writer.FormDataContentType()
}

func TestListFiles(t *testing.T) {
	router, _ := newTestRouter(t, "song_a.mp3", "song_b.mp3")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/files", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Files []struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		} `json:"files"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if len(body.Files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(body.Files))
	}
	if body.Files[0].ID != "song_a.mp3" || body.Files[0].Title != "song a" {
		t.Errorf("unexpected first entry: %+v", body.Files[0])
	}
}

func TestUpload(t *testing.T) {
	t.Run("accepts mp3 and publishes to catalog", func(t *testing.T) {
		router, cat := newTestRouter(t)

		buf, contentType := multipartBody(t, "file", "new_song.mp3", []byte("audio bytes"))
		req := httptest.NewRequest(http.MethodPost, "/upload", buf)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		jbtesting.AssertFileExists(t, filepath.Join(cat.Dir(), "new_song.mp3"))
		if _, ok := cat.ByID("new_song.mp3"); !ok {
			t.Error("upload should appear in the catalog")
		}
	})

	t.Run("rejects other extensions", func(t *testing.T) {
		router, cat := newTestRouter(t)

		buf, contentType := multipartBody(t, "file", "notes.txt", []byte("not audio"))
		req := httptest.NewRequest(http.MethodPost, "/upload", buf)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		jbtesting.AssertFileMissing(t, filepath.Join(cat.Dir(), "notes.txt"))
	})

	t.Run("strips path components", func(t *testing.T) {
		router, cat := newTestRouter(t)

		buf, contentType := multipartBody(t, "file", "../../escape.mp3", []byte("audio"))
		req := httptest.NewRequest(http.MethodPost, "/upload", buf)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		jbtesting.AssertFileExists(t, filepath.Join(cat.Dir(), "escape.mp3"))
		jbtesting.AssertFileMissing(t, filepath.Join(cat.Dir(), "..", "..", "escape.mp3"))
	})
}

func TestDelete(t *testing.T) {
	t.Run("removes a library file", func(t *testing.T) {
		router, cat := newTestRouter(t, "song_a.mp3")

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/files/song_a.mp3", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		jbtesting.AssertFileMissing(t, filepath.Join(cat.Dir(), "song_a.mp3"))
		if _, ok := cat.ByID("song_a.mp3"); ok {
			t.Error("deleted file should leave the catalog")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		router, _ := newTestRouter(t)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/files/nope.mp3", nil))
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("guards the extension", func(t *testing.T) {
		router, _ := newTestRouter(t)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/files/config.toml", nil))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}
