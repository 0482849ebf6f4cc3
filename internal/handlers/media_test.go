package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"kamaris/internal/media"
	"kamaris/internal/storage"
)

type stubObjects struct {
	saved []string
}

func (s *stubObjects) Save(ctx context.Context, key string, body io.Reader) error {
	io.Copy(io.Discard, body)
	s.saved = append(s.saved, key)
	return nil
}

func (s *stubObjects) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	return nil, storage.ErrNotFound
}

func (s *stubObjects) Exists(ctx context.Context, key string) bool { return false }

func (s *stubObjects) Delete(ctx context.Context, key string) error { return nil }

func (s *stubObjects) PublicURL(key string) string { return "https://cdn.test/" + key }

type stubMediaStore struct {
	items []*storage.MediaItem
}

func (s *stubMediaStore) CreateMediaItem(ctx context.Context, item *storage.MediaItem) (*storage.MediaItem, error) {
	item.ID = "m1"
	s.items = append(s.items, item)
	return item, nil
}

func (s *stubMediaStore) ListMediaItems(ctx context.Context, filter storage.MediaFilter) ([]*storage.MediaItem, error) {
	return s.items, nil
}

func newMediaHandler(t *testing.T) (*MediaHandler, *stubObjects, *stubMediaStore) {
	t.Helper()
	objects := &stubObjects{}
	store := &stubMediaStore{}
	logger := testLogger()

	h := &MediaHandler{
		Gallery:        media.NewGallery(store, logger),
		Ingestor:       media.NewIngestor(objects, store, nil, "", logger),
		Logger:         logger,
		Metrics:        testMetrics(t),
		MaxUploadBytes: 1 << 20,
	}
	return h, objects, store
}

func multipartUpload(t *testing.T, fields map[string][]string, files map[string]string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, values := range fields {
		for _, v := range values {
			mw.WriteField(name, v)
		}
	}
	for field, filename := range files {
		fw, err := mw.CreateFormFile(field, filename)
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		fw.Write([]byte("fake-bytes"))
	}
	mw.Close()

	r := httptest.NewRequest(http.MethodPost, "/admin/media", &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	return r
}

func TestHandleUploadImage(t *testing.T) {
	t.Parallel()

	h, objects, store := newMediaHandler(t)

	r := multipartUpload(t,
		map[string][]string{
			"title":      {"Old Harbour"},
			"type":       {storage.MediaTypeImage},
			"categories": {"landscapes", "culture"},
			"featured":   {"true"},
		},
		map[string]string{"file": "harbour.jpg"},
	)

	w := httptest.NewRecorder()
	h.HandleUpload(w, r)

	if w.Code != http.StatusCreated {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}

	var got storage.MediaItem
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if got.ID == "" || got.Thumbnail != got.Source {
		t.Errorf("unexpected item: %+v", got)
	}
	if len(got.Categories) != 2 {
		t.Errorf("categories lost: %v", got.Categories)
	}
	if len(objects.saved) != 1 {
		t.Errorf("expected one upload, got %v", objects.saved)
	}
	if len(store.items) != 1 {
		t.Errorf("expected one insert, got %d", len(store.items))
	}
}

func TestHandleUploadVideoMissingThumbnail(t *testing.T) {
	t.Parallel()

	h, _, store := newMediaHandler(t)

	r := multipartUpload(t,
		map[string][]string{
			"title":      {"Dance"},
			"type":       {storage.MediaTypeVideo},
			"categories": {"videos"},
		},
		map[string]string{"file": "dance.mp4"},
	)

	w := httptest.NewRecorder()
	h.HandleUpload(w, r)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", w.Code, w.Body.String())
	}
	if len(store.items) != 0 {
		t.Error("failed submission must not insert metadata")
	}
}

func TestHandleUploadBadCategory(t *testing.T) {
	t.Parallel()

	h, objects, _ := newMediaHandler(t)

	r := multipartUpload(t,
		map[string][]string{
			"title":      {"Bad"},
			"type":       {storage.MediaTypeImage},
			"categories": {"aliens"},
		},
		map[string]string{"file": "x.png"},
	)

	w := httptest.NewRecorder()
	h.HandleUpload(w, r)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
	if len(objects.saved) != 0 {
		t.Error("nothing may upload before validation passes")
	}
}

func TestHandleUploadNotMultipart(t *testing.T) {
	t.Parallel()

	h, _, _ := newMediaHandler(t)

	r := httptest.NewRequest(http.MethodPost, "/admin/media", bytes.NewBufferString("plain body"))
	w := httptest.NewRecorder()
	h.HandleUpload(w, r)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestHandleListMedia(t *testing.T) {
	t.Parallel()

	h, _, store := newMediaHandler(t)
	store.items = []*storage.MediaItem{{ID: "1", Title: "Harbour"}}

	r := httptest.NewRequest(http.MethodGet, "/api/media?category=landscapes", nil)
	w := httptest.NewRecorder()
	h.HandleListMedia(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	var got []storage.MediaItem
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if len(got) != 1 || got[0].Title != "Harbour" {
		t.Errorf("unexpected items: %+v", got)
	}
}

func TestHandleCategories(t *testing.T) {
	t.Parallel()

	h, _, _ := newMediaHandler(t)

	w := httptest.NewRecorder()
	h.HandleCategories(w, httptest.NewRequest(http.MethodGet, "/api/media/categories", nil))

	var got []string
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if len(got) != len(storage.MediaCategories) {
		t.Errorf("expected the fixed category set, got %v", got)
	}
}
