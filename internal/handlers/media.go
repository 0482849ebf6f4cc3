package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"kamaris/internal/media"
	"kamaris/internal/storage"
	"kamaris/internal/telemetry"
)

// MediaHandler serves the public gallery listing and the admin upload
// endpoint.
type MediaHandler struct {
	Gallery        *media.Gallery
	Ingestor       *media.Ingestor
	Logger         *slog.Logger
	Metrics        *telemetry.Metrics
	MaxUploadBytes int64
}

// HandleListMedia answers GET /api/media. Query params: category,
// featured (bool), limit (int). Fail-soft like the blog listing.
func (h *MediaHandler) HandleListMedia(w http.ResponseWriter, r *http.Request) {
	opts := media.ListOptions{
		Category: r.URL.Query().Get("category"),
		Limit:    queryInt(r, "limit"),
	}
	if featured, ok := queryBool(r, "featured"); ok {
		opts.Featured = &featured
	}

	writeJSON(w, http.StatusOK, h.Gallery.ListItems(r.Context(), opts))
}

// HandleCategories answers GET /api/media/categories with the fixed
// category set the admin form offers.
func (h *MediaHandler) HandleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, storage.MediaCategories)
}

// HandleUpload answers POST /admin/media: a multipart submission carrying
// the metadata fields plus the file and, for self-hosted videos, a
// thumbnail. Unlike the read endpoints this path is fail-loud.
func (h *MediaHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		writeError(w, http.StatusBadRequest, "malformed multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	in := media.UploadInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Type:        r.FormValue("type"),
		Categories:  r.MultipartForm.Value["categories"],
		Featured:    r.FormValue("featured") == "true",
		Source:      r.FormValue("source"),
	}

	var uploadSize int64
	if file, header, err := r.FormFile("file"); err == nil {
		defer file.Close()
		in.File = file
		in.Filename = header.Filename
		uploadSize = header.Size
	}
	if thumb, header, err := r.FormFile("thumbnail"); err == nil {
		defer thumb.Close()
		in.ThumbFile = thumb
		in.ThumbFilename = header.Filename
	}

	item, err := h.Ingestor.UploadAndCreate(r.Context(), in)
	if err != nil {
		h.Metrics.MediaIngestErrors.Add(r.Context(), 1)
		h.handleUploadError(w, r, err)
		return
	}

	h.Metrics.RecordIngest(r.Context(), uploadSize)
	h.Logger.Info("media item created",
		slog.String("id", item.ID),
		slog.String("type", item.Type),
	)

	writeJSON(w, http.StatusCreated, item)
}

// handleUploadError maps the ingest sentinels onto client errors; anything
// else is a backend failure.
func (h *MediaHandler) handleUploadError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, media.ErrThumbnailRequired),
		errors.Is(err, media.ErrTitleRequired),
		errors.Is(err, media.ErrNoCategories),
		errors.Is(err, media.ErrUnknownCategory),
		errors.Is(err, media.ErrInvalidMediaType),
		errors.Is(err, media.ErrFileRequired):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		InternalError(w, r, h.Logger, err)
	}
}
