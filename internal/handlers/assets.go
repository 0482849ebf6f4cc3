package handlers

import (
	"log/slog"
	"net/http"
	"slices"
	"strconv"

	"kamaris/internal/media"
	"kamaris/internal/storage"
	"kamaris/internal/telemetry"

	"go.opentelemetry.io/otel/trace"
)

// VariantHandler resolves a gallery image to its downscaled webp variant.
// The variant key is derived, not stored, so the frontend asks here instead
// of guessing bucket paths. A miss falls back to the original and enqueues
// generation for the next request.
type VariantHandler struct {
	Objects  storage.ObjectStore
	Variants *media.VariantProcessor
	Logger   *slog.Logger
	Metrics  *telemetry.Metrics
}

// HandleVariant answers GET /api/media/variant?key=...&width=... with a
// redirect to the best available object.
func (h *VariantHandler) HandleVariant(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		writeError(w, http.StatusBadRequest, "key is required")
		return
	}

	width, err := strconv.Atoi(r.URL.Query().Get("width"))
	if err != nil || !slices.Contains(media.VariantWidths, width) {
		writeError(w, http.StatusBadRequest, "width must be one of the generated sizes")
		return
	}

	variantKey := h.Variants.VariantKey(key, width)
	if h.Objects.Exists(r.Context(), variantKey) {
		http.Redirect(w, r, h.Objects.PublicURL(variantKey), http.StatusFound)
		return
	}

	// cache miss: serve the original now, fill the cache in the background
	job := media.VariantJob{
		SourceKey:  key,
		Width:      width,
		ParentSpan: trace.SpanContextFromContext(r.Context()),
	}
	if err := h.Variants.Enqueue(r.Context(), job); err != nil {
		h.Logger.Warn("could not enqueue variant", "key", key, "err", err)
	} else {
		h.Metrics.VariantJobsEnqueue.Add(r.Context(), 1)
	}

	http.Redirect(w, r, h.Objects.PublicURL(key), http.StatusFound)
}
