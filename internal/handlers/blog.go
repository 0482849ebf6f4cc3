package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"kamaris/internal/content"
	"kamaris/internal/storage"
	"kamaris/internal/telemetry"
)

// BlogHandler serves the public blog read API.
type BlogHandler struct {
	Posts    *content.Service
	Renderer *content.MarkDownRenderer
	Logger   *slog.Logger
	Metrics  *telemetry.Metrics
}

// postResponse carries one post plus, for markdown posts, the rendered
// body so the frontend never ships a markdown engine.
type postResponse struct {
	*storage.BlogPost
	BodyHTML string `json:"body_html,omitempty"`
}

// HandleListPosts answers GET /api/posts. Query params: tag, featured
// (bool), limit (int). The read path is fail-soft, so this endpoint only
// ever answers 200 with a (possibly empty) list.
func (h *BlogHandler) HandleListPosts(w http.ResponseWriter, r *http.Request) {
	opts := content.ListOptions{
		Tag:   r.URL.Query().Get("tag"),
		Limit: queryInt(r, "limit"),
	}
	if featured, ok := queryBool(r, "featured"); ok {
		opts.Featured = &featured
	}

	posts := h.Posts.ListPosts(r.Context(), opts)
	h.Metrics.PostFetchesTotal.Add(r.Context(), 1)

	writeJSON(w, http.StatusOK, posts)
}

// HandleGetPost answers GET /api/posts/{slug}.
func (h *BlogHandler) HandleGetPost(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")

	post := h.Posts.PostBySlug(r.Context(), slug)
	if post == nil {
		h.Metrics.PostLookupMisses.Add(r.Context(), 1)
		NotFoundError(w, r, h.Logger)
		return
	}

	resp := postResponse{BlogPost: post}
	switch post.ContentType {
	case storage.ContentTypeHTML:
		resp.BodyHTML = post.Content
	default:
		html, err := h.Renderer.Render([]byte(post.Content))
		if err != nil {
			InternalError(w, r, h.Logger, err)
			return
		}
		resp.BodyHTML = string(html)
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleRelatedPosts answers GET /api/posts/{slug}/related.
func (h *BlogHandler) HandleRelatedPosts(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")

	post := h.Posts.PostBySlug(r.Context(), slug)
	if post == nil {
		h.Metrics.PostLookupMisses.Add(r.Context(), 1)
		NotFoundError(w, r, h.Logger)
		return
	}

	related := h.Posts.RelatedPosts(r.Context(), post, queryInt(r, "limit"))
	h.Metrics.RelatedQueryTotal.Add(r.Context(), 1)

	writeJSON(w, http.StatusOK, related)
}

// HandleListTags answers GET /api/tags with the deduped tag list across
// all published posts, in first-appearance order.
func (h *BlogHandler) HandleListTags(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Posts.AllTags(r.Context()))
}

func queryInt(r *http.Request, name string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return 0
	}
	return n
}

func queryBool(r *http.Request, name string) (value, ok bool) {
	b, err := strconv.ParseBool(r.URL.Query().Get(name))
	if err != nil {
		return false, false
	}
	return b, true
}
