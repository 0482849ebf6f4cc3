package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"kamaris/internal/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("could not open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if err := store.Migrate("../../../migrations"); err != nil {
		t.Fatalf("migrations failed: %v", err)
	}

	return store
}

func seedPost(t *testing.T, store *Store, slug, status string, featured bool, published time.Time, tags ...string) *storage.BlogPost {
	t.Helper()

	created, err := store.CreatePost(context.Background(), &storage.BlogPost{
		Slug:          slug,
		Title:         "Post " + slug,
		Content:       "# " + slug,
		Author:        "tester",
		PublishedDate: published,
		Tags:          storage.StringList(tags),
		Status:        status,
		Featured:      featured,
	})
	if err != nil {
		t.Fatalf("could not seed post %q: %v", slug, err)
	}
	return created
}

func TestListPostsOnlyPublished(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)

	now := time.Now().UTC()
	seedPost(t, store, "visible", storage.StatusPublished, false, now)
	seedPost(t, store, "hidden", storage.StatusDraft, false, now)

	posts, err := store.ListPosts(context.Background(), storage.PostFilter{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(posts) != 1 || posts[0].Slug != "visible" {
		t.Errorf("expected only the published post, got %+v", posts)
	}
}

func TestListPostsTagContainment(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)

	now := time.Now().UTC()
	seedPost(t, store, "tagged", storage.StatusPublished, false, now, "history", "sea")
	seedPost(t, store, "other", storage.StatusPublished, false, now, "food")
	seedPost(t, store, "untagged", storage.StatusPublished, false, now)

	posts, err := store.ListPosts(context.Background(), storage.PostFilter{Tag: "history"})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(posts) != 1 || posts[0].Slug != "tagged" {
		t.Errorf("tag filter wrong, got %+v", posts)
	}
}

func TestListPostsFeaturedAndOrdering(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	seedPost(t, store, "older", storage.StatusPublished, true, base)
	seedPost(t, store, "newer", storage.StatusPublished, true, base.AddDate(0, 1, 0))
	seedPost(t, store, "plain", storage.StatusPublished, false, base.AddDate(0, 2, 0))

	featured := true
	posts, err := store.ListPosts(context.Background(), storage.PostFilter{Featured: &featured, Descending: true})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("expected 2 featured posts, got %d", len(posts))
	}
	if posts[0].Slug != "newer" || posts[1].Slug != "older" {
		t.Errorf("wrong order: %s, %s", posts[0].Slug, posts[1].Slug)
	}
}

func TestListPostsRejectsUnknownOrderColumn(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)

	if _, err := store.ListPosts(context.Background(), storage.PostFilter{OrderBy: "1; DROP TABLE blog_posts"}); err == nil {
		t.Fatal("arbitrary order column must be rejected")
	}
}

func TestGetPostBySlug(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)

	now := time.Now().UTC()
	seedPost(t, store, "founding-of-kamaris", storage.StatusPublished, false, now, "history")
	seedPost(t, store, "draft-post", storage.StatusDraft, false, now)

	post, err := store.GetPostBySlug(context.Background(), "founding-of-kamaris")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if !post.Tags.Contains("history") {
		t.Errorf("tags did not round-trip: %v", post.Tags)
	}

	if _, err := store.GetPostBySlug(context.Background(), "draft-post"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("drafts must be invisible, got %v", err)
	}
	if _, err := store.GetPostBySlug(context.Background(), "nope"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCreatePostDuplicateSlug(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)

	now := time.Now().UTC()
	seedPost(t, store, "dupe", storage.StatusPublished, false, now)

	_, err := store.CreatePost(context.Background(), &storage.BlogPost{
		Slug:          "dupe",
		Title:         "Again",
		PublishedDate: now,
	})
	if !errors.Is(err, storage.ErrUniqueViolation) {
		t.Fatalf("expected ErrUniqueViolation, got %v", err)
	}
}

func TestCreateMediaItemAndList(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)

	created, err := store.CreateMediaItem(context.Background(), &storage.MediaItem{
		Title:      "Harbour",
		Type:       storage.MediaTypeImage,
		Thumbnail:  "https://cdn.test/images/harbour.jpg",
		Source:     "https://cdn.test/images/harbour.jpg",
		Categories: storage.StringList{"landscapes"},
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if created.ID == "" {
		t.Error("id should be generated")
	}

	_, err = store.CreateMediaItem(context.Background(), &storage.MediaItem{
		Title:      "Dance",
		Type:       storage.MediaTypeVideo,
		Thumbnail:  "https://cdn.test/thumbnails/dance.jpg",
		Source:     "https://cdn.test/videos/dance.mp4",
		Categories: storage.StringList{"festivals", "videos"},
		Featured:   true,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	items, err := store.ListMediaItems(context.Background(), storage.MediaFilter{Category: "festivals"})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(items) != 1 || items[0].Title != "Dance" {
		t.Errorf("category filter wrong: %+v", items)
	}

	featured := false
	items, err = store.ListMediaItems(context.Background(), storage.MediaFilter{Featured: &featured})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(items) != 1 || items[0].Title != "Harbour" {
		t.Errorf("featured filter wrong: %+v", items)
	}
}

func TestCreateMediaItemVideoRequiresThumbnail(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)

	_, err := store.CreateMediaItem(context.Background(), &storage.MediaItem{
		Title:      "No Thumb",
		Type:       storage.MediaTypeVideo,
		Source:     "https://cdn.test/videos/x.mp4",
		Categories: storage.StringList{"videos"},
	})
	if !errors.Is(err, storage.ErrCheckViolation) {
		t.Fatalf("schema must reject thumbnail-less videos, got %v", err)
	}
}

func TestAdminLifecycle(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	admin, err := store.CreateAdmin(ctx, "eleni", "$2a$12$fakehash")
	if err != nil {
		t.Fatalf("create admin failed: %v", err)
	}

	got, err := store.GetAdminByUsername(ctx, "eleni")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if got.ID != admin.ID || got.PasswordHash != "$2a$12$fakehash" {
		t.Errorf("admin did not round-trip: %+v", got)
	}

	if _, err := store.GetAdminByUsername(ctx, "nobody"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	ok, err := store.IsAdmin(ctx, admin.ID)
	if err != nil || !ok {
		t.Errorf("IsAdmin(%d) = %v, %v", admin.ID, ok, err)
	}
	ok, err = store.IsAdmin(ctx, 9999)
	if err != nil || ok {
		t.Errorf("IsAdmin(9999) = %v, %v; want false, nil", ok, err)
	}

	if _, err := store.CreateAdmin(ctx, "eleni", "other"); !errors.Is(err, storage.ErrUniqueViolation) {
		t.Errorf("duplicate username must fail, got %v", err)
	}
}
