package media

import (
	"context"
	"errors"
	"testing"

	"kamaris/internal/storage"
)

type fakeLister struct {
	items      []*storage.MediaItem
	err        error
	lastFilter storage.MediaFilter
}

func (f *fakeLister) ListMediaItems(ctx context.Context, filter storage.MediaFilter) ([]*storage.MediaItem, error) {
	f.lastFilter = filter
	if f.err != nil {
		return nil, f.err
	}
	return f.items, nil
}

func TestGalleryFailSoft(t *testing.T) {
	t.Parallel()

	g := NewGallery(&fakeLister{err: errors.New("gateway down")}, discard())

	got := g.ListItems(context.Background(), ListOptions{})
	if got == nil {
		t.Fatal("expected empty slice, got nil")
	}
	if len(got) != 0 {
		t.Errorf("expected no items, got %d", len(got))
	}
}

func TestGalleryPassesFilter(t *testing.T) {
	t.Parallel()

	lister := &fakeLister{items: []*storage.MediaItem{{ID: "1"}}}
	g := NewGallery(lister, discard())

	featured := true
	got := g.ListItems(context.Background(), ListOptions{Category: "festivals", Featured: &featured, Limit: 4})

	if len(got) != 1 {
		t.Fatalf("expected 1 item, got %d", len(got))
	}
	if lister.lastFilter.Category != "festivals" {
		t.Errorf("category not forwarded, got %q", lister.lastFilter.Category)
	}
	if lister.lastFilter.Featured == nil || !*lister.lastFilter.Featured {
		t.Error("featured filter not forwarded")
	}
	if lister.lastFilter.Limit != 4 {
		t.Errorf("limit not forwarded, got %d", lister.lastFilter.Limit)
	}
}
