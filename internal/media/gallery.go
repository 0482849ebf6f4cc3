package media

import (
	"context"
	"log/slog"

	"kamaris/internal/storage"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Lister is the read half of the media table.
type Lister interface {
	ListMediaItems(ctx context.Context, filter storage.MediaFilter) ([]*storage.MediaItem, error)
}

// Gallery is the public read path for the media hub. Like the blog read
// path it is fail-soft: a broken backend shows an empty gallery, never an
// error page.
type Gallery struct {
	store  Lister
	logger *slog.Logger
	tracer trace.Tracer
}

func NewGallery(store Lister, logger *slog.Logger) *Gallery {
	return &Gallery{
		store:  store,
		logger: logger,
		tracer: otel.Tracer("kamaris/media/gallery"),
	}
}

// ListOptions narrows the gallery listing; zero value returns everything
// newest first.
type ListOptions struct {
	Category string
	Featured *bool
	Limit    int
}

func (g *Gallery) ListItems(ctx context.Context, opts ListOptions) []*storage.MediaItem {
	ctx, span := g.tracer.Start(ctx, "media.ListItems",
		trace.WithAttributes(attribute.String("media.category", opts.Category)))
	defer span.End()

	items, err := g.store.ListMediaItems(ctx, storage.MediaFilter{
		Category: opts.Category,
		Featured: opts.Featured,
		Limit:    opts.Limit,
	})
	if err != nil {
		span.RecordError(err)
		g.logger.Error("fetching media items", "category", opts.Category, "err", err)
		return []*storage.MediaItem{}
	}

	return items
}
