package content

import (
	"context"
	"log/slog"
	"sort"

	"kamaris/internal/storage"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// PostReader is the slice of the store the retrieval service needs.
type PostReader interface {
	ListPosts(ctx context.Context, filter storage.PostFilter) ([]*storage.BlogPost, error)
	GetPostBySlug(ctx context.Context, slug string) (*storage.BlogPost, error)
}

// Service is the public read path for blog content. Every method is
// fail-soft: gateway errors are logged and collapsed into an empty result
// so a broken backend degrades to "no posts shown" instead of a failed
// page render.
type Service struct {
	store  PostReader
	logger *slog.Logger
	tracer trace.Tracer
}

func NewService(store PostReader, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger,
		tracer: otel.Tracer("kamaris/content"),
	}
}

// ListOptions narrows ListPosts. Zero value means: all published posts,
// newest first, capped at the default limit.
type ListOptions struct {
	Tag       string
	Featured  *bool
	Limit     int
	OrderBy   string
	Ascending bool
}

const DefaultRelatedLimit = 3

func (s *Service) ListPosts(ctx context.Context, opts ListOptions) []*storage.BlogPost {
	ctx, span := s.tracer.Start(ctx, "content.ListPosts",
		trace.WithAttributes(attribute.String("posts.tag", opts.Tag)))
	defer span.End()

	posts, err := s.store.ListPosts(ctx, storage.PostFilter{
		Tag:        opts.Tag,
		Featured:   opts.Featured,
		Limit:      opts.Limit,
		OrderBy:    opts.OrderBy,
		Descending: !opts.Ascending,
	})
	if err != nil {
		span.RecordError(err)
		s.logger.Error("fetching posts", "tag", opts.Tag, "err", err)
		return []*storage.BlogPost{}
	}

	return posts
}

// FeaturedPosts returns the newest featured posts, most recent first.
func (s *Service) FeaturedPosts(ctx context.Context, limit int) []*storage.BlogPost {
	if limit <= 0 {
		limit = DefaultRelatedLimit
	}
	featured := true
	return s.ListPosts(ctx, ListOptions{Featured: &featured, Limit: limit})
}

// PostBySlug returns the single published post with that slug, or nil.
// "not found" and "fetch failed" both yield nil; failures are logged.
func (s *Service) PostBySlug(ctx context.Context, slug string) *storage.BlogPost {
	ctx, span := s.tracer.Start(ctx, "content.PostBySlug",
		trace.WithAttributes(attribute.String("posts.slug", slug)))
	defer span.End()

	post, err := s.store.GetPostBySlug(ctx, slug)
	if err != nil {
		span.RecordError(err)
		s.logger.Error("fetching post by slug", "slug", slug, "err", err)
		return nil
	}

	return post
}

// AllTags flattens and dedupes the tag sets of every published post. The
// order follows first appearance; callers wanting alphabetical sort it
// themselves.
func (s *Service) AllTags(ctx context.Context) []string {
	ctx, span := s.tracer.Start(ctx, "content.AllTags")
	defer span.End()

	posts := s.ListPosts(ctx, ListOptions{})

	seen := make(map[string]struct{})
	tags := make([]string, 0)
	for _, post := range posts {
		for _, tag := range post.Tags {
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			tags = append(tags, tag)
		}
	}

	return tags
}

// RelatedPosts ranks every other published post by how many tags it shares
// with ref and returns the top limit. Zero-score posts stay eligible; ties
// keep the backend's order (stable sort), which is all the upstream design
// promises.
func (s *Service) RelatedPosts(ctx context.Context, ref *storage.BlogPost, limit int) []*storage.BlogPost {
	if ref == nil {
		return []*storage.BlogPost{}
	}
	if limit <= 0 {
		limit = DefaultRelatedLimit
	}

	ctx, span := s.tracer.Start(ctx, "content.RelatedPosts",
		trace.WithAttributes(attribute.String("posts.ref", ref.Slug)))
	defer span.End()

	all := s.ListPosts(ctx, ListOptions{})

	candidates := make([]*storage.BlogPost, 0, len(all))
	for _, post := range all {
		if post.ID == ref.ID {
			continue
		}
		candidates = append(candidates, post)
	}

	scores := make(map[string]int, len(candidates))
	for _, post := range candidates {
		scores[post.ID] = sharedTagCount(post.Tags, ref.Tags)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return scores[candidates[i].ID] > scores[candidates[j].ID]
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	return candidates
}

// sharedTagCount is the intersection cardinality of two tag sets.
func sharedTagCount(a, b storage.StringList) int {
	count := 0
	for _, tag := range a {
		if b.Contains(tag) {
			count++
		}
	}
	return count
}
