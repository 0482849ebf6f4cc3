package sqlite

import (
	"context"
	"fmt"
	"strings"

	"kamaris/internal/storage"

	"github.com/google/uuid"
)

// postOrderColumns guards against ordering by arbitrary caller input.
var postOrderColumns = map[string]bool{
	"published_date":    true,
	"title":             true,
	"created_at":        true,
	"read_time_minutes": true,
}

func (s *Store) ListPosts(ctx context.Context, filter storage.PostFilter) ([]*storage.BlogPost, error) {
	var sb strings.Builder
	args := make([]any, 0, 4)

	sb.WriteString(`SELECT * FROM blog_posts WHERE status = ?`)
	args = append(args, storage.StatusPublished)

	if filter.Tag != "" {
		sb.WriteString(` AND EXISTS (SELECT 1 FROM json_each(blog_posts.tags) WHERE json_each.value = ?)`)
		args = append(args, filter.Tag)
	}

	if filter.Featured != nil {
		sb.WriteString(` AND featured = ?`)
		args = append(args, *filter.Featured)
	}

	orderBy := filter.OrderBy
	if orderBy == "" {
		orderBy = "published_date"
	}
	if !postOrderColumns[orderBy] {
		return nil, fmt.Errorf("cannot order posts by %q", orderBy)
	}

	direction := "ASC"
	if filter.Descending {
		direction = "DESC"
	}
	fmt.Fprintf(&sb, ` ORDER BY %s %s`, orderBy, direction)

	limit := filter.Limit
	if limit <= 0 {
		limit = storage.DefaultPostLimit
	}
	sb.WriteString(` LIMIT ?`)
	args = append(args, limit)

	var posts []*storage.BlogPost
	if err := s.db.SelectContext(ctx, &posts, sb.String(), args...); err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", mapSqlError(err))
	}

	return posts, nil
}

func (s *Store) GetPostBySlug(ctx context.Context, slug string) (*storage.BlogPost, error) {
	query := `SELECT * FROM blog_posts
		WHERE slug = ? AND status = ?
		LIMIT 1`

	var post storage.BlogPost
	if err := s.db.GetContext(ctx, &post, query, slug, storage.StatusPublished); err != nil {
		return nil, fmt.Errorf("cannot find post with slug %q: %w", slug, mapSqlError(err))
	}

	return &post, nil
}

// CreatePost is the out-of-band creation path used by the importer; the API
// server itself never writes posts.
func (s *Store) CreatePost(ctx context.Context, post *storage.BlogPost) (*storage.BlogPost, error) {
	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	if post.ContentType == "" {
		post.ContentType = storage.ContentTypeMarkdown
	}
	if post.Status == "" {
		post.Status = storage.StatusDraft
	}

	query := `INSERT INTO blog_posts
		(id, slug, title, summary, content, content_type, featured_image, author,
		 published_date, tags, status, read_time_minutes, featured)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING *`

	var created storage.BlogPost
	if err := s.db.GetContext(ctx, &created, query,
		post.ID, post.Slug, post.Title, post.Summary, post.Content, post.ContentType,
		post.FeaturedImage, post.Author, post.PublishedDate, post.Tags, post.Status,
		post.ReadTimeMinutes, post.Featured,
	); err != nil {
		return nil, fmt.Errorf("could not create post %q: %w", post.Slug, mapSqlError(err))
	}

	return &created, nil
}
