package sqlite

import (
	"context"
	"fmt"
	"strings"

	"kamaris/internal/storage"

	"github.com/google/uuid"
)

func (s *Store) CreateMediaItem(ctx context.Context, item *storage.MediaItem) (*storage.MediaItem, error) {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}

	query := `INSERT INTO media_items
		(id, title, description, type, thumbnail, source, categories, featured)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING *`

	var created storage.MediaItem
	if err := s.db.GetContext(ctx, &created, query,
		item.ID, item.Title, item.Description, item.Type,
		item.Thumbnail, item.Source, item.Categories, item.Featured,
	); err != nil {
		return nil, fmt.Errorf("could not create media item %q: %w", item.Title, mapSqlError(err))
	}

	return &created, nil
}

func (s *Store) ListMediaItems(ctx context.Context, filter storage.MediaFilter) ([]*storage.MediaItem, error) {
	var sb strings.Builder
	args := make([]any, 0, 3)

	sb.WriteString(`SELECT * FROM media_items WHERE 1=1`)

	if filter.Category != "" {
		sb.WriteString(` AND EXISTS (SELECT 1 FROM json_each(media_items.categories) WHERE json_each.value = ?)`)
		args = append(args, filter.Category)
	}

	if filter.Featured != nil {
		sb.WriteString(` AND featured = ?`)
		args = append(args, *filter.Featured)
	}

	sb.WriteString(` ORDER BY created_at DESC`)

	if filter.Limit > 0 {
		sb.WriteString(` LIMIT ?`)
		args = append(args, filter.Limit)
	}

	var items []*storage.MediaItem
	if err := s.db.SelectContext(ctx, &items, sb.String(), args...); err != nil {
		return nil, fmt.Errorf("failed to list media items: %w", mapSqlError(err))
	}

	return items, nil
}
