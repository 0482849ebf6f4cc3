package storage

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"
)

type Store interface {
	// posts
	ListPosts(ctx context.Context, filter PostFilter) ([]*BlogPost, error)
	GetPostBySlug(ctx context.Context, slug string) (*BlogPost, error)
	CreatePost(ctx context.Context, post *BlogPost) (*BlogPost, error)

	// media
	CreateMediaItem(ctx context.Context, item *MediaItem) (*MediaItem, error)
	ListMediaItems(ctx context.Context, filter MediaFilter) ([]*MediaItem, error)

	// admins
	CreateAdmin(ctx context.Context, username, passwordHash string) (*Admin, error)
	GetAdminByUsername(ctx context.Context, username string) (*Admin, error)
	IsAdmin(ctx context.Context, adminID int64) (bool, error)

	Close() error
}

// ObjectStore abstracts the S3-compatible bucket holding uploaded media.
type ObjectStore interface {
	Save(ctx context.Context, key string, body io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Exists(ctx context.Context, key string) bool
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
}

var (
	ErrNotFound        = errors.New("record not found")
	ErrUniqueViolation = errors.New("unique constraint violation")
	ErrCheckViolation  = errors.New("check constraint violation")
)

const (
	StatusDraft     = "draft"
	StatusPublished = "published"

	ContentTypeMarkdown = "markdown"
	ContentTypeHTML     = "html"

	MediaTypeImage = "image"
	MediaTypeVideo = "video"
)

// MediaCategories is the fixed set of gallery categories the upload form offers.
var MediaCategories = []string{"culture", "landscapes", "people", "architecture", "festivals", "videos"}

func ValidCategory(c string) bool {
	return slices.Contains(MediaCategories, c)
}

type BlogPost struct {
	ID              string     `db:"id" json:"id"`
	Slug            string     `db:"slug" json:"slug"`
	Title           string     `db:"title" json:"title"`
	Summary         string     `db:"summary" json:"summary"`
	Content         string     `db:"content" json:"content"`
	ContentType     string     `db:"content_type" json:"content_type"`
	FeaturedImage   string     `db:"featured_image" json:"featured_image"`
	Author          string     `db:"author" json:"author"`
	PublishedDate   time.Time  `db:"published_date" json:"published_date"`
	Tags            StringList `db:"tags" json:"tags"`
	Status          string     `db:"status" json:"status"`
	ReadTimeMinutes *int64     `db:"read_time_minutes" json:"read_time_minutes,omitempty"`
	Featured        bool       `db:"featured" json:"featured"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
}

type MediaItem struct {
	ID          string     `db:"id" json:"id"`
	Title       string     `db:"title" json:"title"`
	Description string     `db:"description" json:"description"`
	Type        string     `db:"type" json:"type"`
	Thumbnail   string     `db:"thumbnail" json:"thumbnail"`
	Source      string     `db:"source" json:"source"`
	Categories  StringList `db:"categories" json:"categories"`
	Featured    bool       `db:"featured" json:"featured"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

type Admin struct {
	ID           int64     `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// PostFilter narrows ListPosts. The published-only constraint is not part of
// the filter: the store always applies it.
type PostFilter struct {
	Tag        string
	Featured   *bool
	Limit      int    // <= 0 means DefaultPostLimit
	OrderBy    string // one of the allowed sort columns, default published_date
	Descending bool
}

type MediaFilter struct {
	Category string
	Featured *bool
	Limit    int
}

const DefaultPostLimit = 100

// StringList stores a []string as a JSON array in a TEXT column so that
// SQLite's json_each can run containment filters over it.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, fmt.Errorf("could not encode string list: %w", err)
	}
	return string(b), nil
}

func (l *StringList) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("cannot scan %T into StringList", src)
	}
	return json.Unmarshal(data, (*[]string)(l))
}

// Contains is a set-membership test; tag collections have set semantics.
func (l StringList) Contains(s string) bool {
	return slices.Contains(l, s)
}
