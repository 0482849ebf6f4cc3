package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"path/filepath"
	"strings"
	"time"

	"kamaris/internal/storage"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrThumbnailRequired = errors.New("thumbnail required for videos")
	ErrTitleRequired     = errors.New("title must not be empty")
	ErrNoCategories      = errors.New("at least one category must be selected")
	ErrUnknownCategory   = errors.New("unknown media category")
	ErrInvalidMediaType  = errors.New("media type must be image or video")
	ErrFileRequired      = errors.New("a file is required for this media type")
)

// Recorder is the metadata half of the persistence gateway.
type Recorder interface {
	CreateMediaItem(ctx context.Context, item *storage.MediaItem) (*storage.MediaItem, error)
}

// VariantEnqueuer receives background thumbnail-variant work after a
// successful image ingest. May be nil (variants disabled).
type VariantEnqueuer interface {
	Enqueue(ctx context.Context, job VariantJob) error
}

// Ingestor persists media assets plus their metadata. In contrast to the
// content read path every method here is fail-loud: callers must check the
// returned error before trusting any result.
type Ingestor struct {
	objects    storage.ObjectStore
	records    Recorder
	variants   VariantEnqueuer
	pathPrefix string
	logger     *slog.Logger
	tracer     trace.Tracer
}

func NewIngestor(objects storage.ObjectStore, records Recorder, variants VariantEnqueuer, pathPrefix string, logger *slog.Logger) *Ingestor {
	return &Ingestor{
		objects:    objects,
		records:    records,
		variants:   variants,
		pathPrefix: strings.Trim(pathPrefix, "/"),
		logger:     logger,
		tracer:     otel.Tracer("kamaris/media"),
	}
}

// UploadInput is one admin form submission.
type UploadInput struct {
	Title       string
	Description string
	Type        string
	Categories  []string
	Featured    bool
	Source      string // optional external URL for videos

	File     io.Reader
	Filename string

	ThumbFile     io.Reader
	ThumbFilename string
}

// UploadFile stores one blob under a collision-resistant key and returns
// its public URL. The key is the upload timestamp plus a random suffix, so
// two submissions of the same filename never clash.
func (ing *Ingestor) UploadFile(ctx context.Context, r io.Reader, filename, subPath string) (string, error) {
	_, url, err := ing.upload(ctx, r, filename, subPath)
	return url, err
}

func (ing *Ingestor) upload(ctx context.Context, r io.Reader, filename, subPath string) (key, publicURL string, err error) {
	name := fmt.Sprintf("%d-%s%s",
		time.Now().UnixMilli(),
		strings.ReplaceAll(uuid.NewString(), "-", "")[:13],
		strings.ToLower(filepath.Ext(filename)),
	)
	key = path.Join(ing.pathPrefix, subPath, name)

	ctx, span := ing.tracer.Start(ctx, "media.Upload",
		trace.WithAttributes(attribute.String("media.key", key)))
	defer span.End()

	if err := ing.objects.Save(ctx, key, r); err != nil {
		span.RecordError(err)
		return "", "", fmt.Errorf("could not upload %q: %w", filename, err)
	}

	return key, ing.objects.PublicURL(key), nil
}

// CreateItem inserts the metadata record and returns the stored row.
func (ing *Ingestor) CreateItem(ctx context.Context, item *storage.MediaItem) (*storage.MediaItem, error) {
	ctx, span := ing.tracer.Start(ctx, "media.CreateItem",
		trace.WithAttributes(attribute.String("media.type", item.Type)))
	defer span.End()

	created, err := ing.records.CreateMediaItem(ctx, item)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return created, nil
}

// UploadAndCreate runs the whole submission: optional main upload, optional
// thumbnail upload, metadata insert. Steps run sequentially and the first
// error short-circuits; an already-uploaded object is not rolled back, only
// logged as orphaned.
func (ing *Ingestor) UploadAndCreate(ctx context.Context, in UploadInput) (*storage.MediaItem, error) {
	ctx, span := ing.tracer.Start(ctx, "media.UploadAndCreate",
		trace.WithAttributes(attribute.String("media.type", in.Type)))
	defer span.End()

	if err := validateInput(in); err != nil {
		span.RecordError(err)
		return nil, err
	}

	// Externally hosted videos keep their URL as-is; nothing to upload.
	externalVideo := in.Type == storage.MediaTypeVideo && isAbsoluteURL(in.Source)

	var mainKey, sourceURL string
	if externalVideo {
		sourceURL = in.Source
	} else {
		subPath := "images"
		if in.Type == storage.MediaTypeVideo {
			subPath = "videos"
		}
		var err error
		mainKey, sourceURL, err = ing.upload(ctx, in.File, in.Filename, subPath)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
	}

	var thumbnailURL string
	switch {
	case in.ThumbFile != nil:
		var err error
		_, thumbnailURL, err = ing.upload(ctx, in.ThumbFile, in.ThumbFilename, "thumbnails")
		if err != nil {
			span.RecordError(err)
			ing.logOrphan(mainKey)
			return nil, err
		}
	case in.Type == storage.MediaTypeImage:
		// an image is its own thumbnail
		thumbnailURL = sourceURL
	default:
		span.RecordError(ErrThumbnailRequired)
		ing.logOrphan(mainKey)
		return nil, ErrThumbnailRequired
	}

	created, err := ing.CreateItem(ctx, &storage.MediaItem{
		Title:       in.Title,
		Description: in.Description,
		Type:        in.Type,
		Thumbnail:   thumbnailURL,
		Source:      sourceURL,
		Categories:  storage.StringList(in.Categories),
		Featured:    in.Featured,
	})
	if err != nil {
		span.RecordError(err)
		ing.logOrphan(mainKey)
		return nil, fmt.Errorf("could not record media item: %w", err)
	}

	if in.Type == storage.MediaTypeImage && ing.variants != nil && mainKey != "" {
		ing.enqueueVariants(ctx, mainKey, span)
	}

	ing.logger.Info("media item ingested", "id", created.ID, "type", created.Type, "source", created.Source)
	return created, nil
}

func (ing *Ingestor) enqueueVariants(ctx context.Context, key string, parent trace.Span) {
	for _, width := range VariantWidths {
		job := VariantJob{
			SourceKey:  key,
			Width:      width,
			ParentSpan: parent.SpanContext(),
		}
		if err := ing.variants.Enqueue(ctx, job); err != nil {
			// best-effort; the original stays servable
			ing.logger.Warn("could not enqueue thumbnail variant", "key", key, "width", width, "err", err)
		}
	}
}

func (ing *Ingestor) logOrphan(key string) {
	if key == "" {
		return
	}
	// no compensating delete: acceptable for non-critical gallery content
	ing.logger.Warn("submission failed after upload, object orphaned", "key", key)
}

func validateInput(in UploadInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return ErrTitleRequired
	}
	if in.Type != storage.MediaTypeImage && in.Type != storage.MediaTypeVideo {
		return ErrInvalidMediaType
	}
	if len(in.Categories) == 0 {
		return ErrNoCategories
	}
	for _, c := range in.Categories {
		if !storage.ValidCategory(c) {
			return fmt.Errorf("%w: %q", ErrUnknownCategory, c)
		}
	}
	if in.Type == storage.MediaTypeImage && in.File == nil {
		return ErrFileRequired
	}
	if in.Type == storage.MediaTypeVideo && in.File == nil && !isAbsoluteURL(in.Source) {
		return ErrFileRequired
	}
	return nil
}

func isAbsoluteURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
