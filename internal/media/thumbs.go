package media

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"sync"

	"kamaris/internal/storage"

	"github.com/gofrs/uuid/v5"
	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/image/draw"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// VariantWidths are the downscale targets generated for each ingested image.
var VariantWidths = []int{480, 960}

type VariantJob struct {
	SourceKey  string
	Width      int
	ParentSpan trace.SpanContext
}

// VariantProcessor downscales ingested images to webp variants in the
// background. Gallery pages load the small variant; the original stays in
// place for lightboxes.
type VariantProcessor struct {
	jobs      chan VariantJob
	wg        sync.WaitGroup
	logger    *slog.Logger
	inFlight  sync.Map
	store     storage.ObjectStore
	namespace uuid.UUID
	tracer    trace.Tracer
}

var _ VariantEnqueuer = (*VariantProcessor)(nil)

func NewVariantProcessor(ctx context.Context, store storage.ObjectStore, namespace uuid.UUID, workercount int, logger *slog.Logger) *VariantProcessor {
	p := &VariantProcessor{
		jobs:      make(chan VariantJob, 25),
		logger:    logger,
		store:     store,
		namespace: namespace,
		tracer:    otel.Tracer("kamaris/media/variants"),
	}
	for i := range workercount {
		p.wg.Go(func() {
			p.worker(ctx, i)
		})
	}

	go func() {
		<-ctx.Done()
		p.logger.Info("variant processor received shutdown signal")
		close(p.jobs)
		p.wg.Wait()
		p.logger.Info("variant processor shutdown complete")
	}()

	return p
}

// VariantKey derives a stable name for a variant: a UUIDv5 of the source
// key in our namespace plus the width, so re-enqueues of the same source
// land on the same object.
func (p *VariantProcessor) VariantKey(sourceKey string, width int) string {
	id := uuid.NewV5(p.namespace, sourceKey)
	return fmt.Sprintf("variants/%s_%d.webp", id, width)
}

func (p *VariantProcessor) Enqueue(ctx context.Context, job VariantJob) error {
	key := p.VariantKey(job.SourceKey, job.Width)

	// no duplicated jobs
	if _, loaded := p.inFlight.LoadOrStore(key, struct{}{}); loaded {
		return nil
	}

	select {
	case <-ctx.Done():
		// should a caller's request timeout
		p.inFlight.Delete(key)
		return ctx.Err()
	case p.jobs <- job:
		return nil
	default:
		p.inFlight.Delete(key)
		return fmt.Errorf("variant processor queue full")
	}
}

func (p *VariantProcessor) worker(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			p.processJob(ctx, id, job)
			p.inFlight.Delete(p.VariantKey(job.SourceKey, job.Width))
		}
	}
}

func (p *VariantProcessor) processJob(ctx context.Context, id int, job VariantJob) {
	link := trace.Link{
		SpanContext: job.ParentSpan,
	}

	ctx, span := p.tracer.Start(ctx, "ProcessVariant",
		trace.WithAttributes(
			attribute.String("image.key", job.SourceKey),
			attribute.Int("image.width", job.Width),
		),
		trace.WithLinks(link),
	)
	defer span.End()

	destKey := p.VariantKey(job.SourceKey, job.Width)

	p.logger.Info("worker processing image variant", "worker_id", id, "source", job.SourceKey, "variant", job.Width)

	// any other worker has done this?
	if p.store.Exists(ctx, destKey) {
		return
	}

	if ctx.Err() != nil {
		return
	}

	reader, err := p.store.Open(ctx, job.SourceKey)
	if err != nil {
		p.logger.Error("failed to download source", "key", job.SourceKey, "err", err)
		return
	}
	defer reader.Close()

	_, cpuSpan := p.tracer.Start(ctx, "GenerateVariant.CPU")
	processedBuffer, err := p.generateVariant(ctx, reader, job.Width)
	cpuSpan.End()
	if err != nil {
		p.logger.Error("variant failed", "worker", id, "variant", job.Width, "err", err)
		return
	}

	if err := p.store.Save(ctx, destKey, processedBuffer); err != nil {
		p.logger.Error("failed to upload variant", "key", destKey, "err", err)
	}
}

func (p *VariantProcessor) generateVariant(ctx context.Context, r io.Reader, width int) (io.Reader, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode error: %w", err)
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	if img.Bounds().Dx() > width {
		img = resizeImage(img, width)
	}

	var buf bytes.Buffer
	options, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, 75)
	if err != nil {
		return nil, fmt.Errorf("encoding options: %w", err)
	}

	if err := webp.Encode(&buf, img, options); err != nil {
		return nil, fmt.Errorf("encode error: %w", err)
	}

	return bytes.NewReader(buf.Bytes()), nil
}

func resizeImage(source image.Image, maxWidth int) image.Image {
	b := source.Bounds()
	currentWidth := b.Dx()

	// ensure scales down only
	if currentWidth <= maxWidth {
		return source
	}

	newHeight := (b.Dy() * maxWidth) / currentWidth

	dest := image.NewRGBA(image.Rect(0, 0, maxWidth, newHeight))

	// bilinear has a good quality / speed tradeoff
	draw.BiLinear.Scale(dest, dest.Bounds(), source, source.Bounds(), draw.Over, nil)

	return dest
}
