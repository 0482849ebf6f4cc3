package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all the metric instruments for the content service
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter
	// content
	PostFetchesTotal  metric.Int64Counter
	PostLookupMisses  metric.Int64Counter
	RelatedQueryTotal metric.Int64Counter
	// media
	MediaIngestsTotal  metric.Int64Counter
	MediaIngestErrors  metric.Int64Counter
	UploadBytesTotal   metric.Int64Counter
	VariantJobsEnqueue metric.Int64Counter
	// limiter
	RateLimitHitsTotal metric.Int64Counter
	// middlewares
	AuthWorkDuration metric.Float64Histogram
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	httpRequestsTotal, err := meter.Int64Counter(
		"http_requests",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_requests: %w", err)
	}

	httpRequestDuration, err := meter.Float64Histogram(
		"http_request_duration",
		metric.WithDescription("HTTP request latency in ms"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_request_duration: %w", err)
	}

	httpActiveRequests, err := meter.Int64UpDownCounter(
		"http_active_requests",
		metric.WithDescription("Number of in-flight requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_active_requests: %w", err)
	}

	postFetchesTotal, err := meter.Int64Counter(
		"post_fetches",
		metric.WithDescription("Total number of post list fetches"),
		metric.WithUnit("{fetch}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create post_fetches: %w", err)
	}

	postLookupMisses, err := meter.Int64Counter(
		"post_lookup_misses",
		metric.WithDescription("Slug lookups that returned nothing"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create post_lookup_misses: %w", err)
	}

	relatedQueryTotal, err := meter.Int64Counter(
		"related_queries",
		metric.WithDescription("Total number of related-post rankings computed"),
		metric.WithUnit("{query}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create related_queries: %w", err)
	}

	mediaIngestsTotal, err := meter.Int64Counter(
		"media_ingests",
		metric.WithDescription("Media submissions accepted"),
		metric.WithUnit("{item}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create media_ingests: %w", err)
	}

	mediaIngestErrors, err := meter.Int64Counter(
		"media_ingest_errors",
		metric.WithDescription("Media submissions rejected or failed"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create media_ingest_errors: %w", err)
	}

	uploadBytesTotal, err := meter.Int64Counter(
		"upload_bytes",
		metric.WithDescription("Bytes accepted through the upload form"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload_bytes: %w", err)
	}

	variantJobsEnqueue, err := meter.Int64Counter(
		"variant_jobs_enqueued",
		metric.WithDescription("Thumbnail variant jobs queued"),
		metric.WithUnit("{job}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create variant_jobs_enqueued: %w", err)
	}

	rateLimitHitsTotal, err := meter.Int64Counter(
		"rate_limit_hits",
		metric.WithDescription("Number of rate limiter blocked requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate_limit_hits: %w", err)
	}

	authWorkDuration, err := meter.Float64Histogram(
		"auth_work_duration",
		metric.WithDescription("real time spent on DB/Bcrypt"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth_work_duration: %w", err)
	}

	return &Metrics{
		HTTPRequestsTotal:   httpRequestsTotal,
		HTTPRequestDuration: httpRequestDuration,
		HTTPActiveRequests:  httpActiveRequests,
		PostFetchesTotal:    postFetchesTotal,
		PostLookupMisses:    postLookupMisses,
		RelatedQueryTotal:   relatedQueryTotal,
		MediaIngestsTotal:   mediaIngestsTotal,
		MediaIngestErrors:   mediaIngestErrors,
		UploadBytesTotal:    uploadBytesTotal,
		VariantJobsEnqueue:  variantJobsEnqueue,
		RateLimitHitsTotal:  rateLimitHitsTotal,
		AuthWorkDuration:    authWorkDuration,
	}, nil
}

// RecordIngest tallies one accepted media submission and its payload size.
func (m *Metrics) RecordIngest(ctx context.Context, bytes int64) {
	m.MediaIngestsTotal.Add(ctx, 1)
	if bytes > 0 {
		m.UploadBytesTotal.Add(ctx, bytes)
	}
}
