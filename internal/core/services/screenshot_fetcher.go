package services

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/canvasrag/internal/core/domain"
	"github.com/custodia-labs/canvasrag/internal/core/ports/driven"
	"github.com/custodia-labs/canvasrag/internal/logger"
)

// defaultFetchTimeout bounds each asset fetch when none is configured.
const defaultFetchTimeout = 10 * time.Second

// ScreenshotFetcher loads the rendered assets behind ranked documents so
// they can be attached to a multimodal prompt.
type ScreenshotFetcher struct {
	fetcher driven.AssetFetcher
	sink    driven.EventSink
	timeout time.Duration
}

// NewScreenshotFetcher creates a screenshot fetcher.
func NewScreenshotFetcher(fetcher driven.AssetFetcher) *ScreenshotFetcher {
	return &ScreenshotFetcher{fetcher: fetcher, timeout: defaultFetchTimeout}
}

// SetEventSink sets the sink for fetch events.
func (f *ScreenshotFetcher) SetEventSink(sink driven.EventSink) {
	f.sink = sink
}

// SetTimeout sets the per-fetch timeout.
func (f *ScreenshotFetcher) SetTimeout(d time.Duration) {
	if d > 0 {
		f.timeout = d
	}
}

// ClampCap normalises a screenshot cap into [1, domain.MaxScreenshotCap].
// Zero or negative means domain.DefaultScreenshotCap.
func ClampCap(limit int) int {
	switch {
	case limit <= 0:
		return domain.DefaultScreenshotCap
	case limit > domain.MaxScreenshotCap:
		return domain.MaxScreenshotCap
	default:
		return limit
	}
}

// Fetch returns base64 payloads for the asset URLs of the top documents.
// Only the first cap documents are considered and at most cap payloads
// are returned. Documents without a URL and failed fetches are skipped.
func (f *ScreenshotFetcher) Fetch(ctx context.Context, documents []domain.RetrievalResult, limit int) []domain.ImagePayload {
	limit = ClampCap(limit)
	if f.fetcher == nil || len(documents) == 0 {
		return nil
	}
	if len(documents) > limit {
		documents = documents[:limit]
	}

	var payloads []domain.ImagePayload
	for i := range documents {
		if ctx.Err() != nil {
			break
		}
		url := strings.TrimSpace(documents[i].Metadata.AssetURL)
		if url == "" {
			continue
		}

		payload, err := f.fetchOne(ctx, url)
		if err != nil {
			logger.Warn("Skipping screenshot %s: %v", documents[i].Metadata.Name, err)
			emit(f.sink, domain.ComponentScreenshots, domain.EventSkipped, map[string]any{
				"document": documents[i].Metadata.EntityID,
				"error":    err.Error(),
			})
			continue
		}
		payloads = append(payloads, payload)
		if len(payloads) == limit {
			break
		}
	}

	emit(f.sink, domain.ComponentScreenshots, domain.EventFetched, map[string]any{
		"considered": len(documents),
		"fetched":    len(payloads),
		"cap":        limit,
	})
	return payloads
}

func (f *ScreenshotFetcher) fetchOne(ctx context.Context, url string) (domain.ImagePayload, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	asset, err := f.fetcher.Fetch(ctx, url)
	if err != nil {
		return domain.ImagePayload{}, err
	}
	if asset == nil || len(asset.Data) == 0 {
		return domain.ImagePayload{}, domain.ErrAssetFetch
	}

	mime := asset.ContentType
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = mime[:i]
	}
	mime = strings.TrimSpace(mime)
	if !strings.HasPrefix(mime, "image/") {
		mime = http.DetectContentType(asset.Data)
	}

	return domain.ImagePayload{
		MIMEType: mime,
		Data:     base64.StdEncoding.EncodeToString(asset.Data),
	}, nil
}
