package driving

import (
	"context"

	"github.com/custodia-labs/canvasrag/internal/core/domain"
)

// IndexService embeds an owner's visual assets into the embedding index.
type IndexService interface {
	// IndexOwner re-indexes every asset of owner. Safe to repeat.
	// Per-asset failures are reported through SkippedCount rather than
	// failing the whole run.
	IndexOwner(ctx context.Context, owner domain.Owner) (*domain.IndexReport, error)

	// IndexAsset re-indexes one asset, typically after it was saved.
	IndexAsset(ctx context.Context, owner domain.Owner, assetID string) error
}
