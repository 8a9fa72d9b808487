package driven

import (
	"context"

	"github.com/custodia-labs/canvasrag/internal/core/domain"
)

// EntityStore reads the structured entities and visual assets of an owner.
// The rows are owned by an external system; the pipeline only reads them.
type EntityStore interface {
	// LoadWorkspace returns every entity and asset of owner.
	// An owner with no data yields an empty workspace, not an error.
	LoadWorkspace(ctx context.Context, owner domain.Owner) (*domain.Workspace, error)

	// ListEntities returns projects then tasks of owner in a stable order.
	ListEntities(ctx context.Context, owner domain.Owner) ([]domain.StructuredEntity, error)

	// ListAssets returns the visual assets of owner in a stable order.
	ListAssets(ctx context.Context, owner domain.Owner) ([]domain.VisualAsset, error)

	// GetAsset returns one asset. Returns domain.ErrNotFound when the asset
	// does not exist or belongs to another owner.
	GetAsset(ctx context.Context, owner domain.Owner, id string) (*domain.VisualAsset, error)

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// WritableEntityStore is implemented by local stores that can be seeded
// with workspace data.
type WritableEntityStore interface {
	EntityStore

	// SaveEntity creates or updates a structured entity.
	SaveEntity(ctx context.Context, entity domain.StructuredEntity) error

	// SaveAsset creates or updates a visual asset.
	SaveAsset(ctx context.Context, asset domain.VisualAsset) error
}
