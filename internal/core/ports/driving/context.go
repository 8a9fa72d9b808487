package driving

import (
	"context"

	"github.com/custodia-labs/canvasrag/internal/core/domain"
)

// ContextService exposes retrieval output for diagnostics.
type ContextService interface {
	// Query returns the ranked documents and rendered semantic context
	// for rawQuery without calling the generation backend.
	Query(ctx context.Context, owner domain.Owner, rawQuery string) (*domain.ContextReport, error)
}
