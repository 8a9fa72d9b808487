package driven

import (
	"context"

	"github.com/custodia-labs/canvasrag/internal/core/domain"
)

// EmbeddingIndex stores document vectors and ranks them by similarity.
// Every operation is scoped to one owner; results from another owner
// must never be returned regardless of similarity.
type EmbeddingIndex interface {
	// Upsert stores the record, replacing any record with the same
	// document id. Re-indexing never duplicates.
	Upsert(ctx context.Context, record domain.EmbeddingRecord) error

	// Query returns at most k results for owner ranked by similarity
	// descending. Ties are ordered by document id so repeated queries are
	// reproducible. A zero vector yields an empty result. When
	// subCollection is non-empty only documents in that parent collection
	// are considered.
	Query(ctx context.Context, owner domain.Owner, vector []float32, k int, subCollection string) ([]domain.RetrievalResult, error)

	// Count returns the number of records stored for owner.
	Count(ctx context.Context, owner domain.Owner) (int, error)

	// Close releases resources.
	Close() error
}
