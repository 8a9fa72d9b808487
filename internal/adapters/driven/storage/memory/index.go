package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/canvasrag/internal/core/domain"
	"github.com/custodia-labs/canvasrag/internal/core/ports/driven"
)

// Ensure EmbeddingIndex implements the interface.
var _ driven.EmbeddingIndex = (*EmbeddingIndex)(nil)

// EmbeddingIndex is an in-memory implementation of driven.EmbeddingIndex
// using brute-force cosine ranking.
type EmbeddingIndex struct {
	mu      sync.RWMutex
	records map[domain.Owner]map[string]domain.EmbeddingRecord
}

// NewEmbeddingIndex creates an empty index.
func NewEmbeddingIndex() *EmbeddingIndex {
	return &EmbeddingIndex{records: make(map[domain.Owner]map[string]domain.EmbeddingRecord)}
}

// Upsert stores record, replacing any record with the same document id.
func (x *EmbeddingIndex) Upsert(_ context.Context, record domain.EmbeddingRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}
	record.Vector = append([]float32(nil), record.Vector...)

	x.mu.Lock()
	defer x.mu.Unlock()
	byID, ok := x.records[record.Owner]
	if !ok {
		byID = make(map[string]domain.EmbeddingRecord)
		x.records[record.Owner] = byID
	}
	byID[record.DocumentID] = record
	return nil
}

// Query ranks the records of owner against vector.
func (x *EmbeddingIndex) Query(
	_ context.Context, owner domain.Owner, vector []float32, k int, subCollection string,
) ([]domain.RetrievalResult, error) {
	x.mu.RLock()
	records := make([]domain.EmbeddingRecord, 0, len(x.records[owner]))
	for _, r := range x.records[owner] {
		records = append(records, r)
	}
	x.mu.RUnlock()

	return domain.RankRecords(records, owner, vector, k, subCollection), nil
}

// Count returns the number of records of owner.
func (x *EmbeddingIndex) Count(_ context.Context, owner domain.Owner) (int, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.records[owner]), nil
}

// Close is a no-op.
func (x *EmbeddingIndex) Close() error {
	return nil
}
