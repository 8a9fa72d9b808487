package services

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/canvasrag/internal/core/domain"
	"github.com/custodia-labs/canvasrag/internal/core/ports/driven"
	"github.com/custodia-labs/canvasrag/internal/core/ports/driving"
	"github.com/custodia-labs/canvasrag/internal/logger"
)

// Ensure Indexer implements the interface.
var _ driving.IndexService = (*Indexer)(nil)

// indexBatchSize bounds how many documents are embedded per backend call.
const indexBatchSize = 32

// Indexer embeds an owner's visual assets into the embedding index.
// Structured entities are counted but never embedded.
type Indexer struct {
	store    driven.EntityStore
	embedder driven.EmbeddingService
	index    driven.EmbeddingIndex
	sink     driven.EventSink
	now      func() time.Time
}

// NewIndexer creates an indexer.
func NewIndexer(store driven.EntityStore, embedder driven.EmbeddingService, index driven.EmbeddingIndex) *Indexer {
	return &Indexer{store: store, embedder: embedder, index: index, now: time.Now}
}

// SetEventSink sets the sink for indexing events.
func (x *Indexer) SetEventSink(sink driven.EventSink) {
	x.sink = sink
}

// IndexOwner upserts one embedding record per asset of owner. Assets whose
// embedding fails or is degenerate are skipped and counted, so the report
// reflects partial success rather than failing the whole run.
func (x *Indexer) IndexOwner(ctx context.Context, owner domain.Owner) (*domain.IndexReport, error) {
	if err := x.ready(owner); err != nil {
		return nil, err
	}

	logger.Section("Indexing " + owner.String())
	ws, err := x.store.LoadWorkspace(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("load workspace: %w", err)
	}

	var docs []domain.Document
	for i := range ws.Assets {
		if ws.Assets[i].Owner == owner {
			docs = append(docs, domain.NewAssetDocument(ws.Assets[i]))
		}
	}

	report := &domain.IndexReport{
		Success: true,
		Breakdown: domain.IndexBreakdown{
			Projects: len(ws.Projects()),
			Assets:   len(docs),
			Tasks:    len(ws.Tasks()),
		},
	}
	if len(docs) == 0 && len(ws.Entities) == 0 {
		report.Message = "No data to index"
		x.completed(owner, report)
		return report, nil
	}

	for start := 0; start < len(docs); start += indexBatchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(start+indexBatchSize, len(docs))
		batch := docs[start:end]

		vectors := x.embedBatch(ctx, batch)
		for i := range batch {
			if err := x.upsertDocument(ctx, batch[i], vectors[i]); err != nil {
				logger.Warn("Skipping %s: %v", batch[i].ID, err)
				report.SkippedCount++
				continue
			}
			report.IndexedCount++
		}
	}

	report.Message = fmt.Sprintf("Indexed %d documents", report.IndexedCount)
	x.completed(owner, report)
	logger.Info("%s (%d skipped)", report.Message, report.SkippedCount)
	return report, nil
}

// IndexAsset embeds and upserts a single asset.
func (x *Indexer) IndexAsset(ctx context.Context, owner domain.Owner, assetID string) error {
	if err := x.ready(owner); err != nil {
		return err
	}
	asset, err := x.store.GetAsset(ctx, owner, assetID)
	if err != nil {
		return fmt.Errorf("get asset %s: %w", assetID, err)
	}
	doc := domain.NewAssetDocument(*asset)

	vector, err := x.embedder.Embed(ctx, doc.Text)
	if err != nil {
		return fmt.Errorf("embed %s: %w", doc.ID, err)
	}
	return x.upsertDocument(ctx, doc, vector)
}

func (x *Indexer) ready(owner domain.Owner) error {
	if !owner.IsValid() {
		return fmt.Errorf("%w: owner is required", domain.ErrInvalidInput)
	}
	if x.store == nil {
		return domain.ErrEntityStoreUnavailable
	}
	if x.embedder == nil {
		return domain.ErrEmbeddingUnavailable
	}
	if x.index == nil {
		return domain.ErrIndexUnavailable
	}
	return nil
}

// embedBatch embeds docs in one call, falling back to one call per document
// when the batch fails or returns the wrong number of vectors. A nil entry
// marks a document whose embedding failed.
func (x *Indexer) embedBatch(ctx context.Context, docs []domain.Document) [][]float32 {
	texts := make([]string, len(docs))
	for i := range docs {
		texts[i] = docs[i].Text
	}

	vectors, err := x.embedder.EmbedBatch(ctx, texts)
	if err == nil && len(vectors) == len(docs) {
		return vectors
	}
	if err != nil {
		logger.Debug("Batch embedding failed, retrying individually: %v", err)
	}

	vectors = make([][]float32, len(docs))
	for i := range texts {
		v, err := x.embedder.Embed(ctx, texts[i])
		if err != nil {
			logger.Debug("Embedding %s failed: %v", docs[i].ID, err)
			continue
		}
		vectors[i] = v
	}
	return vectors
}

// upsertDocument validates one vector and upserts its record.
func (x *Indexer) upsertDocument(ctx context.Context, doc domain.Document, vector []float32) error {
	if len(vector) == 0 {
		return domain.ErrEmbeddingUnavailable
	}
	if domain.IsZeroVector(vector) {
		return domain.ErrDegenerateVector
	}
	if dims := x.embedder.Dimensions(); dims > 0 && len(vector) != dims {
		return fmt.Errorf("%w: got %d, want %d", domain.ErrDimensionMismatch, len(vector), dims)
	}

	return x.index.Upsert(ctx, domain.EmbeddingRecord{
		DocumentID: doc.ID,
		Owner:      doc.Metadata.Owner,
		Text:       doc.Text,
		Vector:     vector,
		Metadata:   doc.Metadata,
		UpdatedAt:  x.now(),
	})
}

func (x *Indexer) completed(owner domain.Owner, report *domain.IndexReport) {
	emit(x.sink, domain.ComponentIndexer, domain.EventCompleted, map[string]any{
		"owner":    owner.String(),
		"indexed":  report.IndexedCount,
		"skipped":  report.SkippedCount,
		"projects": report.Breakdown.Projects,
		"assets":   report.Breakdown.Assets,
		"tasks":    report.Breakdown.Tasks,
	})
}
