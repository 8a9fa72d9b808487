package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/canvasrag/internal/core/domain"
	"github.com/custodia-labs/canvasrag/internal/core/ports/driven"
	"github.com/custodia-labs/canvasrag/internal/logger"
)

// Retrieval is the outcome of one semantic retrieval.
type Retrieval struct {
	// Results are ranked by similarity descending.
	Results []domain.RetrievalResult

	// Failed is set when embedding or the index query failed.
	// Results is empty in that case.
	Failed bool
}

// SemanticRetriever embeds a query and ranks index entries against it.
// Failures never propagate; they produce an empty, failed Retrieval.
type SemanticRetriever struct {
	embedder driven.EmbeddingService
	index    driven.EmbeddingIndex
	sink     driven.EventSink
}

// NewSemanticRetriever creates a retriever. embedder and index may be nil,
// in which case every retrieval fails softly.
func NewSemanticRetriever(embedder driven.EmbeddingService, index driven.EmbeddingIndex) *SemanticRetriever {
	return &SemanticRetriever{embedder: embedder, index: index}
}

// SetEventSink sets the sink for retrieval events.
func (r *SemanticRetriever) SetEventSink(sink driven.EventSink) {
	r.sink = sink
}

// Retrieve returns at most k documents of owner most similar to query.
// k <= 0 means domain.DefaultRetrievalK.
func (r *SemanticRetriever) Retrieve(
	ctx context.Context, owner domain.Owner, query string, k int, subCollection string,
) Retrieval {
	if k <= 0 {
		k = domain.DefaultRetrievalK
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return Retrieval{}
	}
	if r.embedder == nil || r.index == nil {
		r.fail(owner, "not_configured", domain.ErrEmbeddingUnavailable)
		return Retrieval{Failed: true}
	}

	logger.Debug("Embedding query: %q", query)
	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		r.fail(owner, "embed", err)
		return Retrieval{Failed: true}
	}
	if domain.IsZeroVector(vector) {
		r.fail(owner, "degenerate", domain.ErrDegenerateVector)
		return Retrieval{Failed: true}
	}

	results, err := r.index.Query(ctx, owner, vector, k, subCollection)
	if err != nil {
		r.fail(owner, "query", err)
		return Retrieval{Failed: true}
	}
	if len(results) > k {
		results = results[:k]
	}

	fields := map[string]any{
		"owner": owner.String(),
		"count": len(results),
		"k":     k,
	}
	if subCollection != "" {
		fields["sub_collection"] = subCollection
	}
	if len(results) > 0 {
		fields["top_similarity"] = results[0].Similarity
	}
	emit(r.sink, domain.ComponentRetriever, domain.EventResults, fields)

	return Retrieval{Results: results}
}

func (r *SemanticRetriever) fail(owner domain.Owner, stage string, err error) {
	logger.Warn("Semantic retrieval failed at %s: %v", stage, err)
	emit(r.sink, domain.ComponentRetriever, domain.EventEmbeddingFailed, map[string]any{
		"owner": owner.String(),
		"stage": stage,
		"error": err.Error(),
	})
}

// RenderDocuments renders ranked documents as numbered blocks.
func RenderDocuments(results []domain.RetrievalResult) string {
	parts := make([]string, 0, len(results))
	for i := range results {
		docType := string(results[i].Metadata.Type)
		if docType == "" {
			docType = "unknown"
		}
		parts = append(parts, fmt.Sprintf("--- Document %d (%s) ---\n%s\n",
			i+1, docType, strings.TrimRight(results[i].Text, "\n")))
	}
	return strings.Join(parts, "\n")
}
