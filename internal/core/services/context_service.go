package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/canvasrag/internal/core/domain"
	"github.com/custodia-labs/canvasrag/internal/core/ports/driving"
)

// Ensure ContextService implements the interface.
var _ driving.ContextService = (*ContextService)(nil)

// ContextService exposes semantic retrieval for diagnostics. The raw
// query is embedded as-is, without optimization.
type ContextService struct {
	retriever *SemanticRetriever
	k         int
}

// NewContextService creates a context service.
func NewContextService(retriever *SemanticRetriever) *ContextService {
	return &ContextService{retriever: retriever, k: domain.DefaultRetrievalK}
}

// SetK sets how many documents a query returns.
func (s *ContextService) SetK(k int) {
	if k > 0 {
		s.k = k
	}
}

// Query returns the documents ranked for rawQuery and their rendered text.
func (s *ContextService) Query(ctx context.Context, owner domain.Owner, rawQuery string) (*domain.ContextReport, error) {
	if !owner.IsValid() {
		return nil, fmt.Errorf("%w: owner is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(rawQuery) == "" {
		return nil, fmt.Errorf("%w: query is required", domain.ErrInvalidInput)
	}

	retrieval := s.retriever.Retrieve(ctx, owner, rawQuery, s.k, "")
	docs := retrieval.Results
	if docs == nil {
		docs = []domain.RetrievalResult{}
	}
	return &domain.ContextReport{
		Query:     rawQuery,
		Documents: docs,
		Context:   RenderDocuments(docs),
		Success:   !retrieval.Failed,
	}, nil
}
