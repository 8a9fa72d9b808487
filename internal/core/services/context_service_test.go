package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/canvasrag/internal/core/domain"
)

func TestContextService_Query(t *testing.T) {
	index := &stubIndex{results: []domain.RetrievalResult{slideResult("Slide: Roadmap", 0.7)}}
	s := NewContextService(NewSemanticRetriever(newHashEmbedder(), index))

	report, err := s.Query(context.Background(), "alice", "roadmap")
	require.NoError(t, err)

	assert.True(t, report.Success)
	assert.Equal(t, "roadmap", report.Query)
	assert.Len(t, report.Documents, 1)
	assert.Equal(t, "--- Document 1 (slide) ---\nSlide: Roadmap\n", report.Context)
	assert.Equal(t, domain.DefaultRetrievalK, index.lastK)
	assert.Empty(t, index.lastSub)
}

func TestContextService_Query_RetrievalFailure(t *testing.T) {
	s := NewContextService(NewSemanticRetriever(newHashEmbedder(), &stubIndex{err: errors.New("locked")}))

	report, err := s.Query(context.Background(), "alice", "roadmap")
	require.NoError(t, err)

	assert.False(t, report.Success)
	assert.NotNil(t, report.Documents)
	assert.Empty(t, report.Documents)
}

func TestContextService_Query_Validation(t *testing.T) {
	s := NewContextService(NewSemanticRetriever(newHashEmbedder(), &stubIndex{}))

	_, err := s.Query(context.Background(), "", "roadmap")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = s.Query(context.Background(), "alice", " ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
