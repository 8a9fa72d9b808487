package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/canvasrag/internal/core/domain"
)

func TestServer_handleAsk(t *testing.T) {
	ctx := context.Background()

	t.Run("returns answer", func(t *testing.T) {
		chat := &mockChatService{answer: &domain.ChatAnswer{Success: true, Answer: "Two todos are due.", ContextUsed: true}}
		server, err := NewServer(&Ports{Chat: chat})
		require.NoError(t, err)

		_, output, err := server.handleAsk(ctx, nil, AskInput{Owner: "alice", Query: "what is due?", SubCollection: "p1"})

		require.NoError(t, err)
		assert.Equal(t, "Two todos are due.", output.Answer)
		assert.True(t, output.ContextUsed)
		assert.Equal(t, domain.Owner("alice"), chat.lastReq.Owner)
		assert.Equal(t, "what is due?", chat.lastReq.Query)
		assert.Equal(t, "p1", chat.lastReq.SubCollection)
	})

	t.Run("returns error on chat failure", func(t *testing.T) {
		server, err := NewServer(&Ports{Chat: &mockChatService{err: domain.ErrLLMUnavailable}})
		require.NoError(t, err)

		_, _, err = server.handleAsk(ctx, nil, AskInput{Owner: "alice", Query: "hi"})
		assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
	})
}

func TestServer_handleQueryContext(t *testing.T) {
	ctx := context.Background()

	t.Run("maps retrieved documents", func(t *testing.T) {
		contextSvc := &mockContextService{report: &domain.ContextReport{
			Query:   "roadmap",
			Context: "Slide: Roadmap",
			Success: true,
			Documents: []domain.RetrievalResult{{
				Text:       "Slide: Roadmap",
				Similarity: 0.87,
				Metadata: domain.DocumentMetadata{
					Type:             domain.DocumentTypeSlide,
					EntityID:         "s1",
					Name:             "Roadmap",
					ParentCollection: "p1",
				},
			}},
		}}
		server, err := NewServer(&Ports{Chat: &mockChatService{}, Context: contextSvc})
		require.NoError(t, err)

		_, output, err := server.handleQueryContext(ctx, nil, QueryContextInput{Owner: "alice", Query: "roadmap"})

		require.NoError(t, err)
		require.Equal(t, 1, output.Count)
		assert.Equal(t, "Slide: Roadmap", output.Context)
		assert.Equal(t, domain.DocumentID(string(domain.DocumentTypeSlide), "s1"), output.Documents[0].DocumentID)
		assert.Equal(t, "Roadmap", output.Documents[0].Name)
		assert.Equal(t, "p1", output.Documents[0].ProjectID)
		assert.Equal(t, 0.87, output.Documents[0].Score)
		assert.Equal(t, domain.Owner("alice"), contextSvc.lastOwner)
	})

	t.Run("not configured", func(t *testing.T) {
		server, err := NewServer(&Ports{Chat: &mockChatService{}})
		require.NoError(t, err)

		_, _, err = server.handleQueryContext(ctx, nil, QueryContextInput{Owner: "alice", Query: "x"})
		assert.ErrorIs(t, err, ErrServiceNotConfigured)
	})

	t.Run("returns error on query failure", func(t *testing.T) {
		server, err := NewServer(&Ports{
			Chat:    &mockChatService{},
			Context: &mockContextService{err: errors.New("index down")},
		})
		require.NoError(t, err)

		_, _, err = server.handleQueryContext(ctx, nil, QueryContextInput{Owner: "alice", Query: "x"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "index down")
	})
}

func TestServer_handleIndexOwner(t *testing.T) {
	ctx := context.Background()

	t.Run("returns report", func(t *testing.T) {
		report := &domain.IndexReport{Success: true, IndexedCount: 3, Breakdown: domain.IndexBreakdown{Assets: 3}}
		server, err := NewServer(&Ports{Chat: &mockChatService{}, Index: &mockIndexService{report: report}})
		require.NoError(t, err)

		_, output, err := server.handleIndexOwner(ctx, nil, IndexOwnerInput{Owner: "alice"})

		require.NoError(t, err)
		assert.Equal(t, *report, output)
	})

	t.Run("not configured", func(t *testing.T) {
		server, err := NewServer(&Ports{Chat: &mockChatService{}})
		require.NoError(t, err)

		_, _, err = server.handleIndexOwner(ctx, nil, IndexOwnerInput{Owner: "alice"})
		assert.ErrorIs(t, err, ErrServiceNotConfigured)
	})

	t.Run("wraps index failure", func(t *testing.T) {
		server, err := NewServer(&Ports{
			Chat:  &mockChatService{},
			Index: &mockIndexService{err: domain.ErrEmbeddingUnavailable},
		})
		require.NoError(t, err)

		_, _, err = server.handleIndexOwner(ctx, nil, IndexOwnerInput{Owner: "alice"})
		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
		assert.Contains(t, err.Error(), "indexing alice")
	})
}
