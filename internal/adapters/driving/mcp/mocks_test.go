package mcp

import (
	"context"
	"iter"

	"github.com/custodia-labs/canvasrag/internal/core/domain"
)

// mockChatService is a mock implementation of driving.ChatService.
type mockChatService struct {
	answer  *domain.ChatAnswer
	err     error
	lastReq domain.ChatRequest
}

func (m *mockChatService) Chat(_ context.Context, req domain.ChatRequest) iter.Seq[domain.StreamEvent] {
	m.lastReq = req
	return func(yield func(domain.StreamEvent) bool) {
		if m.err != nil {
			yield(domain.ErrorEvent(m.err.Error()))
			return
		}
		if m.answer != nil && !yield(domain.ChunkEvent(m.answer.Answer)) {
			return
		}
		yield(domain.DoneEvent())
	}
}

func (m *mockChatService) Answer(_ context.Context, req domain.ChatRequest) (*domain.ChatAnswer, error) {
	m.lastReq = req
	return m.answer, m.err
}

// mockContextService is a mock implementation of driving.ContextService.
type mockContextService struct {
	report    *domain.ContextReport
	err       error
	lastOwner domain.Owner
	lastQuery string
}

func (m *mockContextService) Query(_ context.Context, owner domain.Owner, rawQuery string) (*domain.ContextReport, error) {
	m.lastOwner = owner
	m.lastQuery = rawQuery
	return m.report, m.err
}

// mockIndexService is a mock implementation of driving.IndexService.
type mockIndexService struct {
	report *domain.IndexReport
	err    error
}

func (m *mockIndexService) IndexOwner(_ context.Context, _ domain.Owner) (*domain.IndexReport, error) {
	return m.report, m.err
}

func (m *mockIndexService) IndexAsset(_ context.Context, _ domain.Owner, _ string) error {
	return m.err
}
