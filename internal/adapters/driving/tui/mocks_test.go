package tui

import (
	"context"
	"iter"

	"github.com/custodia-labs/canvasrag/internal/core/domain"
)

// MockChatService implements driving.ChatService for testing.
type MockChatService struct {
	Events []domain.StreamEvent
}

func (m *MockChatService) Chat(_ context.Context, _ domain.ChatRequest) iter.Seq[domain.StreamEvent] {
	return func(yield func(domain.StreamEvent) bool) {
		for _, ev := range m.Events {
			if !yield(ev) {
				return
			}
		}
	}
}

func (m *MockChatService) Answer(_ context.Context, _ domain.ChatRequest) (*domain.ChatAnswer, error) {
	return &domain.ChatAnswer{Success: true}, nil
}

// MockContextService implements driving.ContextService for testing.
type MockContextService struct {
	Report *domain.ContextReport
	Err    error
}

func (m *MockContextService) Query(_ context.Context, _ domain.Owner, _ string) (*domain.ContextReport, error) {
	return m.Report, m.Err
}
