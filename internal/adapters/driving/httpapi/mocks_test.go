package httpapi

import (
	"context"
	"iter"

	"github.com/custodia-labs/canvasrag/internal/core/domain"
)

// streamOf yields the given events in order.
func streamOf(events ...domain.StreamEvent) iter.Seq[domain.StreamEvent] {
	return func(yield func(domain.StreamEvent) bool) {
		for _, ev := range events {
			if !yield(ev) {
				return
			}
		}
	}
}

type mockChatService struct {
	events  []domain.StreamEvent
	answer  *domain.ChatAnswer
	err     error
	lastReq domain.ChatRequest
}

func (m *mockChatService) Chat(_ context.Context, req domain.ChatRequest) iter.Seq[domain.StreamEvent] {
	m.lastReq = req
	return streamOf(m.events...)
}

func (m *mockChatService) Answer(_ context.Context, req domain.ChatRequest) (*domain.ChatAnswer, error) {
	m.lastReq = req
	return m.answer, m.err
}

type mockContextService struct {
	report *domain.ContextReport
	err    error
}

func (m *mockContextService) Query(_ context.Context, _ domain.Owner, _ string) (*domain.ContextReport, error) {
	return m.report, m.err
}

type mockIndexService struct {
	report    *domain.IndexReport
	err       error
	lastOwner domain.Owner
}

func (m *mockIndexService) IndexOwner(_ context.Context, owner domain.Owner) (*domain.IndexReport, error) {
	m.lastOwner = owner
	return m.report, m.err
}

func (m *mockIndexService) IndexAsset(_ context.Context, _ domain.Owner, _ string) error {
	return m.err
}

type mockAnalysisService struct {
	events      []domain.StreamEvent
	description *domain.AssetDescription
	err         error
	lastReq     domain.AnalysisRequest
}

func (m *mockAnalysisService) StreamAnalysis(_ context.Context, req domain.AnalysisRequest) iter.Seq[domain.StreamEvent] {
	m.lastReq = req
	return streamOf(m.events...)
}

func (m *mockAnalysisService) Describe(_ context.Context, _ string) (*domain.AssetDescription, error) {
	return m.description, m.err
}
