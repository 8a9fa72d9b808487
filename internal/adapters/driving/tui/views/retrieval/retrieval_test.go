package retrieval

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/canvasrag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/canvasrag/internal/core/domain"
)

// MockContextService implements driving.ContextService for testing.
type MockContextService struct {
	Report    *domain.ContextReport
	Err       error
	LastOwner domain.Owner
	LastQuery string
}

func (m *MockContextService) Query(_ context.Context, owner domain.Owner, q string) (*domain.ContextReport, error) {
	m.LastOwner = owner
	m.LastQuery = q
	return m.Report, m.Err
}

func sampleReport() *domain.ContextReport {
	return &domain.ContextReport{
		Query:   "roadmap",
		Success: true,
		Documents: []domain.RetrievalResult{
			{
				Text:       "Slide: Roadmap\nDescription: Q1 milestones",
				Metadata:   domain.DocumentMetadata{Type: domain.DocumentTypeSlide, Name: "Roadmap"},
				Similarity: 0.91,
			},
		},
	}
}

func submit(t *testing.T, v *View, query string) {
	t.Helper()
	v.input.SetValue(query)
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	v.Update(cmd())
}

func TestView_LoadsReport(t *testing.T) {
	svc := &MockContextService{Report: sampleReport()}
	v := NewView(nil, nil, svc, "user-1")
	v.SetDimensions(100, 30)

	submit(t, v, "roadmap")

	assert.Equal(t, domain.Owner("user-1"), svc.LastOwner)
	assert.Equal(t, "roadmap", svc.LastQuery)
	assert.NoError(t, v.Err())
	assert.False(t, v.InputFocused())
	require.NotNil(t, v.Report())
	out := v.View()
	assert.Contains(t, out, "Slides (1)")
	assert.Contains(t, out, "Q1 milestones")
}

func TestView_ServiceError(t *testing.T) {
	svc := &MockContextService{Err: errors.New("index offline")}
	v := NewView(nil, nil, svc, "user-1")
	v.SetDimensions(100, 30)

	submit(t, v, "roadmap")

	require.Error(t, v.Err())
	assert.True(t, v.InputFocused())
	assert.Contains(t, v.View(), "index offline")
}

func TestView_FailedRetrievalIsFlagged(t *testing.T) {
	svc := &MockContextService{Report: &domain.ContextReport{Query: "x", Success: false}}
	v := NewView(nil, nil, svc, "user-1")
	v.SetDimensions(100, 30)

	submit(t, v, "x")

	assert.Contains(t, v.View(), "Retrieval failed")
}

func TestView_NoContextService(t *testing.T) {
	v := NewView(nil, nil, nil, "user-1")
	v.SetDimensions(100, 30)

	submit(t, v, "x")

	assert.ErrorIs(t, v.Err(), ErrNoContextService)
}

func TestView_BlankQueryIgnored(t *testing.T) {
	v := NewView(nil, nil, &MockContextService{}, "user-1")

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.True(t, v.InputFocused())
}

func TestView_NewQueryRefocusesInput(t *testing.T) {
	v := NewView(nil, nil, &MockContextService{Report: sampleReport()}, "user-1")
	v.SetDimensions(100, 30)
	submit(t, v, "roadmap")

	v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'n'}})

	assert.True(t, v.InputFocused())
	assert.Equal(t, "", v.input.Value())
}

func TestView_EscGoesToMenu(t *testing.T) {
	v := NewView(nil, nil, nil, "user-1")

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEsc})

	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewMenu}, cmd())
}

func TestView_Reset(t *testing.T) {
	v := NewView(nil, nil, &MockContextService{Report: sampleReport()}, "user-1")
	v.SetDimensions(100, 30)
	submit(t, v, "roadmap")

	v.Reset()

	assert.Nil(t, v.Report())
	assert.True(t, v.InputFocused())
	assert.Contains(t, v.View(), "No slides")
}
