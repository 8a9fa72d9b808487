package list

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/canvasrag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/canvasrag/internal/core/domain"
)

func slide(name string, score float64) domain.RetrievalResult {
	return domain.RetrievalResult{
		Text:       "Slide: " + name + "\nType: timeline",
		Metadata:   domain.DocumentMetadata{Type: domain.DocumentTypeSlide, Name: name, ParentCollection: "p1", HasDescription: true},
		Similarity: score,
	}
}

func sampleResults() []domain.RetrievalResult {
	return []domain.RetrievalResult{
		slide("Roadmap", 0.95),
		slide("Budget", 0.85),
		slide("Team", 0.75),
	}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNewResultList(t *testing.T) {
	list := NewResultList(styles.DefaultStyles())

	require.NotNil(t, list)
	assert.True(t, list.IsEmpty())
	assert.Equal(t, 0, list.Selected())
	assert.Equal(t, 80, list.Width())
	assert.Equal(t, 10, list.Height())
	assert.Nil(t, list.Init())
	assert.Nil(t, list.SelectedResult())
}

func TestNewResultList_NilStyles(t *testing.T) {
	list := NewResultList(nil)

	assert.NotNil(t, list.styles)
	assert.NotNil(t, list.keys)
}

func TestResultList_SetResultsResetsCursor(t *testing.T) {
	list := NewResultList(nil)
	list.SetResults(sampleResults())
	list.SetSelected(2)

	list.SetResults(sampleResults()[:2])

	assert.Equal(t, 2, list.Count())
	assert.Equal(t, 0, list.Selected())
	assert.Equal(t, sampleResults()[:2], list.Results())
	require.NotNil(t, list.SelectedResult())
	assert.Equal(t, "Roadmap", list.SelectedResult().Metadata.Name)
}

func TestResultList_SetSelected(t *testing.T) {
	tests := []struct {
		name  string
		index int
		want  int
	}{
		{"valid", 2, 2},
		{"past end", 99, 0},
		{"negative", -1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list := NewResultList(nil)
			list.SetResults(sampleResults())

			list.SetSelected(tt.index)

			assert.Equal(t, tt.want, list.Selected())
		})
	}
}

func TestResultList_Update_Navigation(t *testing.T) {
	tests := []struct {
		name  string
		start int
		keys  []tea.KeyMsg
		want  int
	}{
		{"arrow down", 0, []tea.KeyMsg{{Type: tea.KeyDown}}, 1},
		{"arrow up", 1, []tea.KeyMsg{{Type: tea.KeyUp}}, 0},
		{"j twice", 0, []tea.KeyMsg{runes("j"), runes("j")}, 2},
		{"k", 2, []tea.KeyMsg{runes("k")}, 1},
		{"stops at top", 0, []tea.KeyMsg{runes("k")}, 0},
		{"stops at bottom", 2, []tea.KeyMsg{runes("j")}, 2},
		{"last", 0, []tea.KeyMsg{runes("G")}, 2},
		{"first", 2, []tea.KeyMsg{{Type: tea.KeyHome}}, 0},
		{"other keys ignored", 1, []tea.KeyMsg{runes("x")}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list := NewResultList(nil)
			list.SetResults(sampleResults())
			list.SetSelected(tt.start)

			for _, k := range tt.keys {
				updated, cmd := list.Update(k)
				assert.Same(t, list, updated)
				assert.Nil(t, cmd)
			}

			assert.Equal(t, tt.want, list.Selected())
		})
	}
}

func TestResultList_Update_IgnoresNonKeyMessages(t *testing.T) {
	list := NewResultList(nil)
	list.SetResults(sampleResults())

	list.Update(tea.WindowSizeMsg{Width: 10, Height: 10})

	assert.Equal(t, 0, list.Selected())
}

func TestResultList_View_Empty(t *testing.T) {
	assert.Contains(t, NewResultList(nil).View(), "No slides")
}

func TestResultList_View_WithResults(t *testing.T) {
	list := NewResultList(nil)
	list.SetDimensions(80, 20)
	list.SetResults(sampleResults())

	view := list.View()

	assert.Contains(t, view, "Slides (3)")
	assert.Contains(t, view, "> Roadmap")
	assert.Contains(t, view, "0.95")
	assert.Contains(t, view, "project p1")
	assert.Contains(t, view, "Slide: Roadmap Type: timeline")
	assert.NotContains(t, view, "more")
	assert.NotContains(t, view, "no description")
}

func TestResultList_View_Tags(t *testing.T) {
	result := slide("Roadmap", 0.9)
	result.Metadata.AssetURL = "https://assets.example.com/roadmap.png"
	result.Metadata.HasDescription = false
	list := NewResultList(nil)
	list.SetResults([]domain.RetrievalResult{result})

	view := list.View()

	assert.Contains(t, view, "screenshot")
	assert.Contains(t, view, "no description")
}

func TestResultList_View_ScrollsWithCursor(t *testing.T) {
	list := NewResultList(nil)
	list.SetDimensions(80, 5)
	list.SetResults(sampleResults())

	assert.Contains(t, list.View(), "2 more")

	list.SetSelected(2)
	view := list.View()

	assert.Contains(t, view, "> Team")
	assert.NotContains(t, view, "Roadmap")
}

func TestResultList_View_Untitled(t *testing.T) {
	list := NewResultList(nil)
	list.SetResults([]domain.RetrievalResult{slide("", 0.5)})

	assert.Contains(t, list.View(), "(Untitled)")
}

func TestResultList_View_LongName(t *testing.T) {
	list := NewResultList(nil)
	list.SetDimensions(40, 10)
	list.SetResults([]domain.RetrievalResult{slide(strings.Repeat("roadmap ", 10), 0.5)})

	assert.Contains(t, list.View(), "roadmap r...")
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"truncated text", 8, "trunc..."},
		{"héllo wörld", 6, "hél..."},
		{"abc", 2, "ab"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, truncate(tt.in, tt.n), tt.in)
	}
}
