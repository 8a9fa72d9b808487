package menu

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/canvasrag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/canvasrag/internal/adapters/driving/tui/styles"
)

func TestNewView(t *testing.T) {
	s := styles.DefaultStyles()

	view := NewView(s)

	require.NotNil(t, view)
	assert.NotNil(t, view.styles)
	assert.NotNil(t, view.keys)
	assert.Len(t, view.items, 4)
	assert.Equal(t, 0, view.selected)
	assert.Equal(t, 80, view.width)
	assert.Equal(t, 24, view.height)
}

func TestNewView_NilStyles(t *testing.T) {
	view := NewView(nil)

	require.NotNil(t, view)
	assert.NotNil(t, view.styles)
}

func TestView_Init(t *testing.T) {
	view := NewView(nil)

	assert.Nil(t, view.Init())
}

func TestView_Update_WindowSize(t *testing.T) {
	view := NewView(nil)

	updated, cmd := view.Update(tea.WindowSizeMsg{Width: 100, Height: 50})

	assert.Equal(t, view, updated)
	assert.Nil(t, cmd)
	assert.True(t, view.ready)
	assert.Equal(t, 100, view.width)
	assert.Equal(t, 50, view.height)
}

func TestView_Update_KeyMsg_NavigateDown(t *testing.T) {
	view := NewView(nil)

	view.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, view.selected)

	j := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}}
	view.Update(j)
	assert.Equal(t, 2, view.selected)
	view.Update(j)
	assert.Equal(t, 3, view.selected)

	// Can't go past the last item
	view.Update(j)
	assert.Equal(t, 3, view.selected)
}

func TestView_Update_KeyMsg_NavigateUp(t *testing.T) {
	view := NewView(nil)
	view.selected = 2

	view.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 1, view.selected)

	k := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}}
	view.Update(k)
	assert.Equal(t, 0, view.selected)

	view.Update(k)
	assert.Equal(t, 0, view.selected)
}

func TestView_Update_KeyMsg_Enter(t *testing.T) {
	tests := []struct {
		name     string
		selected int
		want     messages.ViewType
	}{
		{"chat", 0, messages.ViewChat},
		{"context", 1, messages.ViewContext},
		{"help", 2, messages.ViewHelp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := NewView(nil)
			view.selected = tt.selected

			_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEnter})

			require.NotNil(t, cmd)
			changed, ok := cmd().(messages.ViewChanged)
			require.True(t, ok)
			assert.Equal(t, tt.want, changed.View)
		})
	}
}

func TestView_Update_KeyMsg_Enter_Quit(t *testing.T) {
	view := NewView(nil)
	view.selected = 3

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEnter})

	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
}

func TestView_Update_KeyMsg_Q(t *testing.T) {
	view := NewView(nil)

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})

	require.NotNil(t, cmd)
}

func TestView_Update_Shortcuts(t *testing.T) {
	tests := []struct {
		key          rune
		wantSelected int
		want         messages.ViewType
	}{
		{'c', 0, messages.ViewChat},
		{'r', 1, messages.ViewContext},
		{'?', 2, messages.ViewHelp},
	}

	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			view := NewView(nil)

			_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{tt.key}})

			require.NotNil(t, cmd)
			assert.Equal(t, tt.wantSelected, view.Selected())
			changed, ok := cmd().(messages.ViewChanged)
			require.True(t, ok)
			assert.Equal(t, tt.want, changed.View)
		})
	}
}

func TestView_Update_UnknownKey(t *testing.T) {
	view := NewView(nil)

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})

	assert.Nil(t, cmd)
	assert.Equal(t, 0, view.Selected())
}

func TestView_View_NotReady(t *testing.T) {
	view := NewView(nil)

	assert.Contains(t, view.View(), "Initialising")
}

func TestView_View_Ready(t *testing.T) {
	view := NewView(nil)
	view.SetDimensions(80, 24)

	output := view.View()

	assert.Contains(t, output, "canvasrag")
	assert.Contains(t, output, "Chat with your projects")
	assert.Contains(t, output, "Retrieved context")
	assert.Contains(t, output, "Help")
	assert.Contains(t, output, "Quit")
	assert.Contains(t, output, ">")
	assert.Contains(t, output, "Chat (c)")
	assert.Contains(t, output, "Slides used for the last answer")
	assert.Contains(t, output, "select")
}

func TestView_SetDimensions(t *testing.T) {
	view := NewView(nil)

	view.SetDimensions(120, 60)

	assert.Equal(t, 120, view.width)
	assert.Equal(t, 60, view.height)
	assert.True(t, view.ready)
}

func TestView_Selected(t *testing.T) {
	view := NewView(nil)
	view.selected = 2

	assert.Equal(t, 2, view.Selected())
}

func TestMenuItem_Properties(t *testing.T) {
	view := NewView(nil)

	assert.Equal(t, "Chat", view.items[0].Label)
	assert.Equal(t, messages.ViewChat, view.items[0].View)
	assert.Equal(t, messages.ViewContext, view.items[1].View)
	assert.Equal(t, messages.ViewHelp, view.items[2].View)
	assert.True(t, view.items[3].Quit)
	assert.False(t, view.items[0].Quit)
}
