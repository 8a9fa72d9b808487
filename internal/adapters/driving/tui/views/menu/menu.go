// Package menu is the landing screen of the TUI.
package menu

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/canvasrag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/canvasrag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/canvasrag/internal/adapters/driving/tui/styles"
)

// Item is one destination on the landing screen.
type Item struct {
	Label       string
	Description string
	Shortcut    string
	View        messages.ViewType
	Quit        bool
}

// View lists the screens a user can open.
type View struct {
	styles   *styles.Styles
	keys     *keymap.KeyMap
	help     help.Model
	items    []Item
	selected int
	width    int
	height   int
	ready    bool
}

// NewView creates the menu with the default keybindings.
func NewView(s *styles.Styles) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}

	h := help.New()
	h.Styles.ShortKey = s.Subtitle
	h.Styles.ShortDesc = s.Help
	h.Styles.ShortSeparator = s.Muted

	return &View{
		styles: s,
		keys:   keymap.DefaultKeyMap(),
		help:   h,
		items: []Item{
			{Label: "Chat", Description: "Ask about the active project", Shortcut: "c", View: messages.ViewChat},
			{Label: "Retrieved context", Description: "Slides used for the last answer", Shortcut: "r", View: messages.ViewContext},
			{Label: "Help", Description: "Keybindings", Shortcut: "?", View: messages.ViewHelp},
			{Label: "Quit", Description: "Leave canvasrag", Quit: true},
		},
		width:  80,
		height: 24,
	}
}

// Init implements tea.Model.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update moves the cursor and opens the chosen screen.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, v.keys.Up):
			v.selected = max(v.selected-1, 0)
		case key.Matches(msg, v.keys.Down):
			v.selected = min(v.selected+1, len(v.items)-1)
		case key.Matches(msg, v.keys.Select):
			return v, v.open(v.items[v.selected])
		case key.Matches(msg, v.keys.Quit):
			return v, tea.Quit
		default:
			if i := v.shortcut(msg.String()); i >= 0 {
				v.selected = i
				return v, v.open(v.items[i])
			}
		}
	}

	return v, nil
}

func (v *View) open(item Item) tea.Cmd {
	if item.Quit {
		return tea.Quit
	}
	return func() tea.Msg {
		return messages.ViewChanged{View: item.View}
	}
}

// shortcut returns the index of the item bound to s, or -1.
func (v *View) shortcut(s string) int {
	for i, item := range v.items {
		if item.Shortcut != "" && item.Shortcut == s {
			return i
		}
	}
	return -1
}

// View renders the menu.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	var b strings.Builder
	b.WriteString(v.styles.Title.Render("canvasrag"))
	b.WriteString("\n")
	b.WriteString(v.styles.Muted.Render("Chat with your projects, todos and slides"))
	b.WriteString("\n\n")

	for i, item := range v.items {
		label := item.Label
		if item.Shortcut != "" {
			label = fmt.Sprintf("%s (%s)", item.Label, item.Shortcut)
		}
		if i == v.selected {
			b.WriteString("> " + v.styles.Selected.Render(label))
		} else {
			b.WriteString("  " + v.styles.Normal.Render(label))
		}
		b.WriteString("  " + v.styles.Muted.Render(item.Description))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.help.ShortHelpView([]key.Binding{v.keys.Up, v.keys.Down, v.keys.Select, v.keys.Quit}))

	return b.String()
}

// SetDimensions records the terminal size and marks the view ready.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.help.Width = width
	v.ready = true
}

// Selected returns the index under the cursor.
func (v *View) Selected() int {
	return v.selected
}
