package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/canvasrag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/canvasrag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/canvasrag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/canvasrag/internal/adapters/driving/tui/views/chat"
	"github.com/custodia-labs/canvasrag/internal/adapters/driving/tui/views/menu"
	"github.com/custodia-labs/canvasrag/internal/adapters/driving/tui/views/retrieval"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles

	menuView      *menu.View
	chatView      *chat.View
	retrievalView *retrieval.View

	currentView messages.ViewType

	err error

	width  int
	height int
	ready  bool
}

var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:         ports,
		ctx:           context.Background(),
		styles:        s,
		menuView:      menu.NewView(s),
		chatView:      chat.NewView(s, km, ports.Chat, ports.Owner, ports.Project),
		retrievalView: retrieval.NewView(s, km, ports.Context, ports.Owner),
		currentView:   messages.ViewChat,
	}, nil
}

// WithContext sets the context for the app and its views.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.chatView.WithContext(ctx)
	a.retrievalView.WithContext(ctx)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("canvasrag - "+string(a.ports.Owner)),
		a.chatView.Init(),
	)
}

// Update implements tea.Model.
//
//nolint:gocyclo // central message handler
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		a.menuView.SetDimensions(msg.Width, msg.Height)
		a.chatView.SetDimensions(msg.Width, msg.Height)
		a.retrievalView.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			a.chatView.Stop()
			return a, tea.Quit
		}

		switch a.currentView {
		case messages.ViewMenu:
			a.menuView, cmd = a.menuView.Update(msg)
		case messages.ViewChat:
			a.chatView, cmd = a.chatView.Update(msg)
		case messages.ViewContext:
			a.retrievalView, cmd = a.retrievalView.Update(msg)
		case messages.ViewHelp:
			if msg.Type == tea.KeyEsc {
				a.currentView = messages.ViewMenu
			}
		}
		return a, cmd

	// Stream messages always belong to the chat view, even after the user
	// navigated away while an answer was still arriving.
	case messages.StreamEvent, messages.StreamClosed, messages.ChatSubmitted:
		a.chatView, cmd = a.chatView.Update(msg)
		a.err = a.chatView.Err()
		return a, cmd

	case messages.ContextLoaded:
		a.retrievalView, cmd = a.retrievalView.Update(msg)
		a.err = a.retrievalView.Err()
		return a, cmd

	case messages.ViewChanged:
		a.currentView = msg.View
		switch msg.View {
		case messages.ViewChat:
			return a, a.chatView.Init()
		case messages.ViewContext:
			a.retrievalView.Reset()
			return a, a.retrievalView.Init()
		case messages.ViewMenu, messages.ViewHelp:
		}
		return a, nil

	case messages.ErrorOccurred:
		a.err = msg.Err
		switch a.currentView {
		case messages.ViewChat:
			a.chatView, cmd = a.chatView.Update(msg)
		case messages.ViewContext:
			a.retrievalView, cmd = a.retrievalView.Update(msg)
		case messages.ViewMenu, messages.ViewHelp:
		}
		return a, cmd

	case messages.Quit:
		a.chatView.Stop()
		return a, tea.Quit
	}

	switch a.currentView {
	case messages.ViewMenu:
		a.menuView, cmd = a.menuView.Update(msg)
	case messages.ViewChat:
		a.chatView, cmd = a.chatView.Update(msg)
	case messages.ViewContext:
		a.retrievalView, cmd = a.retrievalView.Update(msg)
	case messages.ViewHelp:
	}
	return a, cmd
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewMenu:
		return a.menuView.View()
	case messages.ViewChat:
		return a.chatView.View()
	case messages.ViewContext:
		return a.retrievalView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	default:
		return a.menuView.View()
	}
}

func (a *App) viewHelp() string {
	return `Help

Chat:
  (type)      Enter a question
  enter       Send
  ctrl+x      Stop the answer being written
  ctrl+n      Start a new conversation
  pgup/pgdn   Scroll the transcript
  esc         Back to menu

Retrieved context:
  enter       Show the slides retrieved for a query
  j/k, ↑/↓    Select a slide
  n           New query
  esc         Back to menu

Menu:
  j/k, ↑/↓    Navigate options
  enter       Select option
  c, r, ?     Open chat, retrieved context or help
  q           Quit

ctrl+c quits from anywhere.

[esc] back to menu`
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Chat returns the chat view.
func (a *App) Chat() *chat.View {
	return a.chatView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions.
func (a *App) SetDimensions(width, height int) {
	a.Update(tea.WindowSizeMsg{Width: width, Height: height})
}
