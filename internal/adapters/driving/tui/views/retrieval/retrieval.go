// Package retrieval provides a view that previews the slides and context
// retrieved for a query without generating an answer.
package retrieval

import (
	"context"
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/canvasrag/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/canvasrag/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/canvasrag/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/canvasrag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/canvasrag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/canvasrag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/canvasrag/internal/core/domain"
	"github.com/custodia-labs/canvasrag/internal/core/ports/driving"
)

// ErrNoContextService indicates that no context service was provided.
var ErrNoContextService = errors.New("context service is required")

// View shows an input, the retrieved slides and the selected slide's text.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.PromptInput
	list      *list.ResultList
	statusbar *status.Bar

	contextService driving.ContextService
	ctx            context.Context
	owner          domain.Owner

	report     *domain.ContextReport
	width      int
	height     int
	ready      bool
	err        error
	focusInput bool
}

// NewView creates a retrieval preview view for owner.
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	contextService driving.ContextService,
	owner domain.Owner,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:         s,
		keymap:         km,
		input:          input.NewPromptInput(s, "Query", "What would be retrieved for..."),
		list:           list.NewResultList(s),
		statusbar:      status.NewBar(s, km),
		contextService: contextService,
		ctx:            context.Background(),
		owner:          owner,
		width:          80,
		height:         24,
		focusInput:     true,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the retrieval view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.ContextLoaded:
		v.handleLoaded(msg)
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(msg.Err.Error())
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if msg.Type == tea.KeyEsc {
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	if v.focusInput {
		if msg.Type == tea.KeyEnter {
			query := strings.TrimSpace(v.input.Value())
			if query == "" {
				return v, nil
			}
			v.statusbar.SetState(status.StateLoading)
			v.focusInput = false
			v.input.Blur()
			return v, v.load(query)
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}

	switch msg.String() {
	case "n":
		v.focusInput = true
		v.input.SetValue("")
		return v, v.input.Focus()
	default:
		v.list, _ = v.list.Update(msg)
	}
	return v, nil
}

// load runs retrieval for query.
func (v *View) load(query string) tea.Cmd {
	return func() tea.Msg {
		if v.contextService == nil {
			return messages.ErrorOccurred{Err: ErrNoContextService}
		}
		report, err := v.contextService.Query(v.ctx, v.owner, query)
		return messages.ContextLoaded{Report: report, Err: err}
	}
}

func (v *View) handleLoaded(msg messages.ContextLoaded) {
	if msg.Err != nil {
		v.err = msg.Err
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(msg.Err.Error())
		v.focusInput = true
		v.input.Focus()
		return
	}

	v.err = nil
	v.report = msg.Report
	var docs []domain.RetrievalResult
	if msg.Report != nil {
		docs = msg.Report.Documents
	}
	v.list.SetResults(docs)
	v.statusbar.SetState(status.StateResults)
	v.statusbar.SetResultCount(len(docs))
	if msg.Report != nil && !msg.Report.Success {
		v.statusbar.SetMessage("Retrieval failed, context is empty")
	}
}

// View renders the retrieval view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 10)
	sections = append(sections, v.styles.Title.Render("Retrieved context"), "", v.input.View(), "")

	if v.err != nil {
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()), "")
	}

	sections = append(sections, v.list.View())

	if selected := v.list.SelectedResult(); selected != nil {
		detail := lipgloss.NewStyle().Width(max(v.width-6, 20)).Render(selected.Text)
		sections = append(sections, "", v.styles.Border.Padding(0, 1).Render(detail))
	}

	sections = append(sections, "", v.statusbar.View())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.list.SetDimensions(width, height/2)
	v.statusbar.SetWidth(width)
}

// Reset returns the view to input mode with nothing loaded.
func (v *View) Reset() {
	v.focusInput = true
	v.input.Focus()
	v.input.SetValue("")
	v.list.SetResults(nil)
	v.report = nil
	v.err = nil
	v.statusbar.Clear()
}

// Report returns the last loaded context report.
func (v *View) Report() *domain.ContextReport {
	return v.report
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}

// InputFocused returns whether the input has focus.
func (v *View) InputFocused() bool {
	return v.focusInput
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}
