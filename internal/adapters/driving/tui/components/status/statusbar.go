// Package status renders the one-line bar under the chat and context views.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/canvasrag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/canvasrag/internal/adapters/driving/tui/styles"
)

// State is what the owning view is doing.
type State string

const (
	StateReady     State = "ready"
	StateLoading   State = "loading"
	StateStreaming State = "streaming"
	StateError     State = "error"
	StateHelp      State = "help"
	StateResults   State = "results"
)

// busyLabels are shown while work is in flight; they ignore the message.
var busyLabels = map[State]string{
	StateLoading:   "Retrieving...",
	StateStreaming: "Answering...",
}

// Bar shows the view state on the left and key hints on the right.
type Bar struct {
	styles *styles.Styles
	keymap *keymap.KeyMap
	help   help.Model

	state       State
	message     string
	resultCount int
	width       int
	hints       []key.Binding
}

// NewBar creates a bar in the ready state. Nil arguments use the defaults.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	h := help.New()
	h.ShortSeparator = " | "
	h.Styles.ShortKey = s.Muted.Bold(true)
	h.Styles.ShortDesc = s.Muted
	h.Styles.ShortSeparator = s.Muted

	return &Bar{styles: s, keymap: km, help: h, state: StateReady, width: 80}
}

func (s *Bar) Init() tea.Cmd { return nil }

// Update is a no-op; the owning view drives the bar through its setters.
func (s *Bar) Update(tea.Msg) (*Bar, tea.Cmd) { return s, nil }

// View renders the bar padded to its width.
func (s *Bar) View() string {
	left, right := s.status(), s.help.ShortHelpView(s.bindings())
	gap := max(s.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	return s.styles.StatusBar.Width(s.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (s *Bar) status() string {
	if label, ok := busyLabels[s.state]; ok {
		return s.styles.Muted.Render(label)
	}

	switch {
	case s.state == StateError && s.message != "":
		return s.styles.Error.Render("Error: " + s.message)
	case s.state == StateError:
		return s.styles.Error.Render("Error")
	case s.state == StateHelp:
		return s.styles.Normal.Render("Help")
	case s.message != "":
		return s.styles.Normal.Render(s.message)
	case s.resultCount == 1:
		return s.styles.Normal.Render("1 slide")
	case s.resultCount > 1:
		return s.styles.Normal.Render(fmt.Sprintf("%d slides", s.resultCount))
	default:
		return s.styles.Muted.Render("Ready")
	}
}

// bindings picks the hints for the current state. Streaming and a
// non-empty result list override the hints set by the view.
func (s *Bar) bindings() []key.Binding {
	switch {
	case s.state == StateStreaming:
		return s.keymap.StreamingHelp()
	case s.state == StateResults && s.resultCount > 0:
		return s.keymap.ResultsHelp()
	case len(s.hints) > 0:
		return s.hints
	default:
		return s.keymap.ShortHelp()
	}
}

func (s *Bar) SetState(state State) { s.state = state }
func (s *Bar) State() State         { return s.state }

func (s *Bar) SetMessage(message string) { s.message = message }
func (s *Bar) Message() string           { return s.message }

func (s *Bar) SetResultCount(count int) { s.resultCount = count }
func (s *Bar) ResultCount() int         { return s.resultCount }

// SetHints replaces the key hints shown while idle.
func (s *Bar) SetHints(bindings []key.Binding) { s.hints = bindings }

func (s *Bar) SetWidth(width int) { s.width = width }
func (s *Bar) Width() int         { return s.width }

// Clear returns to the ready state with no message or count.
func (s *Bar) Clear() {
	s.state = StateReady
	s.message = ""
	s.resultCount = 0
}
