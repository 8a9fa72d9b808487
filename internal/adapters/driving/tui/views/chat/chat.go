// Package chat provides the conversation view for the TUI.
package chat

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/canvasrag/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/canvasrag/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/canvasrag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/canvasrag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/canvasrag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/canvasrag/internal/core/domain"
	"github.com/custodia-labs/canvasrag/internal/core/ports/driving"
)

// exchange is one question and the answer streamed for it.
type exchange struct {
	query  string
	answer strings.Builder
	failed string
	done   bool
}

// View is the chat view: a scrolling transcript above a question input.
type View struct {
	styles     *styles.Styles
	keymap     *keymap.KeyMap
	input      *input.PromptInput
	transcript viewport.Model
	statusbar  *status.Bar

	chatService driving.ChatService
	ctx         context.Context
	owner       domain.Owner
	project     string

	exchanges []*exchange
	history   []domain.ConversationTurn

	streaming bool
	stopping  bool
	cancel    context.CancelFunc

	width  int
	height int
	ready  bool
	err    error
}

// NewView creates a chat view for owner. project scopes retrieval when set.
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	chatService driving.ChatService,
	owner domain.Owner,
	project string,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	bar := status.NewBar(s, km)
	bar.SetHints(km.ChatHelp())

	return &View{
		styles:      s,
		keymap:      km,
		input:       input.NewPromptInput(s, "Ask", "Ask about your projects, todos or slides..."),
		transcript:  viewport.New(80, 14),
		statusbar:   bar,
		chatService: chatService,
		ctx:         context.Background(),
		owner:       owner,
		project:     project,
		width:       80,
		height:      24,
	}
}

// WithContext sets the context answers are generated under.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the chat view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.ChatSubmitted:
		return v, v.submit(msg.Query)

	case messages.StreamEvent:
		return v, v.handleStreamEvent(msg)

	case messages.StreamClosed:
		v.finish()
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
	key := msg.String()

	switch {
	case msg.Type == tea.KeyEsc:
		v.Stop()
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}

	case keymap.Matches(key, v.keymap.ScrollUp), keymap.Matches(key, v.keymap.ScrollDown):
		var cmd tea.Cmd
		v.transcript, cmd = v.transcript.Update(msg)
		return v, cmd

	case keymap.Matches(key, v.keymap.Stop):
		v.Stop()
		return v, nil
	}

	if v.streaming {
		return v, nil
	}

	switch {
	case keymap.Matches(key, v.keymap.NewChat):
		v.Reset()
		return v, nil

	case msg.Type == tea.KeyEnter:
		query := strings.TrimSpace(v.input.Value())
		if query == "" {
			return v, nil
		}
		v.input.SetValue("")
		return v, v.submit(query)
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// submit starts streaming an answer to query.
func (v *View) submit(query string) tea.Cmd {
	if v.streaming {
		return nil
	}
	if v.chatService == nil {
		return func() tea.Msg {
			return messages.ErrorOccurred{Err: ErrNoChatService}
		}
	}

	req := domain.ChatRequest{
		Owner:         v.owner,
		Query:         query,
		History:       append([]domain.ConversationTurn(nil), v.history...),
		SubCollection: v.project,
	}

	v.err = nil
	v.exchanges = append(v.exchanges, &exchange{query: query})
	v.streaming = true
	v.stopping = false
	v.statusbar.SetMessage("")
	v.statusbar.SetState(status.StateStreaming)
	v.refresh()

	ctx, cancel := context.WithCancel(v.ctx)
	v.cancel = cancel
	events := make(chan domain.StreamEvent)

	go func() {
		defer close(events)
		for ev := range v.chatService.Chat(ctx, req) {
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	return waitForEvent(events)
}

// waitForEvent reads the next event of a running stream.
func waitForEvent(events <-chan domain.StreamEvent) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return messages.StreamClosed{}
		}
		return messages.StreamEvent{Event: ev, Next: events}
	}
}

func (v *View) handleStreamEvent(msg messages.StreamEvent) tea.Cmd {
	current := v.current()
	if current == nil || !v.streaming {
		return nil
	}
	if v.stopping {
		if msg.Event.IsTerminal() {
			v.finish()
			return nil
		}
		return waitForEvent(msg.Next)
	}

	switch msg.Event.Kind {
	case domain.StreamChunk:
		current.answer.WriteString(msg.Event.Text)
		v.refresh()
		return waitForEvent(msg.Next)

	case domain.StreamDone:
		current.done = true
		v.remember(current)
		v.finish()

	case domain.StreamError:
		current.failed = msg.Event.Text
		v.err = &StreamError{Message: msg.Event.Text}
		v.finish()
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(msg.Event.Text)
	}
	return nil
}

// remember adds a completed exchange to the history sent with later questions.
func (v *View) remember(ex *exchange) {
	user, err := domain.NewTextTurn(domain.RoleUser, ex.query)
	if err != nil {
		return
	}
	assistant, err := domain.NewTextTurn(domain.RoleAssistant, ex.answer.String())
	if err != nil {
		return
	}
	v.history = append(v.history, user, assistant)
}

// finish ends the running stream, if any.
func (v *View) finish() {
	if !v.streaming {
		return
	}
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
	if v.stopping {
		v.statusbar.SetMessage("Stopped")
	}
	v.streaming = false
	v.stopping = false
	v.statusbar.SetState(status.StateReady)
	v.refresh()
}

// Stop cancels the answer that is streaming. The partial answer stays in
// the transcript but is not sent as history.
func (v *View) Stop() {
	if !v.streaming || v.stopping {
		return
	}
	v.stopping = true
	if v.cancel != nil {
		v.cancel()
	}
}

func (v *View) current() *exchange {
	if len(v.exchanges) == 0 {
		return nil
	}
	return v.exchanges[len(v.exchanges)-1]
}

// refresh re-renders the transcript and keeps the newest text in view.
func (v *View) refresh() {
	v.transcript.SetContent(v.renderTranscript())
	v.transcript.GotoBottom()
}

func (v *View) renderTranscript() string {
	if len(v.exchanges) == 0 {
		return v.styles.Muted.Render("Ask a question about your workspace.")
	}

	wrap := lipgloss.NewStyle().Width(max(v.width-4, 20))
	blocks := make([]string, 0, len(v.exchanges)*2)
	for i, ex := range v.exchanges {
		blocks = append(blocks,
			v.styles.UserLabel.Render("You")+"\n"+wrap.Render(ex.query))

		answer := ex.answer.String()
		switch {
		case ex.failed != "":
			answer += "\n" + v.styles.Error.Render("Error: "+ex.failed)
		case answer == "" && v.streaming && i == len(v.exchanges)-1:
			answer = v.styles.Muted.Render("...")
		case !ex.done && !(v.streaming && i == len(v.exchanges)-1):
			answer += v.styles.Muted.Render(" [stopped]")
		}
		blocks = append(blocks,
			v.styles.AssistantLabel.Render("canvasrag")+"\n"+wrap.Render(answer))
	}
	return strings.Join(blocks, "\n\n")
}

// View renders the chat view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	header := v.styles.Title.Render("canvasrag")
	if v.owner != "" {
		scope := "owner " + string(v.owner)
		if v.project != "" {
			scope += ", project " + v.project
		}
		header += "  " + v.styles.Muted.Render(scope)
	}

	sections := []string{
		header,
		"",
		v.transcript.View(),
		"",
		v.input.View(),
		"",
		v.statusbar.View(),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.statusbar.SetWidth(width)
	v.transcript.Width = width
	v.transcript.Height = max(height-9, 3)
	v.refresh()
}

// Reset clears the conversation. It does nothing while an answer streams.
func (v *View) Reset() {
	if v.streaming {
		return
	}
	v.exchanges = nil
	v.history = nil
	v.err = nil
	v.input.SetValue("")
	v.input.Focus()
	v.statusbar.Clear()
	v.refresh()
}

// Streaming reports whether an answer is being generated.
func (v *View) Streaming() bool {
	return v.streaming
}

// History returns the turns sent with the next question.
func (v *View) History() []domain.ConversationTurn {
	return v.history
}

// Transcript returns the rendered conversation.
func (v *View) Transcript() string {
	return v.renderTranscript()
}

// Err returns the last error, if any.
func (v *View) Err() error {
	return v.err
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}

// Width returns the current width.
func (v *View) Width() int {
	return v.width
}

// Height returns the current height.
func (v *View) Height() int {
	return v.height
}
