// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/canvasrag/internal/core/domain"
)

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewChat is the conversation view.
	ViewChat
	// ViewContext shows the slides retrieved for a query.
	ViewContext
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewChat:
		return "chat"
	case ViewContext:
		return "context"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ChatSubmitted is sent when the user sends a question.
type ChatSubmitted struct {
	Query string
}

// StreamEvent carries one event of an answer stream. Next is the channel
// the rest of the stream arrives on; it is closed after the terminal event.
type StreamEvent struct {
	Event domain.StreamEvent
	Next  <-chan domain.StreamEvent
}

// StreamClosed signals the stream channel closed without a terminal event.
type StreamClosed struct{}

// ContextLoaded carries the result of a retrieval preview.
type ContextLoaded struct {
	Report *domain.ContextReport
	Err    error
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
