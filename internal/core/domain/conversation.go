package domain

import (
	"fmt"
	"strings"
)

// Role identifies the speaker of a conversation turn.
type Role string

// Conversation roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ParseRole maps a wire role to a Role.
// "model" is accepted as an alias of assistant.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "user":
		return RoleUser, nil
	case "assistant", "model":
		return RoleAssistant, nil
	default:
		return "", fmt.Errorf("%w: unknown role %q", ErrInvalidInput, s)
	}
}

// TurnContent is the payload of a turn. It is either TextContent or
// MultimodalContent; no other implementations exist.
type TurnContent interface {
	// Text returns the textual part of the content.
	Text() string

	turnContent()
}

// TextContent is a text-only turn payload.
type TextContent string

// Text returns the content.
func (c TextContent) Text() string { return string(c) }

func (TextContent) turnContent() {}

// MultimodalContent is a text payload with attached image references.
type MultimodalContent struct {
	Body      string
	ImageRefs []string
}

// Text returns the textual part.
func (c MultimodalContent) Text() string { return c.Body }

func (MultimodalContent) turnContent() {}

// ConversationTurn is one immutable entry of chat history.
// Construct with NewTextTurn or NewMultimodalTurn.
type ConversationTurn struct {
	role    Role
	content TurnContent
}

// NewTextTurn creates a text-only turn.
func NewTextTurn(role Role, text string) (ConversationTurn, error) {
	if role != RoleUser && role != RoleAssistant {
		return ConversationTurn{}, fmt.Errorf("%w: invalid role %q", ErrInvalidInput, role)
	}
	return ConversationTurn{role: role, content: TextContent(text)}, nil
}

// NewMultimodalTurn creates a turn carrying images. At least one image
// reference is required; use NewTextTurn otherwise.
func NewMultimodalTurn(role Role, text string, imageRefs []string) (ConversationTurn, error) {
	if role != RoleUser && role != RoleAssistant {
		return ConversationTurn{}, fmt.Errorf("%w: invalid role %q", ErrInvalidInput, role)
	}
	if len(imageRefs) == 0 {
		return ConversationTurn{}, fmt.Errorf("%w: multimodal turn without images", ErrInvalidInput)
	}
	refs := make([]string, len(imageRefs))
	copy(refs, imageRefs)
	return ConversationTurn{role: role, content: MultimodalContent{Body: text, ImageRefs: refs}}, nil
}

// Role returns the speaker.
func (t ConversationTurn) Role() Role { return t.role }

// Content returns the payload. Image references are copied.
func (t ConversationTurn) Content() TurnContent {
	if mc, ok := t.content.(MultimodalContent); ok {
		mc.ImageRefs = append([]string(nil), mc.ImageRefs...)
		return mc
	}
	return t.content
}

// Text returns the textual part of the payload.
func (t ConversationTurn) Text() string {
	if t.content == nil {
		return ""
	}
	return t.content.Text()
}

// Images returns a copy of the attached image references, if any.
func (t ConversationTurn) Images() []string {
	if mc, ok := t.content.(MultimodalContent); ok && len(mc.ImageRefs) > 0 {
		return append([]string(nil), mc.ImageRefs...)
	}
	return nil
}

// RecentTurns returns the last n turns of history in original order.
func RecentTurns(history []ConversationTurn, n int) []ConversationTurn {
	if n <= 0 {
		return nil
	}
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}
