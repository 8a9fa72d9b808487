package driving

import (
	"context"
	"iter"

	"github.com/custodia-labs/canvasrag/internal/core/domain"
)

// ChatService answers questions about an owner's workspace.
// This is used by HTTP, CLI, TUI and MCP adapters.
type ChatService interface {
	// Chat runs the full pipeline and yields the response as stream events.
	// The sequence always ends with exactly one done or error event.
	// Stopping iteration early cancels the generation call.
	Chat(ctx context.Context, req domain.ChatRequest) iter.Seq[domain.StreamEvent]

	// Answer runs Chat and collects the chunks into one reply.
	Answer(ctx context.Context, req domain.ChatRequest) (*domain.ChatAnswer, error)
}
