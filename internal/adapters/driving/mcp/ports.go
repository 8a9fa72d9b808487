package mcp

import (
	"github.com/custodia-labs/canvasrag/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Chat answers questions about a workspace.
	Chat driving.ChatService

	// Context exposes retrieval output. Optional.
	Context driving.ContextService

	// Index re-indexes an owner's assets. Optional.
	Index driving.IndexService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Chat == nil {
		return ErrMissingChatService
	}
	return nil
}
