// Package tui provides an interactive terminal chat for canvasrag.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/canvasrag/internal/core/domain"
	"github.com/custodia-labs/canvasrag/internal/core/ports/driving"
)

// Ports aggregates the driving ports and scope the TUI runs against.
type Ports struct {
	// Chat streams answers.
	Chat driving.ChatService

	// Context previews retrieval. Optional.
	Context driving.ContextService

	// Owner scopes every request.
	Owner domain.Owner

	// Project narrows retrieval to one project when set.
	Project string
}

// Validate ensures the required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Chat == nil {
		return ErrMissingChatService
	}
	if !p.Owner.IsValid() {
		return ErrMissingOwner
	}
	return nil
}
