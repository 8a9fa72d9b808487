package driven

import "github.com/custodia-labs/canvasrag/internal/core/domain"

// EventSink receives structured observability events emitted at pipeline
// component boundaries. Emit must not block and must not fail; events
// never alter control flow.
type EventSink interface {
	Emit(event domain.Event)
}
