package domain

import "time"

// Component names used in observability events.
const (
	ComponentOptimizer    = "optimizer"
	ComponentRetriever    = "retriever"
	ComponentAssembler    = "assembler"
	ComponentScreenshots  = "screenshots"
	ComponentOrchestrator = "orchestrator"
	ComponentIndexer      = "indexer"
	ComponentAnalysis     = "analysis"
)

// Event names used in observability events.
const (
	EventDecision         = "decision"
	EventPrefixDrift      = "prefix_drift"
	EventFallback         = "fallback"
	EventResults          = "results"
	EventEmbeddingFailed  = "embedding_failed"
	EventFilterInferred   = "filter_inferred"
	EventContext          = "context"
	EventFetched          = "fetched"
	EventSkipped          = "skipped"
	EventCompleted        = "completed"
	EventFailed           = "failed"
	EventCancelled        = "cancelled"
	EventDescribeFallback = "describe_fallback"
)

// Event is a structured observability record emitted at a component boundary.
// Events never influence control flow.
type Event struct {
	Component string
	Name      string
	Fields    map[string]any
	At        time.Time
}

// NewEvent creates an event stamped with the current time.
func NewEvent(component, name string, fields map[string]any) Event {
	if fields == nil {
		fields = map[string]any{}
	}
	return Event{
		Component: component,
		Name:      name,
		Fields:    fields,
		At:        time.Now(),
	}
}
