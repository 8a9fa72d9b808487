// Package domain defines the core business entities for canvasrag.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Owner: The isolation boundary every entity and index entry belongs to
//   - StructuredEntity: A project or task, fetched directly and never embedded
//   - VisualAsset: A canvas/slide whose summary is embedded for retrieval
//   - Document: The unit indexed for semantic retrieval
//   - ConversationTurn: One role-tagged turn of chat history
//   - OptimizerDecision: The per-request retrieval plan
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
