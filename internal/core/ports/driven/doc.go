// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - EntityStore: structured entities and visual assets per owner
//   - EmbeddingIndex: stored vectors per owner
//   - EmbeddingService: query and document embeddings
//   - LLMService: optimizer, generation and description calls
//   - ConfigStore: application configuration
//   - PromptStore: editable prompt templates
//
// # Optional Interfaces
//
// These can be nil - the pipeline degrades gracefully:
//
//   - AssetFetcher: without it no screenshots are attached.
//   - EmbeddingCache: without it every embedding call reaches the provider.
//   - EventSink: without it observability events are dropped.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
