package driven

import "context"

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files, embed them in the binary,
// or fetch them from a remote configuration service.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return a sensible default
	// or an error, depending on whether the prompt is required.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()

	// Watch reloads prompts whenever their backing files change, until ctx
	// is cancelled. Stores without a backing file return nil immediately.
	Watch(ctx context.Context) error
}

// Well-known prompt names used throughout the application.
// These constants define the contract between prompt consumers and providers.
const (
	// PromptQueryOptimizer classifies and rewrites a chat query.
	// The template expects %s (history block) and %s (current query).
	PromptQueryOptimizer = "query_optimizer"

	// PromptChatSystem is the persona preamble for chat.
	// The template expects a %s placeholder for the assembled context.
	PromptChatSystem = "chat_system"

	// PromptAssetDescription asks a vision model to summarise one asset.
	// This prompt has no format placeholders.
	PromptAssetDescription = "asset_description"

	// PromptAssetAnalysis answers a question about one asset.
	// The template expects %s (project context) and %s (question).
	PromptAssetAnalysis = "asset_analysis"
)

// PromptStoreAware is an optional interface for services that can use custom prompts.
type PromptStoreAware interface {
	// SetPromptStore sets the prompt store for loading customisable prompts.
	// If not set, the service should use hardcoded default prompts.
	SetPromptStore(store PromptStore)
}
