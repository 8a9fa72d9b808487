// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import (
	"context"
	"iter"

	"github.com/custodia-labs/canvasrag/internal/core/domain"
)

// LLMService provides generation against a chat model.
//
// Implementations may include:
//   - OpenAI-compatible APIs (OpenAI, Groq, LM Studio)
//   - Anthropic (Claude)
//   - Ollama (local models)
type LLMService interface {
	// Generate produces text completion from a single prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// Chat conducts a multi-turn conversation and returns the full reply.
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, error)

	// Stream conducts a multi-turn conversation and yields reply fragments
	// as they arrive. A non-nil error is yielded at most once and ends the
	// sequence. Breaking out of the loop releases the upstream request.
	Stream(ctx context.Context, messages []ChatMessage, opts ChatOptions) iter.Seq2[string, error]

	// ModelName returns the name of the text model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64

	// StopWords are sequences that stop generation when encountered.
	StopWords []string
}

// Chat roles understood by every backend.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the message text.
	Content string

	// Images are attached before Content when the backend supports vision.
	Images []domain.ImagePayload
}

// HasImages reports whether the message is multimodal.
func (m ChatMessage) HasImages() bool {
	return len(m.Images) > 0
}

// ChatOptions configures chat behaviour.
type ChatOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64

	// TopP is nucleus sampling. Zero leaves the backend default.
	TopP float64
}
