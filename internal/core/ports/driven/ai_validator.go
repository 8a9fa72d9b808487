package driven

import (
	"context"

	"github.com/custodia-labs/canvasrag/internal/core/domain"
)

// AIConfigValidator checks provider settings against the live backend.
// Settings that are not configured validate as nil.
type AIConfigValidator interface {
	ValidateEmbedding(ctx context.Context, settings *domain.EmbeddingSettings) error
	ValidateLLM(ctx context.Context, settings *domain.LLMSettings) error
}
