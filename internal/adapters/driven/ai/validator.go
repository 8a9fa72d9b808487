package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/canvasrag/internal/core/domain"
	"github.com/custodia-labs/canvasrag/internal/core/ports/driven"
)

var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// dimensionProbe is embedded to learn the vector size a model returns.
const dimensionProbe = "canvasrag dimension probe"

// ConfigValidator checks provider settings against the live backend before
// they are used: the provider must answer a ping and an embedding model must
// return vectors of the configured size.
type ConfigValidator struct {
	timeout     time.Duration
	newEmbedder func(context.Context, *domain.EmbeddingSettings) (driven.EmbeddingService, error)
	newLLM      func(*domain.LLMSettings) (driven.LLMService, error)
}

// NewConfigValidator builds services with the provider factory.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{
		timeout:     pingTimeout,
		newEmbedder: CreateEmbeddingService,
		newLLM:      CreateLLMService,
	}
}

// ValidateEmbedding pings the embedding provider. When settings fix the
// vector size, a probe text is embedded and its length compared.
// Unconfigured settings are accepted as is.
func (v *ConfigValidator) ValidateEmbedding(ctx context.Context, settings *domain.EmbeddingSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	svc, err := v.newEmbedder(ctx, settings)
	if err != nil {
		return fmt.Errorf("%s embedding: %w", settings.Provider, err)
	}
	if svc == nil {
		return nil
	}
	defer svc.Close()

	if err := svc.Ping(ctx); err != nil {
		return fmt.Errorf("%s embedding unreachable: %w", settings.Provider, err)
	}
	if settings.Dimensions <= 0 {
		return nil
	}

	vec, err := svc.Embed(ctx, dimensionProbe)
	if err != nil {
		return fmt.Errorf("%s embedding probe: %w", settings.Provider, err)
	}
	if len(vec) != settings.Dimensions {
		return fmt.Errorf("%w: %s returns %d dimensions, settings expect %d",
			domain.ErrDimensionMismatch, svc.ModelName(), len(vec), settings.Dimensions)
	}
	return nil
}

// ValidateLLM pings the generation provider. Unconfigured settings are
// accepted as is.
func (v *ConfigValidator) ValidateLLM(ctx context.Context, settings *domain.LLMSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return nil
	}

	svc, err := v.newLLM(settings)
	if err != nil {
		return fmt.Errorf("%s llm: %w", settings.Provider, err)
	}
	if svc == nil {
		return nil
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()
	if err := svc.Ping(ctx); err != nil {
		return fmt.Errorf("%s llm unreachable: %w", settings.Provider, err)
	}
	return nil
}
