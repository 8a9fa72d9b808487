package driving

import (
	"context"
	"iter"

	"github.com/custodia-labs/canvasrag/internal/core/domain"
)

// AnalysisService answers questions about a single rendered asset.
type AnalysisService interface {
	// StreamAnalysis streams an answer about the image using the same
	// event contract as ChatService.Chat.
	StreamAnalysis(ctx context.Context, req domain.AnalysisRequest) iter.Seq[domain.StreamEvent]

	// Describe generates a searchable description of the image.
	// Malformed model output degrades to the raw text as the description.
	Describe(ctx context.Context, image string) (*domain.AssetDescription, error)
}
