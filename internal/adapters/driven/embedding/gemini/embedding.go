// Package gemini provides an embedding service adapter using the Google
// Generative Language API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"google.golang.org/api/generativelanguage/v1beta"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/custodia-labs/canvasrag/internal/adapters/driven/embedding/retry"
	"github.com/custodia-labs/canvasrag/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultModel      = "text-embedding-004"
	DefaultDimensions = 768
)

// Config holds configuration for the Gemini embedding service.
// Exactly one of APIKey or AccessToken authenticates requests.
type Config struct {
	// APIKey is a Generative Language API key.
	APIKey string

	// AccessToken is an OAuth bearer token used when no API key is set.
	AccessToken string

	// BaseURL overrides the API endpoint.
	BaseURL string

	// Model is the embedding model (default: text-embedding-004).
	Model string

	// Dimensions is the expected vector size (default: 768).
	Dimensions int

	// HTTPClient replaces the transport built from the credentials.
	HTTPClient *http.Client

	// Retry overrides retry.DefaultPolicy.
	Retry *retry.Policy
}

// EmbeddingService generates embeddings using Gemini.
type EmbeddingService struct {
	models     *generativelanguage.ModelsService
	model      string
	dimensions int
	retry      retry.Policy
}

// NewEmbeddingService creates a new Gemini embedding service.
func NewEmbeddingService(ctx context.Context, cfg Config) (*EmbeddingService, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = DefaultDimensions
	}

	var opts []option.ClientOption
	switch {
	case cfg.APIKey != "":
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	case cfg.AccessToken != "":
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.AccessToken, TokenType: "Bearer"})
		opts = append(opts, option.WithTokenSource(ts))
	case cfg.HTTPClient == nil:
		return nil, fmt.Errorf("gemini: API key or access token is required")
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(strings.TrimRight(cfg.BaseURL, "/")+"/"))
	}

	svc, err := generativelanguage.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gemini: create service: %w", err)
	}

	policy := retry.DefaultPolicy()
	if cfg.Retry != nil {
		policy = *cfg.Retry
	}

	return &EmbeddingService{
		models:     svc.Models,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		retry:      policy,
	}, nil
}

func (s *EmbeddingService) resource() string {
	if strings.HasPrefix(s.model, "models/") {
		return s.model
	}
	return "models/" + s.model
}

func (s *EmbeddingService) request(text string) *generativelanguage.EmbedContentRequest {
	return &generativelanguage.EmbedContentRequest{
		Model:   s.resource(),
		Content: &generativelanguage.Content{Parts: []*generativelanguage.Part{{Text: text}}},
	}
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	var resp *generativelanguage.EmbedContentResponse
	err := retry.Do(ctx, s.retry, func() error {
		var err error
		resp, err = s.models.EmbedContent(s.resource(), s.request(text)).Context(ctx).Do()
		return translate(err)
	})
	if err != nil {
		return nil, err
	}
	if resp.Embedding == nil {
		return nil, fmt.Errorf("gemini: no embedding returned")
	}
	return toFloat32(resp.Embedding.Values), nil
}

// EmbedBatch generates embeddings for multiple texts in one request.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	batch := &generativelanguage.BatchEmbedContentsRequest{
		Requests: make([]*generativelanguage.EmbedContentRequest, len(texts)),
	}
	for i, text := range texts {
		batch.Requests[i] = s.request(text)
	}

	var resp *generativelanguage.BatchEmbedContentsResponse
	err := retry.Do(ctx, s.retry, func() error {
		var err error
		resp, err = s.models.BatchEmbedContents(s.resource(), batch).Context(ctx).Do()
		return translate(err)
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("gemini: got %d embeddings for %d inputs", len(resp.Embeddings), len(texts))
	}

	out := make([][]float32, len(texts))
	for i, e := range resp.Embeddings {
		if e != nil {
			out[i] = toFloat32(e.Values)
		}
	}
	return out, nil
}

// translate turns API errors into retry.StatusError so client errors
// are not retried.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		msg := gerr.Message
		if msg == "" {
			msg = strings.TrimSpace(gerr.Body)
		}
		return &retry.StatusError{Provider: "gemini", StatusCode: gerr.Code, Body: msg}
	}
	return err
}

func toFloat32(values []float64) []float32 {
	out := make([]float32, len(values))
	for i, v := range values {
		out[i] = float32(v)
	}
	return out
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping fetches the model resource, which validates credentials without
// running inference.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	if _, err := s.models.Get(s.resource()).Context(ctx).Do(); err != nil {
		return fmt.Errorf("gemini: ping failed: %w", translate(err))
	}
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}
