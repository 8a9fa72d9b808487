package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown provider or backend type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrLLMUnavailable indicates the generation backend is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Semantic retrieval is disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrIndexUnavailable indicates the embedding index is not configured.
	ErrIndexUnavailable = errors.New("embedding index unavailable")

	// ErrEntityStoreUnavailable indicates the structured entity store is not configured.
	ErrEntityStoreUnavailable = errors.New("entity store unavailable")

	// ErrDegenerateVector indicates an all-zero or empty embedding.
	// A zero vector means the embedding call failed upstream and must
	// never be stored or used as a query point.
	ErrDegenerateVector = errors.New("degenerate embedding vector")

	// ErrDimensionMismatch indicates a vector of the wrong dimensionality.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrRateLimited indicates an upstream API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrCircuitOpen indicates the generation backend circuit breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrAssetFetch indicates a binary asset could not be fetched.
	ErrAssetFetch = errors.New("asset fetch failed")
)
