package domain

import (
	"fmt"
	"strings"
	"time"
)

// DocumentType is the metadata type tag of an indexed document.
type DocumentType string

// DocumentTypeSlide tags documents derived from visual assets.
// Only visual assets are embedded; structured entities are fetched directly.
const DocumentTypeSlide DocumentType = "slide"

// DocumentID derives the stable document identifier for an entity.
// Re-indexing the same entity always yields the same id, which makes
// index upserts idempotent.
func DocumentID(kind, entityID string) string {
	return kind + "_" + entityID
}

// DocumentMetadata is the metadata snapshot stored with every document.
type DocumentMetadata struct {
	// Type is the document type tag.
	Type DocumentType `json:"type"`

	// Owner is the principal the document belongs to.
	Owner Owner `json:"owner"`

	// EntityID is the id of the source entity.
	EntityID string `json:"entity_id"`

	// Name is the display name of the source entity.
	Name string `json:"name"`

	// ParentCollection is the optional sub-collection (project) id.
	ParentCollection string `json:"parent_collection,omitempty"`

	// AssetURL is the optional screenshot location.
	AssetURL string `json:"asset_url,omitempty"`

	// HasDescription is false when the asset had no summary at index time.
	HasDescription bool `json:"has_description"`
}

// Document is the unit indexed for semantic retrieval.
type Document struct {
	// ID is DocumentID(kind, entity id).
	ID string

	// Text is the embedded and returned text.
	Text string

	// Metadata is the snapshot stored alongside the vector.
	Metadata DocumentMetadata
}

// NewAssetDocument renders a visual asset into its indexable form.
func NewAssetDocument(asset VisualAsset) Document {
	name := asset.Name
	if strings.TrimSpace(name) == "" {
		name = "Untitled Slide"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Slide: %s\n", name)
	if asset.HasDescription() {
		if asset.ContentType != "" {
			fmt.Fprintf(&b, "Type: %s\n", asset.ContentType)
		}
		fmt.Fprintf(&b, "Description: %s\n", strings.TrimSpace(asset.Description))
	} else {
		b.WriteString("Content: Visual canvas content (no description available)\n")
	}

	return Document{
		ID:   DocumentID(string(DocumentTypeSlide), asset.ID),
		Text: b.String(),
		Metadata: DocumentMetadata{
			Type:             DocumentTypeSlide,
			Owner:            asset.Owner,
			EntityID:         asset.ID,
			Name:             name,
			ParentCollection: asset.ParentCollection,
			AssetURL:         asset.AssetURL,
			HasDescription:   asset.HasDescription(),
		},
	}
}

// EmbeddingRecord is one stored vector. There is exactly one record per
// document id; re-indexing replaces it.
type EmbeddingRecord struct {
	DocumentID string
	Owner      Owner
	Text       string
	Vector     []float32
	Metadata   DocumentMetadata
	UpdatedAt  time.Time
}

// RetrievalResult is one ranked hit from the embedding index.
type RetrievalResult struct {
	// Text is the document text.
	Text string `json:"text"`

	// Metadata is the stored metadata snapshot.
	Metadata DocumentMetadata `json:"metadata"`

	// Similarity is 1 - cosine distance, clamped to [0, 1].
	Similarity float64 `json:"relevance_score"`
}

// Validate checks the invariants every stored record must hold.
func (r EmbeddingRecord) Validate() error {
	switch {
	case !r.Owner.IsValid():
		return fmt.Errorf("%w: record owner is required", ErrInvalidInput)
	case r.DocumentID == "":
		return fmt.Errorf("%w: document id is required", ErrInvalidInput)
	case IsZeroVector(r.Vector):
		return ErrDegenerateVector
	case r.Metadata.Owner != "" && r.Metadata.Owner != r.Owner:
		return fmt.Errorf("%w: metadata owner %q differs from %q", ErrInvalidInput, r.Metadata.Owner, r.Owner)
	}
	return nil
}
