package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/custodia-labs/canvasrag/internal/core/domain"
	"github.com/custodia-labs/canvasrag/internal/core/ports/driven"
)

// embeddingIndex implements driven.EmbeddingIndex.
//
// Vectors are stored as little-endian float32 blobs and ranked in process;
// the owner and dimension filters run in SQL.
type embeddingIndex struct {
	store *Store
}

var _ driven.EmbeddingIndex = (*embeddingIndex)(nil)

// Upsert stores or replaces the record with the same owner and document id.
// Records of other owners are never touched.
func (x *embeddingIndex) Upsert(ctx context.Context, record domain.EmbeddingRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}

	metadataJSON, err := json.Marshal(record.Metadata)
	if err != nil {
		return fmt.Errorf("marshalling metadata: %w", err)
	}
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = time.Now().UTC()
	}

	_, err = x.store.db.ExecContext(ctx, `
		INSERT INTO embeddings (document_id, owner, text, vector, dimensions, metadata, parent_collection, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(owner, document_id) DO UPDATE SET
			text = excluded.text,
			vector = excluded.vector,
			dimensions = excluded.dimensions,
			metadata = excluded.metadata,
			parent_collection = excluded.parent_collection,
			updated_at = excluded.updated_at
	`, record.DocumentID, string(record.Owner), record.Text, domain.EncodeVector(record.Vector),
		len(record.Vector), string(metadataJSON), record.Metadata.ParentCollection, record.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving embedding: %w", err)
	}
	return nil
}

// Query ranks the records of owner against vector.
func (x *embeddingIndex) Query(
	ctx context.Context, owner domain.Owner, vector []float32, k int, subCollection string,
) ([]domain.RetrievalResult, error) {
	if k <= 0 || domain.IsZeroVector(vector) {
		return nil, nil
	}

	query := `
		SELECT document_id, text, vector, metadata, updated_at
		FROM embeddings WHERE owner = ? AND dimensions = ?`
	args := []any{string(owner), len(vector)}
	if subCollection != "" {
		query += " AND parent_collection = ?"
		args = append(args, subCollection)
	}

	rows, err := x.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying embeddings: %w", err)
	}
	defer rows.Close()

	var records []domain.EmbeddingRecord //nolint:prealloc // size unknown from query
	for rows.Next() {
		var (
			r            domain.EmbeddingRecord
			blob         []byte
			metadataJSON string
			updatedAt    sql.NullTime
		)
		if err := rows.Scan(&r.DocumentID, &r.Text, &blob, &metadataJSON, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning embedding: %w", err)
		}
		if r.Vector, err = domain.DecodeVector(blob); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", r.DocumentID, err)
		}
		if err := json.Unmarshal([]byte(metadataJSON), &r.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshalling metadata of %s: %w", r.DocumentID, err)
		}
		r.Owner = owner
		r.UpdatedAt = updatedAt.Time
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating embeddings: %w", err)
	}

	return domain.RankRecords(records, owner, vector, k, subCollection), nil
}

// Count returns the number of records of owner.
func (x *embeddingIndex) Count(ctx context.Context, owner domain.Owner) (int, error) {
	var n int
	row := x.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM embeddings WHERE owner = ?", string(owner))
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("counting embeddings: %w", err)
	}
	return n, nil
}

// Close is a no-op; the owning Store holds the connection.
func (x *embeddingIndex) Close() error {
	return nil
}
