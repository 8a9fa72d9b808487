package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/canvasrag/internal/core/domain"
	"github.com/custodia-labs/canvasrag/internal/core/ports/driven"
)

// entityStore implements driven.WritableEntityStore.
type entityStore struct {
	store *Store
}

var _ driven.WritableEntityStore = (*entityStore)(nil)

// SaveEntity stores or updates a project or task.
func (s *entityStore) SaveEntity(ctx context.Context, entity domain.StructuredEntity) error {
	if entity.ID == "" || !entity.Owner.IsValid() || !entity.Kind.IsValid() {
		return fmt.Errorf("%w: entity needs id, owner and kind", domain.ErrInvalidInput)
	}
	if entity.CreatedAt.IsZero() {
		entity.CreatedAt = time.Now().UTC()
	}

	var due sql.NullTime
	if entity.DueDate != nil {
		due = sql.NullTime{Time: *entity.DueDate, Valid: true}
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO entities (id, owner, kind, title, description, status, priority, due_date, project_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			owner = excluded.owner,
			kind = excluded.kind,
			title = excluded.title,
			description = excluded.description,
			status = excluded.status,
			priority = excluded.priority,
			due_date = excluded.due_date,
			project_id = excluded.project_id
	`, entity.ID, string(entity.Owner), string(entity.Kind), entity.Title, entity.Description,
		entity.Status, entity.Priority, due, entity.ProjectID, entity.CreatedAt)
	if err != nil {
		return fmt.Errorf("saving entity: %w", err)
	}
	return nil
}

// SaveAsset stores or updates a visual asset.
func (s *entityStore) SaveAsset(ctx context.Context, asset domain.VisualAsset) error {
	if asset.ID == "" || !asset.Owner.IsValid() {
		return fmt.Errorf("%w: asset needs id and owner", domain.ErrInvalidInput)
	}
	if asset.UpdatedAt.IsZero() {
		asset.UpdatedAt = time.Now().UTC()
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO assets (id, owner, parent_collection, name, content_type, description, asset_url, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			owner = excluded.owner,
			parent_collection = excluded.parent_collection,
			name = excluded.name,
			content_type = excluded.content_type,
			description = excluded.description,
			asset_url = excluded.asset_url,
			updated_at = excluded.updated_at
	`, asset.ID, string(asset.Owner), asset.ParentCollection, asset.Name, asset.ContentType,
		asset.Description, asset.AssetURL, asset.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving asset: %w", err)
	}
	return nil
}

// LoadWorkspace returns the entities and assets of owner.
func (s *entityStore) LoadWorkspace(ctx context.Context, owner domain.Owner) (*domain.Workspace, error) {
	entities, err := s.ListEntities(ctx, owner)
	if err != nil {
		return nil, err
	}
	assets, err := s.ListAssets(ctx, owner)
	if err != nil {
		return nil, err
	}
	return &domain.Workspace{Entities: entities, Assets: assets}, nil
}

// ListEntities returns projects then tasks of owner, each ordered by id.
func (s *entityStore) ListEntities(ctx context.Context, owner domain.Owner) ([]domain.StructuredEntity, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, owner, kind, title, description, status, priority, due_date, project_id, created_at
		FROM entities WHERE owner = ?
		ORDER BY CASE kind WHEN 'project' THEN 0 ELSE 1 END, id
	`, string(owner))
	if err != nil {
		return nil, fmt.Errorf("querying entities: %w", err)
	}
	defer rows.Close()

	var entities []domain.StructuredEntity //nolint:prealloc // size unknown from query
	for rows.Next() {
		var (
			e         domain.StructuredEntity
			ownerStr  string
			kind      string
			due       sql.NullTime
			createdAt sql.NullTime
		)
		if err := rows.Scan(&e.ID, &ownerStr, &kind, &e.Title, &e.Description,
			&e.Status, &e.Priority, &due, &e.ProjectID, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning entity: %w", err)
		}
		e.Owner = domain.Owner(ownerStr)
		e.Kind = domain.EntityKind(kind)
		if due.Valid {
			d := due.Time
			e.DueDate = &d
		}
		if createdAt.Valid {
			e.CreatedAt = createdAt.Time
		}
		entities = append(entities, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entities: %w", err)
	}
	return entities, nil
}

// ListAssets returns the assets of owner ordered by id.
func (s *entityStore) ListAssets(ctx context.Context, owner domain.Owner) ([]domain.VisualAsset, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, owner, parent_collection, name, content_type, description, asset_url, updated_at
		FROM assets WHERE owner = ? ORDER BY id
	`, string(owner))
	if err != nil {
		return nil, fmt.Errorf("querying assets: %w", err)
	}
	defer rows.Close()

	var assets []domain.VisualAsset //nolint:prealloc // size unknown from query
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating assets: %w", err)
	}
	return assets, nil
}

// GetAsset returns one asset of owner, or domain.ErrNotFound.
func (s *entityStore) GetAsset(ctx context.Context, owner domain.Owner, id string) (*domain.VisualAsset, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, owner, parent_collection, name, content_type, description, asset_url, updated_at
		FROM assets WHERE owner = ? AND id = ?
	`, string(owner), id)

	a, err := scanAsset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return a, err
}

// Ping checks the underlying connection.
func (s *entityStore) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Close is a no-op; the owning Store holds the connection.
func (s *entityStore) Close() error {
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAsset(row rowScanner) (*domain.VisualAsset, error) {
	var (
		a         domain.VisualAsset
		ownerStr  string
		updatedAt sql.NullTime
	)
	if err := row.Scan(&a.ID, &ownerStr, &a.ParentCollection, &a.Name, &a.ContentType,
		&a.Description, &a.AssetURL, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning asset: %w", err)
	}
	a.Owner = domain.Owner(ownerStr)
	if updatedAt.Valid {
		a.UpdatedAt = updatedAt.Time
	}
	return &a, nil
}
