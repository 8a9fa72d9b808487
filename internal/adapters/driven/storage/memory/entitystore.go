package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/canvasrag/internal/core/domain"
	"github.com/custodia-labs/canvasrag/internal/core/ports/driven"
)

// Ensure EntityStore implements the interface.
var _ driven.WritableEntityStore = (*EntityStore)(nil)

// EntityStore is an in-memory implementation of driven.WritableEntityStore.
type EntityStore struct {
	mu       sync.RWMutex
	entities map[string]domain.StructuredEntity
	assets   map[string]domain.VisualAsset
}

// NewEntityStore creates an empty entity store.
func NewEntityStore() *EntityStore {
	return &EntityStore{
		entities: make(map[string]domain.StructuredEntity),
		assets:   make(map[string]domain.VisualAsset),
	}
}

// SaveEntity creates or updates a structured entity.
func (s *EntityStore) SaveEntity(_ context.Context, entity domain.StructuredEntity) error {
	if entity.ID == "" || !entity.Owner.IsValid() || !entity.Kind.IsValid() {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entities[entity.ID] = entity
	return nil
}

// SaveAsset creates or updates a visual asset.
func (s *EntityStore) SaveAsset(_ context.Context, asset domain.VisualAsset) error {
	if asset.ID == "" || !asset.Owner.IsValid() {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assets[asset.ID] = asset
	return nil
}

// LoadWorkspace returns the entities and assets of owner.
func (s *EntityStore) LoadWorkspace(ctx context.Context, owner domain.Owner) (*domain.Workspace, error) {
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
func (s *EntityStore) ListEntities(_ context.Context, owner domain.Owner) ([]domain.StructuredEntity, error) {
	s.mu.RLock()
	var result []domain.StructuredEntity
	for id := range s.entities {
		if s.entities[id].Owner == owner {
			result = append(result, s.entities[id])
		}
	}
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if result[i].Kind != result[j].Kind {
			return result[i].Kind == domain.EntityKindProject
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// ListAssets returns the assets of owner ordered by id.
func (s *EntityStore) ListAssets(_ context.Context, owner domain.Owner) ([]domain.VisualAsset, error) {
	s.mu.RLock()
	var result []domain.VisualAsset
	for id := range s.assets {
		if s.assets[id].Owner == owner {
			result = append(result, s.assets[id])
		}
	}
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// GetAsset returns one asset of owner.
func (s *EntityStore) GetAsset(_ context.Context, owner domain.Owner, id string) (*domain.VisualAsset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	asset, ok := s.assets[id]
	if !ok || asset.Owner != owner {
		return nil, domain.ErrNotFound
	}
	return &asset, nil
}

// Ping always succeeds.
func (s *EntityStore) Ping(_ context.Context) error {
	return nil
}

// Close is a no-op.
func (s *EntityStore) Close() error {
	return nil
}
