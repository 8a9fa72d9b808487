// Package storage opens the embedding index and entity store selected by
// the storage settings.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/custodia-labs/canvasrag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/canvasrag/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/canvasrag/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/canvasrag/internal/core/domain"
	"github.com/custodia-labs/canvasrag/internal/core/ports/driven"
)

// Stores holds the opened backends.
type Stores struct {
	Index    driven.EmbeddingIndex
	Entities driven.EntityStore

	// Writable is nil when the entity backend is owned by another system.
	Writable driven.WritableEntityStore

	closers []io.Closer
}

// Open opens the backends named in settings. The SQLite database is
// shared when both the index and the entity store use it.
func Open(ctx context.Context, settings domain.StorageSettings) (*Stores, error) {
	s := &Stores{}

	var db *sqlite.Store
	sqliteStore := func() (*sqlite.Store, error) {
		if db != nil {
			return db, nil
		}
		var err error
		if db, err = sqlite.NewStore(settings.DataDir); err != nil {
			return nil, err
		}
		s.closers = append(s.closers, db)
		return db, nil
	}

	switch settings.Index {
	case domain.IndexBackendSQLite, "":
		store, err := sqliteStore()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrIndexUnavailable, err)
		}
		s.Index = store.EmbeddingIndex()
	case domain.IndexBackendMemory:
		s.Index = memory.NewEmbeddingIndex()
	default:
		return nil, fmt.Errorf("%w: index backend %s", domain.ErrUnsupportedType, settings.Index)
	}

	switch settings.Entities {
	case domain.EntityBackendSQLite, "":
		store, err := sqliteStore()
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("%w: %w", domain.ErrEntityStoreUnavailable, err)
		}
		s.Writable = store.EntityStore()
		s.Entities = s.Writable
	case domain.EntityBackendMemory:
		s.Writable = memory.NewEntityStore()
		s.Entities = s.Writable
	case domain.EntityBackendPostgres:
		pg, err := postgres.Open(ctx, settings.EntitiesDSN)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.closers = append(s.closers, pg)
		s.Entities = pg
	default:
		s.Close()
		return nil, fmt.Errorf("%w: entity backend %s", domain.ErrUnsupportedType, settings.Entities)
	}

	return s, nil
}

// Close closes every opened backend.
func (s *Stores) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i].Close())
	}
	s.closers = nil
	return errors.Join(errs...)
}
