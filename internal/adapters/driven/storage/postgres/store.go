// Package postgres reads structured entities and visual assets from the
// workspace database (projects, slides and todos tables).
//
// The store is read-only: the workspace application owns these rows.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/custodia-labs/canvasrag/internal/core/domain"
	"github.com/custodia-labs/canvasrag/internal/core/ports/driven"
)

// Ensure EntityStore implements the interface.
var _ driven.EntityStore = (*EntityStore)(nil)

const (
	selectProjects = `
		SELECT id::text AS id, COALESCE(title, '') AS title, created_at
		FROM projects
		WHERE user_id::text = $1
		ORDER BY created_at, id`

	selectTodos = `
		SELECT id::text AS id, COALESCE(title, '') AS title, COALESCE(description, '') AS description,
		       COALESCE(status, 'pending') AS status, COALESCE(priority, 'medium') AS priority,
		       due_date, created_at
		FROM todos
		WHERE user_id::text = $1
		ORDER BY created_at, id`

	selectSlides = `
		SELECT s.id::text AS id, s.project_id::text AS project_id, COALESCE(s.name, '') AS name,
		       COALESCE(s.content_type, '') AS content_type, COALESCE(s.description, '') AS description,
		       COALESCE(s.screenshot_url, '') AS screenshot_url, s.updated_at
		FROM slides s
		JOIN projects p ON p.id = s.project_id
		WHERE p.user_id::text = $1`
)

// undefinedTable is the SQLSTATE for a missing relation.
const undefinedTable = "42P01"

type projectRow struct {
	ID        string       `db:"id"`
	Title     string       `db:"title"`
	CreatedAt sql.NullTime `db:"created_at"`
}

type todoRow struct {
	ID          string       `db:"id"`
	Title       string       `db:"title"`
	Description string       `db:"description"`
	Status      string       `db:"status"`
	Priority    string       `db:"priority"`
	DueDate     sql.NullTime `db:"due_date"`
	CreatedAt   sql.NullTime `db:"created_at"`
}

type slideRow struct {
	ID            string       `db:"id"`
	ProjectID     string       `db:"project_id"`
	Name          string       `db:"name"`
	ContentType   string       `db:"content_type"`
	Description   string       `db:"description"`
	ScreenshotURL string       `db:"screenshot_url"`
	UpdatedAt     sql.NullTime `db:"updated_at"`
}

// EntityStore is a read-only driven.EntityStore over PostgreSQL.
type EntityStore struct {
	db *sqlx.DB
}

// Open connects to dsn with the lib/pq driver and verifies the connection.
func Open(ctx context.Context, dsn string) (*EntityStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: postgres entity store needs a DSN", domain.ErrInvalidInput)
	}
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEntityStoreUnavailable, err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return New(db), nil
}

// New wraps an existing connection.
func New(db *sqlx.DB) *EntityStore {
	return &EntityStore{db: db}
}

// LoadWorkspace returns the projects, todos and slides of owner.
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

// ListEntities returns projects then todos of owner.
func (s *EntityStore) ListEntities(ctx context.Context, owner domain.Owner) ([]domain.StructuredEntity, error) {
	var projects []projectRow
	if err := s.db.SelectContext(ctx, &projects, selectProjects, string(owner)); err != nil {
		return nil, wrap("listing projects", err)
	}
	var todos []todoRow
	if err := s.db.SelectContext(ctx, &todos, selectTodos, string(owner)); err != nil {
		return nil, wrap("listing todos", err)
	}

	entities := make([]domain.StructuredEntity, 0, len(projects)+len(todos))
	for _, p := range projects {
		entities = append(entities, domain.StructuredEntity{
			ID:        p.ID,
			Owner:     owner,
			Kind:      domain.EntityKindProject,
			Title:     p.Title,
			CreatedAt: p.CreatedAt.Time,
		})
	}
	for _, t := range todos {
		e := domain.StructuredEntity{
			ID:          t.ID,
			Owner:       owner,
			Kind:        domain.EntityKindTask,
			Title:       t.Title,
			Description: t.Description,
			Status:      t.Status,
			Priority:    t.Priority,
			CreatedAt:   t.CreatedAt.Time,
		}
		if t.DueDate.Valid {
			due := t.DueDate.Time
			e.DueDate = &due
		}
		entities = append(entities, e)
	}
	return entities, nil
}

// ListAssets returns the slides in owner's projects ordered by id.
func (s *EntityStore) ListAssets(ctx context.Context, owner domain.Owner) ([]domain.VisualAsset, error) {
	var rows []slideRow
	if err := s.db.SelectContext(ctx, &rows, selectSlides+" ORDER BY s.id", string(owner)); err != nil {
		return nil, wrap("listing slides", err)
	}
	assets := make([]domain.VisualAsset, len(rows))
	for i := range rows {
		assets[i] = rows[i].asset(owner)
	}
	return assets, nil
}

// GetAsset returns one slide of owner, or domain.ErrNotFound.
func (s *EntityStore) GetAsset(ctx context.Context, owner domain.Owner, id string) (*domain.VisualAsset, error) {
	var row slideRow
	err := s.db.GetContext(ctx, &row, selectSlides+" AND s.id::text = $2", string(owner), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, wrap("getting slide", err)
	}
	asset := row.asset(owner)
	return &asset, nil
}

// Ping checks the connection.
func (s *EntityStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrEntityStoreUnavailable, err)
	}
	return nil
}

// Close closes the connection pool.
func (s *EntityStore) Close() error {
	return s.db.Close()
}

func (r slideRow) asset(owner domain.Owner) domain.VisualAsset {
	return domain.VisualAsset{
		ID:               r.ID,
		Owner:            owner,
		ParentCollection: r.ProjectID,
		Name:             r.Name,
		ContentType:      r.ContentType,
		Description:      r.Description,
		AssetURL:         r.ScreenshotURL,
		UpdatedAt:        r.UpdatedAt.Time,
	}
}

func wrap(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == undefinedTable {
		return fmt.Errorf("%s: %w: %s", op, domain.ErrEntityStoreUnavailable, pqErr.Message)
	}
	return fmt.Errorf("%s: %w", op, err)
}
