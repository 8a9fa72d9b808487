package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/canvasrag/internal/core/domain"
	"github.com/custodia-labs/canvasrag/internal/core/ports/driven"
)

const dateLayout = "2006-01-02"

// DirectContext is the rendered structured data of one owner together
// with the entities it was rendered from.
type DirectContext struct {
	Text     string
	Entities []domain.StructuredEntity
}

// DirectContextFetcher renders an owner's projects and tasks as text.
// Structured entities are small, so they are sent to generation whole
// instead of being embedded and ranked.
type DirectContextFetcher struct {
	store driven.EntityStore
}

// NewDirectContextFetcher creates a fetcher over store.
func NewDirectContextFetcher(store driven.EntityStore) *DirectContextFetcher {
	return &DirectContextFetcher{store: store}
}

// Fetch returns the rendered entities of owner, or "" when there are none.
func (f *DirectContextFetcher) Fetch(ctx context.Context, owner domain.Owner) (string, error) {
	dc, err := f.Load(ctx, owner)
	if err != nil {
		return "", err
	}
	return dc.Text, nil
}

// Load fetches and renders the entities of owner.
func (f *DirectContextFetcher) Load(ctx context.Context, owner domain.Owner) (*DirectContext, error) {
	if f.store == nil {
		return nil, domain.ErrEntityStoreUnavailable
	}
	entities, err := f.store.ListEntities(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}

	// Rows of other owners never reach the prompt.
	scoped := entities[:0:0]
	for i := range entities {
		if entities[i].Owner == owner {
			scoped = append(scoped, entities[i])
		}
	}

	return &DirectContext{Text: RenderEntities(scoped), Entities: scoped}, nil
}

// RenderEntities renders projects then tasks into labeled sections.
// Within a section entities are ordered by creation time then id, and each
// entity is rendered with a fixed field order, so the output is stable.
func RenderEntities(entities []domain.StructuredEntity) string {
	var projects, tasks []domain.StructuredEntity
	for i := range entities {
		switch entities[i].Kind {
		case domain.EntityKindProject:
			projects = append(projects, entities[i])
		case domain.EntityKindTask:
			tasks = append(tasks, entities[i])
		}
	}
	sortEntities(projects)
	sortEntities(tasks)

	var sections []string
	if len(projects) > 0 {
		var b strings.Builder
		fmt.Fprintf(&b, "USER'S PROJECTS (%d):\n", len(projects))
		for i := range projects {
			b.WriteString("\n")
			writeProject(&b, &projects[i])
		}
		sections = append(sections, strings.TrimRight(b.String(), "\n"))
	}
	if len(tasks) > 0 {
		var b strings.Builder
		fmt.Fprintf(&b, "USER'S TODOS (%d):\n", len(tasks))
		for i := range tasks {
			b.WriteString("\n")
			writeTask(&b, &tasks[i])
		}
		sections = append(sections, strings.TrimRight(b.String(), "\n"))
	}

	return strings.Join(sections, "\n\n")
}

func writeProject(b *strings.Builder, p *domain.StructuredEntity) {
	fmt.Fprintf(b, "Project: %s\n", orDefault(p.Title, "Untitled"))
	fmt.Fprintf(b, "Created: %s\n", formatDate(p.CreatedAt))
	fmt.Fprintf(b, "Project ID: %s\n", p.ID)
}

func writeTask(b *strings.Builder, t *domain.StructuredEntity) {
	fmt.Fprintf(b, "Todo: %s\n", orDefault(t.Title, "Untitled Todo"))
	if d := strings.TrimSpace(t.Description); d != "" {
		fmt.Fprintf(b, "Description: %s\n", d)
	}
	fmt.Fprintf(b, "Priority: %s\n", orDefault(t.Priority, "medium"))
	fmt.Fprintf(b, "Status: %s\n", orDefault(t.Status, "pending"))
	if t.DueDate != nil {
		fmt.Fprintf(b, "Due Date: %s\n", t.DueDate.Format(dateLayout))
	}
	if t.ProjectID != "" {
		fmt.Fprintf(b, "Project ID: %s\n", t.ProjectID)
	}
	fmt.Fprintf(b, "Created: %s\n", formatDate(t.CreatedAt))
}

func sortEntities(es []domain.StructuredEntity) {
	sort.SliceStable(es, func(i, j int) bool {
		if !es[i].CreatedAt.Equal(es[j].CreatedAt) {
			return es[i].CreatedAt.Before(es[j].CreatedAt)
		}
		return es[i].ID < es[j].ID
	})
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "Unknown"
	}
	return t.Format(dateLayout)
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s == "" {
		return def
	}
	return s
}
