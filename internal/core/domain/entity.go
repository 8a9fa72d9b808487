package domain

import (
	"strings"
	"time"
)

// Owner identifies the principal that scopes all stored and retrieved data.
// Every entity, asset and index entry belongs to exactly one Owner.
type Owner string

// String returns the string representation.
func (o Owner) String() string {
	return string(o)
}

// IsValid returns true if the owner identifier is non-blank.
func (o Owner) IsValid() bool {
	return strings.TrimSpace(string(o)) != ""
}

// EntityKind identifies the type of a structured entity.
type EntityKind string

// Available structured entity kinds.
const (
	// EntityKindProject is a top-level workspace project.
	EntityKindProject EntityKind = "project"

	// EntityKindTask is a todo item, optionally attached to a project.
	EntityKindTask EntityKind = "task"
)

// IsValid returns true if the entity kind is recognised.
func (k EntityKind) IsValid() bool {
	return k == EntityKindProject || k == EntityKindTask
}

// String returns the string representation.
func (k EntityKind) String() string {
	return string(k)
}

// StructuredEntity is a project or task row owned by an external system.
// It is read-only to the pipeline and is sent to generation verbatim
// instead of being embedded.
type StructuredEntity struct {
	// ID is the entity identifier in the external store.
	ID string

	// Owner is the principal the entity belongs to.
	Owner Owner

	// Kind is project or task.
	Kind EntityKind

	// Title is the display name.
	Title string

	// Description is optional free text (tasks).
	Description string

	// Status is the task status (e.g. pending, done). Empty for projects.
	Status string

	// Priority is the task priority (e.g. low, medium, high). Empty for projects.
	Priority string

	// DueDate is the optional task deadline.
	DueDate *time.Time

	// ProjectID links a task to its project, when set.
	ProjectID string

	// CreatedAt is when the entity was created.
	CreatedAt time.Time
}

// VisualAsset is a canvas or slide whose textual summary is embedded.
type VisualAsset struct {
	// ID is the asset identifier in the external store.
	ID string

	// Owner is the principal the asset belongs to.
	Owner Owner

	// ParentCollection is the optional project the asset belongs to.
	ParentCollection string

	// Name is the display name.
	Name string

	// ContentType is the summarizer's classification (flowchart, notes, ...).
	ContentType string

	// Description is the summarizer's output. Empty means "content exists, no summary".
	Description string

	// AssetURL locates the rendered screenshot, if any.
	AssetURL string

	// UpdatedAt is when the asset last changed.
	UpdatedAt time.Time
}

// HasDescription reports whether a summary is available.
func (a VisualAsset) HasDescription() bool {
	return strings.TrimSpace(a.Description) != ""
}

// Workspace is everything the entity store holds for one owner.
type Workspace struct {
	Entities []StructuredEntity
	Assets   []VisualAsset
}

// Projects returns the project entities in store order.
func (w Workspace) Projects() []StructuredEntity {
	return w.byKind(EntityKindProject)
}

// Tasks returns the task entities in store order.
func (w Workspace) Tasks() []StructuredEntity {
	return w.byKind(EntityKindTask)
}

func (w Workspace) byKind(kind EntityKind) []StructuredEntity {
	var out []StructuredEntity
	for i := range w.Entities {
		if w.Entities[i].Kind == kind {
			out = append(out, w.Entities[i])
		}
	}
	return out
}
