package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/canvasrag/internal/core/domain"
)

// workspaceFile is the import format for local workspaces.
type workspaceFile struct {
	Projects []struct {
		ID        string    `json:"id"`
		Title     string    `json:"title"`
		CreatedAt time.Time `json:"created_at"`
	} `json:"projects"`
	Todos []struct {
		ID          string     `json:"id"`
		Title       string     `json:"title"`
		Description string     `json:"description"`
		Status      string     `json:"status"`
		Priority    string     `json:"priority"`
		DueDate     *time.Time `json:"due_date"`
		ProjectID   string     `json:"project_id"`
		CreatedAt   time.Time  `json:"created_at"`
	} `json:"todos"`
	Slides []struct {
		ID          string    `json:"id"`
		ProjectID   string    `json:"project_id"`
		Name        string    `json:"name"`
		ContentType string    `json:"content_type"`
		Description string    `json:"description"`
		URL         string    `json:"screenshot_url"`
		UpdatedAt   time.Time `json:"updated_at"`
	} `json:"slides"`
}

var importThenIndex bool

var entitiesCmd = &cobra.Command{
	Use:   "entities",
	Short: "Manage the local workspace store",
	Long: `Inspect and seed the workspace data held in the local SQLite or
memory entity store. Workspaces kept in Postgres are read-only.`,
}

var entitiesImportCmd = &cobra.Command{
	Use:   "import <file.json>",
	Short: "Import projects, todos and slides from a JSON file",
	Long: `Imports a workspace file of the form:

  {
    "projects": [{"id": "p1", "title": "Launch Plan"}],
    "todos":    [{"id": "t1", "title": "Write brief", "status": "pending",
                  "priority": "high", "due_date": "2026-01-31T00:00:00Z",
                  "project_id": "p1"}],
    "slides":   [{"id": "s1", "project_id": "p1", "name": "Roadmap",
                  "content_type": "timeline", "description": "Q1 milestones",
                  "screenshot_url": "https://..."}]
  }

Every row is stored under --owner. Rows with an existing id are replaced.`,
	Args: cobra.ExactArgs(1),
	RunE: runEntitiesImport,
}

var entitiesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List an owner's projects, todos and slides",
	Args:  cobra.NoArgs,
	RunE:  runEntitiesList,
}

func init() {
	entitiesImportCmd.Flags().BoolVar(&importThenIndex, "index", false, "index the owner after importing")
	entitiesCmd.AddCommand(entitiesImportCmd)
	entitiesCmd.AddCommand(entitiesListCmd)
	rootCmd.AddCommand(entitiesCmd)
}

func runEntitiesImport(cmd *cobra.Command, args []string) error {
	if writableStore == nil {
		return errors.New("entity store is read-only or not configured")
	}
	owner, err := requireOwner()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading workspace file: %w", err)
	}
	var file workspaceFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing workspace file: %w", err)
	}

	ctx := cmd.Context()
	for _, p := range file.Projects {
		err := writableStore.SaveEntity(ctx, domain.StructuredEntity{
			ID: p.ID, Owner: owner, Kind: domain.EntityKindProject, Title: p.Title, CreatedAt: p.CreatedAt,
		})
		if err != nil {
			return fmt.Errorf("saving project %s: %w", p.ID, err)
		}
	}
	for _, t := range file.Todos {
		status := t.Status
		if status == "" {
			status = "pending"
		}
		priority := t.Priority
		if priority == "" {
			priority = "medium"
		}
		err := writableStore.SaveEntity(ctx, domain.StructuredEntity{
			ID: t.ID, Owner: owner, Kind: domain.EntityKindTask, Title: t.Title,
			Description: t.Description, Status: status, Priority: priority,
			DueDate: t.DueDate, ProjectID: t.ProjectID, CreatedAt: t.CreatedAt,
		})
		if err != nil {
			return fmt.Errorf("saving todo %s: %w", t.ID, err)
		}
	}
	for _, s := range file.Slides {
		err := writableStore.SaveAsset(ctx, domain.VisualAsset{
			ID: s.ID, Owner: owner, ParentCollection: s.ProjectID, Name: s.Name,
			ContentType: s.ContentType, Description: s.Description, AssetURL: s.URL, UpdatedAt: s.UpdatedAt,
		})
		if err != nil {
			return fmt.Errorf("saving slide %s: %w", s.ID, err)
		}
	}

	cmd.Printf("Imported %d projects, %d todos, %d slides for %s\n",
		len(file.Projects), len(file.Todos), len(file.Slides), owner)

	if !importThenIndex {
		return nil
	}
	if indexService == nil {
		return errors.New("index service not configured")
	}
	report, err := indexService.IndexOwner(ctx, owner)
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}
	cmd.Println(report.Message)
	return nil
}

func runEntitiesList(cmd *cobra.Command, _ []string) error {
	if entityStore == nil {
		return errors.New("entity store not configured")
	}
	owner, err := requireOwner()
	if err != nil {
		return err
	}

	ws, err := entityStore.LoadWorkspace(cmd.Context(), owner)
	if err != nil {
		return fmt.Errorf("loading workspace: %w", err)
	}

	cmd.Printf("Projects (%d)\n", len(ws.Projects()))
	for _, p := range ws.Projects() {
		cmd.Printf("  %s  %s\n", p.ID, p.Title)
	}
	cmd.Printf("Todos (%d)\n", len(ws.Tasks()))
	for _, t := range ws.Tasks() {
		due := ""
		if t.DueDate != nil {
			due = " due " + t.DueDate.Format("2006-01-02")
		}
		cmd.Printf("  %s  %s [%s, %s]%s\n", t.ID, t.Title, t.Status, t.Priority, due)
	}
	cmd.Printf("Slides (%d)\n", len(ws.Assets))
	for _, s := range ws.Assets {
		marker := ""
		if !s.HasDescription() {
			marker = " (no description)"
		}
		cmd.Printf("  %s  %s%s\n", s.ID, s.Name, marker)
	}
	return nil
}
