package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	indexAsset string
	indexJSON  bool
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Embed a workspace's slides",
	Long: `Re-embeds every slide of the owner into the embedding index.
Projects and todos are counted but not embedded; they are sent to the model
directly at question time. Re-running is safe.

Use --asset to re-embed a single slide after it changed.`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().StringVar(&indexAsset, "asset", "", "re-index a single slide id")
	indexCmd.Flags().BoolVar(&indexJSON, "json", false, "output the report as JSON")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}
	owner, err := requireOwner()
	if err != nil {
		return err
	}

	if indexAsset != "" {
		if err := indexService.IndexAsset(cmd.Context(), owner, indexAsset); err != nil {
			return fmt.Errorf("indexing %s: %w", indexAsset, err)
		}
		cmd.Printf("Indexed slide %s\n", indexAsset)
		return nil
	}

	report, err := indexService.IndexOwner(cmd.Context(), owner)
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}
	if indexJSON {
		return printJSON(cmd, report)
	}

	cmd.Println(report.Message)
	cmd.Printf("  Indexed:  %d\n", report.IndexedCount)
	cmd.Printf("  Skipped:  %d\n", report.SkippedCount)
	cmd.Printf("  Projects: %d, Slides: %d, Todos: %d\n",
		report.Breakdown.Projects, report.Breakdown.Assets, report.Breakdown.Tasks)
	return nil
}
