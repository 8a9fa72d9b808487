package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var contextJSON bool

var contextCmd = &cobra.Command{
	Use:   "context [query]",
	Short: "Show the slides retrieved for a query",
	Long: `Embeds the raw query and prints the ranked slides and the semantic
context block that would be sent to the model. No answer is generated.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runContext,
}

func init() {
	contextCmd.Flags().BoolVar(&contextJSON, "json", false, "output the report as JSON")
	rootCmd.AddCommand(contextCmd)
}

func runContext(cmd *cobra.Command, args []string) error {
	if contextService == nil {
		return errors.New("context service not configured")
	}
	owner, err := requireOwner()
	if err != nil {
		return err
	}

	report, err := contextService.Query(cmd.Context(), owner, strings.Join(args, " "))
	if err != nil {
		return fmt.Errorf("context query failed: %w", err)
	}
	if contextJSON {
		return printJSON(cmd, report)
	}

	if !report.Success {
		cmd.Println("Warning: embedding failed, no slides were retrieved.")
	}
	if len(report.Documents) == 0 {
		cmd.Println("No slides found.")
		return nil
	}

	cmd.Println("Slides:")
	cmd.Println()
	for i, doc := range report.Documents {
		cmd.Printf("  [%d] %s (%.2f)\n", i+1, doc.Metadata.Name, doc.Similarity)
		if doc.Metadata.ParentCollection != "" {
			cmd.Printf("      Project: %s\n", doc.Metadata.ParentCollection)
		}
	}
	cmd.Println()
	cmd.Println("Context:")
	cmd.Println(report.Context)
	return nil
}
