package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/canvasrag/internal/core/domain"
)

var (
	askProject string
	askJSON    bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about a workspace",
	Long: `Runs one chat turn: the question is optimized, direct and semantic
context is assembled, screenshots are attached for visual questions and the
answer is streamed to stdout.

Use --json to wait for the whole answer and print it as JSON.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askProject, "project", "p", "", "restrict slide retrieval to one project id")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print the complete answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if chatService == nil {
		return errors.New("chat service not configured")
	}
	owner, err := requireOwner()
	if err != nil {
		return err
	}

	req := domain.ChatRequest{
		Owner:         owner,
		Query:         strings.Join(args, " "),
		SubCollection: askProject,
	}

	if askJSON {
		answer, err := chatService.Answer(cmd.Context(), req)
		if err != nil {
			return fmt.Errorf("chat failed: %w", err)
		}
		return printJSON(cmd, answer)
	}

	return printStream(cmd, chatService.Chat(cmd.Context(), req))
}

// printStream writes chunks as they arrive. An error event fails the command
// after the chunks that preceded it were shown.
func printStream(cmd *cobra.Command, events iter.Seq[domain.StreamEvent]) error {
	out := cmd.OutOrStdout()
	for ev := range events {
		switch ev.Kind {
		case domain.StreamChunk:
			fmt.Fprint(out, ev.Text)
		case domain.StreamDone:
			fmt.Fprintln(out)
		case domain.StreamError:
			fmt.Fprintln(out)
			return fmt.Errorf("response failed: %s", ev.Text)
		}
	}
	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
