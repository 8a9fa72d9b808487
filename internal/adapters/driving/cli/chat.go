package cli

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/canvasrag/internal/adapters/driving/tui"
)

var chatProject string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Launch the interactive chat",
	Long: `Launch the interactive terminal chat for an owner's workspace.

Answers stream in as they are generated. Earlier turns are sent as history
with each new question.

Controls:
  enter      - Send
  ctrl+x     - Stop the current answer
  ctrl+n     - New conversation
  pgup/pgdn  - Scroll
  esc        - Menu
  ctrl+c     - Quit`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatProject, "project", "p", "", "limit retrieval to one project")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	if chatService == nil {
		return errors.New("chat service not configured")
	}
	owner, err := requireOwner()
	if err != nil {
		return err
	}

	app, err := tui.NewApp(&tui.Ports{
		Chat:    chatService,
		Context: contextService,
		Owner:   owner,
		Project: chatProject,
	})
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}

	if err := app.WithContext(cmd.Context()).Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
