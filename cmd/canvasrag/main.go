// Command canvasrag answers questions about a workspace of projects, todos
// and slides.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/canvasrag/internal/adapters/driving/cli"
	"github.com/custodia-labs/canvasrag/internal/app"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	settingsService, err := app.NewSettingsService(os.Getenv("CANVASRAG_CONFIG_DIR"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	var cleanup func()
	defer func() {
		if cleanup != nil {
			cleanup()
		}
	}()

	cli.SetVersion(version)
	cli.SetSettingsService(settingsService)
	cli.SetBootstrap(func(ctx context.Context) (*cli.Services, error) {
		svc, closeFn, err := app.Build(ctx, settingsService, app.Options{
			PromptDir: os.Getenv("CANVASRAG_PROMPT_DIR"),
		})
		cleanup = closeFn
		return svc, err
	})

	if err := cli.Execute(ctx); err != nil {
		return 1
	}
	return 0
}
