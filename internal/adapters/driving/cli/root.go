// Package cli provides the canvasrag command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/canvasrag/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/canvasrag/internal/core/domain"
	"github.com/custodia-labs/canvasrag/internal/core/ports/driven"
	"github.com/custodia-labs/canvasrag/internal/core/ports/driving"
	"github.com/custodia-labs/canvasrag/internal/logger"
)

// OwnerEnv supplies the default --owner value.
const OwnerEnv = "CANVASRAG_OWNER"

// skipServices marks commands that run without the pipeline services.
const skipServices = "canvasrag/skip-services"

var version = "dev"

// Services wired by the composition root.
var (
	chatService     driving.ChatService
	indexService    driving.IndexService
	analysisService driving.AnalysisService
	contextService  driving.ContextService
	settingsService driving.SettingsService
	entityStore     driven.EntityStore
	writableStore   driven.WritableEntityStore
	serveDeps       ServeDeps
)

// PromptWatcher reloads prompt templates while a server runs.
type PromptWatcher interface {
	Watch(ctx context.Context) error
}

// ServeDeps are the extras only long-running commands need.
type ServeDeps struct {
	Server  domain.ServerSettings
	Probes  []httpapi.Probe
	Metrics http.Handler
	Prompts PromptWatcher

	// Scheduler re-indexes owners while the server runs. Nil when disabled.
	Scheduler driving.Scheduler
}

// Services holds everything the pipeline commands run against.
type Services struct {
	Chat     driving.ChatService
	Index    driving.IndexService
	Analysis driving.AnalysisService
	Context  driving.ContextService

	Entities driven.EntityStore

	// Writable is nil when entities live in an external store.
	Writable driven.WritableEntityStore

	Serve ServeDeps
}

// Bootstrap builds the services the first time a command needs them.
type Bootstrap func(ctx context.Context) (*Services, error)

var bootstrap Bootstrap

var (
	ownerFlag   string
	verboseFlag bool
	eventsFlag  bool
)

var rootCmd = &cobra.Command{
	Use:   "canvasrag",
	Short: "Retrieval-augmented chat over your projects, todos and slides",
	Long: `canvasrag answers questions about a workspace of projects, todos and
visual slides. Structured rows are sent to the model directly, slides are
retrieved by embedding similarity, and screenshots are attached when the
question is visual.`,
	SilenceUsage:      true,
	PersistentPreRunE: prepare,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&ownerFlag, "owner", "o", os.Getenv(OwnerEnv),
		"workspace owner id (defaults to $"+OwnerEnv+")")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&eventsFlag, "events", false, "log pipeline events")
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// SetSettingsService sets the settings service. It is available to every
// command, including those that skip the pipeline services.
func SetSettingsService(s driving.SettingsService) {
	settingsService = s
}

// SetBootstrap registers the lazy service builder.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// SetServices installs already built services.
func SetServices(s *Services) {
	if s == nil {
		return
	}
	chatService = s.Chat
	indexService = s.Index
	analysisService = s.Analysis
	contextService = s.Context
	entityStore = s.Entities
	writableStore = s.Writable
	serveDeps = s.Serve
}

func prepare(cmd *cobra.Command, _ []string) error {
	if verboseFlag {
		logger.SetVerbose(true)
	}
	if eventsFlag {
		logger.SetEvents(true)
	}

	if bootstrap == nil || skipsServices(cmd) {
		return nil
	}
	svc, err := bootstrap(cmd.Context())
	if err != nil {
		return fmt.Errorf("initialising services: %w", err)
	}
	bootstrap = nil
	SetServices(svc)
	return nil
}

func skipsServices(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[skipServices] == "true" {
			return true
		}
	}
	return false
}

func noServices() map[string]string {
	return map[string]string{skipServices: "true"}
}

// requireOwner returns the --owner value or an error.
func requireOwner() (domain.Owner, error) {
	owner := domain.Owner(strings.TrimSpace(ownerFlag))
	if !owner.IsValid() {
		return "", errors.New("owner is required: pass --owner or set " + OwnerEnv)
	}
	return owner, nil
}
