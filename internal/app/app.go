// Package app is the composition root. It opens the configured backends,
// builds the pipeline services and hands them to the command layer.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/canvasrag/internal/adapters/driven/ai"
	"github.com/custodia-labs/canvasrag/internal/adapters/driven/config/file"
	"github.com/custodia-labs/canvasrag/internal/adapters/driven/metrics/prometheus"
	"github.com/custodia-labs/canvasrag/internal/adapters/driven/storage"
	"github.com/custodia-labs/canvasrag/internal/adapters/driving/cli"
	"github.com/custodia-labs/canvasrag/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/canvasrag/internal/core/domain"
	"github.com/custodia-labs/canvasrag/internal/core/ports/driven"
	"github.com/custodia-labs/canvasrag/internal/core/ports/driving"
	"github.com/custodia-labs/canvasrag/internal/core/services"
	"github.com/custodia-labs/canvasrag/internal/logger"
)

// healthOwner is the owner counted by the index probe. It never has records.
const healthOwner domain.Owner = "_health"

// Options adjusts where the composition root reads its files from.
type Options struct {
	// PromptDir overrides ~/.canvasrag/prompts.
	PromptDir string

	// Metrics receives pipeline events. Nil creates a fresh sink.
	Metrics *prometheus.Sink
}

// NewSettingsService opens the TOML config under configDir, or
// ~/.canvasrag when empty.
func NewSettingsService(configDir string) (*services.SettingsService, error) {
	store, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	return services.NewSettingsService(store, ai.NewConfigValidator()), nil
}

// Build wires every service from the current settings. A store that does
// not open or a provider that is missing or unreachable fails the build.
// The returned cleanup closes everything that was opened.
func Build(ctx context.Context, settingsService driving.SettingsService, opts Options) (*cli.Services, func(), error) {
	if settingsService == nil {
		return nil, nil, errors.New("settings service is required")
	}
	settings, err := settingsService.Get()
	if err != nil {
		return nil, nil, fmt.Errorf("loading settings: %w", err)
	}

	prompts, err := file.NewPromptStore(opts.PromptDir)
	if err != nil {
		return nil, nil, fmt.Errorf("opening prompts: %w", err)
	}

	stores, err := storage.Open(ctx, settings.Storage)
	if err != nil {
		return nil, nil, fmt.Errorf("opening storage: %w", err)
	}

	aiResult, err := ai.Initialise(ctx, settings)
	if err != nil {
		if cerr := stores.Close(); cerr != nil {
			logger.Warn("Closing storage: %v", cerr)
		}
		return nil, nil, fmt.Errorf("initialising providers: %w", err)
	}

	metrics := opts.Metrics
	if metrics == nil {
		metrics = prometheus.NewSink()
	}
	sink := services.MultiSink{services.LogSink{}, metrics}

	p := newPipeline(settings, stores, aiResult, prompts, sink)

	cleanup := func() {
		aiResult.Close()
		if err := stores.Close(); err != nil {
			logger.Warn("Closing storage: %v", err)
		}
	}

	var scheduler driving.Scheduler
	if settings.Scheduler.Enabled() {
		scheduler = services.NewScheduler(settings.Scheduler, p.indexer)
	}

	svc := &cli.Services{
		Chat:     p.chat,
		Index:    p.indexer,
		Analysis: p.analysis,
		Context:  p.context,
		Entities: stores.Entities,
		Writable: stores.Writable,
		Serve: cli.ServeDeps{
			Server:  settings.Server,
			Probes:  probes(stores, aiResult),
			Metrics: metrics.Handler(),
			Prompts: prompts,

			Scheduler: scheduler,
		},
	}
	return svc, cleanup, nil
}

type pipeline struct {
	chat     *services.ChatService
	context  *services.ContextService
	indexer  *services.Indexer
	analysis *services.AnalysisService
}

func newPipeline(
	settings *domain.Settings,
	stores *storage.Stores,
	aiResult *ai.InitResult,
	prompts driven.PromptStore,
	sink driven.EventSink,
) *pipeline {
	retriever := services.NewSemanticRetriever(aiResult.EmbeddingService, stores.Index)
	retriever.SetEventSink(sink)

	assembler := services.NewContextAssembler(services.NewDirectContextFetcher(stores.Entities), retriever)
	assembler.SetEventSink(sink)
	assembler.SetK(settings.Pipeline.K)

	optimizer := services.NewQueryOptimizer(aiResult.LLMService, prompts)
	optimizer.SetEventSink(sink)
	optimizer.SetHistoryWindow(settings.Pipeline.HistoryWindow)

	screenshots := services.NewScreenshotFetcher(aiResult.AssetFetcher)
	screenshots.SetEventSink(sink)
	screenshots.SetTimeout(settings.Assets.FetchTimeout)

	orchestrator := services.NewResponseStreamOrchestrator(aiResult.LLMService, prompts)
	orchestrator.SetEventSink(sink)

	chat := services.NewChatService(optimizer, assembler, screenshots, orchestrator)
	chat.SetScreenshotCap(settings.Pipeline.ScreenshotCap)

	contextService := services.NewContextService(retriever)
	contextService.SetK(settings.Pipeline.K)

	indexer := services.NewIndexer(stores.Entities, aiResult.EmbeddingService, stores.Index)
	indexer.SetEventSink(sink)

	analysis := services.NewAnalysisService(aiResult.LLMService, prompts, stores.Entities)
	analysis.SetEventSink(sink)

	return &pipeline{
		chat:     chat,
		context:  contextService,
		indexer:  indexer,
		analysis: analysis,
	}
}

// probes reports each backing dependency on the health endpoint.
func probes(stores *storage.Stores, aiResult *ai.InitResult) []httpapi.Probe {
	return []httpapi.Probe{
		{Name: "index", Check: func(ctx context.Context) error {
			if stores.Index == nil {
				return domain.ErrIndexUnavailable
			}
			_, err := stores.Index.Count(ctx, healthOwner)
			return err
		}},
		{Name: "entities", Check: func(ctx context.Context) error {
			if stores.Entities == nil {
				return domain.ErrEntityStoreUnavailable
			}
			return stores.Entities.Ping(ctx)
		}},
		{Name: "llm", Check: func(ctx context.Context) error {
			if aiResult.LLMService == nil {
				return domain.ErrLLMUnavailable
			}
			return aiResult.LLMService.Ping(ctx)
		}},
		{Name: "embedding", Check: func(ctx context.Context) error {
			if aiResult.EmbeddingService == nil {
				return domain.ErrEmbeddingUnavailable
			}
			return aiResult.EmbeddingService.Ping(ctx)
		}},
	}
}
