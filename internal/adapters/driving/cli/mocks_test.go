package cli

import (
	"bytes"
	"context"
	"iter"
	"sync"
	"testing"

	"github.com/custodia-labs/canvasrag/internal/core/domain"
)

type mockChatService struct {
	events  []domain.StreamEvent
	answer  *domain.ChatAnswer
	err     error
	lastReq domain.ChatRequest
}

func (m *mockChatService) Chat(_ context.Context, req domain.ChatRequest) iter.Seq[domain.StreamEvent] {
	m.lastReq = req
	return func(yield func(domain.StreamEvent) bool) {
		for _, ev := range m.events {
			if !yield(ev) {
				return
			}
		}
	}
}

func (m *mockChatService) Answer(_ context.Context, req domain.ChatRequest) (*domain.ChatAnswer, error) {
	m.lastReq = req
	return m.answer, m.err
}

type mockIndexService struct {
	report    *domain.IndexReport
	err       error
	lastOwner domain.Owner
	lastAsset string
}

func (m *mockIndexService) IndexOwner(_ context.Context, owner domain.Owner) (*domain.IndexReport, error) {
	m.lastOwner = owner
	return m.report, m.err
}

func (m *mockIndexService) IndexAsset(_ context.Context, owner domain.Owner, assetID string) error {
	m.lastOwner = owner
	m.lastAsset = assetID
	return m.err
}

type mockAnalysisService struct {
	events    []domain.StreamEvent
	desc      *domain.AssetDescription
	err       error
	lastReq   domain.AnalysisRequest
	lastImage string
}

func (m *mockAnalysisService) StreamAnalysis(
	_ context.Context, req domain.AnalysisRequest,
) iter.Seq[domain.StreamEvent] {
	m.lastReq = req
	return func(yield func(domain.StreamEvent) bool) {
		for _, ev := range m.events {
			if !yield(ev) {
				return
			}
		}
	}
}

func (m *mockAnalysisService) Describe(_ context.Context, image string) (*domain.AssetDescription, error) {
	m.lastImage = image
	return m.desc, m.err
}

type mockContextService struct {
	report    *domain.ContextReport
	err       error
	lastQuery string
}

func (m *mockContextService) Query(_ context.Context, _ domain.Owner, q string) (*domain.ContextReport, error) {
	m.lastQuery = q
	return m.report, m.err
}

type mockSettingsService struct {
	settings    domain.Settings
	validateErr error
	pingErr     error

	embeddingProvider domain.AIProvider
	embeddingModel    string
	llmProvider       domain.AIProvider
	llmModel          string
	llmKey            string
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{settings: domain.DefaultSettings()}
}

func (m *mockSettingsService) Get() (*domain.Settings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(s *domain.Settings) error {
	m.settings = *s
	return nil
}

func (m *mockSettingsService) SetEmbeddingProvider(p domain.AIProvider, model, _ string) error {
	m.embeddingProvider = p
	m.embeddingModel = model
	return nil
}

func (m *mockSettingsService) SetLLMProvider(p domain.AIProvider, model, apiKey string) error {
	m.llmProvider = p
	m.llmModel = model
	m.llmKey = apiKey
	return nil
}

func (m *mockSettingsService) Validate() error { return m.validateErr }
func (m *mockSettingsService) GetDefaults() domain.Settings { return domain.DefaultSettings() }
func (m *mockSettingsService) ValidateEmbeddingConfig() error { return m.pingErr }
func (m *mockSettingsService) ValidateLLMConfig() error { return m.pingErr }

// memoryEntityStore is a writable entity store backed by slices.
type memoryEntityStore struct {
	mu       sync.Mutex
	entities []domain.StructuredEntity
	assets   []domain.VisualAsset
}

func (m *memoryEntityStore) LoadWorkspace(_ context.Context, owner domain.Owner) (*domain.Workspace, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ws := &domain.Workspace{}
	for _, e := range m.entities {
		if e.Owner == owner {
			ws.Entities = append(ws.Entities, e)
		}
	}
	for _, a := range m.assets {
		if a.Owner == owner {
			ws.Assets = append(ws.Assets, a)
		}
	}
	return ws, nil
}

func (m *memoryEntityStore) ListEntities(ctx context.Context, owner domain.Owner) ([]domain.StructuredEntity, error) {
	ws, err := m.LoadWorkspace(ctx, owner)
	return ws.Entities, err
}

func (m *memoryEntityStore) ListAssets(ctx context.Context, owner domain.Owner) ([]domain.VisualAsset, error) {
	ws, err := m.LoadWorkspace(ctx, owner)
	return ws.Assets, err
}

func (m *memoryEntityStore) GetAsset(_ context.Context, owner domain.Owner, id string) (*domain.VisualAsset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.assets {
		if a.Owner == owner && a.ID == id {
			return &a, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memoryEntityStore) Ping(context.Context) error { return nil }
func (m *memoryEntityStore) Close() error { return nil }

func (m *memoryEntityStore) SaveEntity(_ context.Context, e domain.StructuredEntity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entities = append(m.entities, e)
	return nil
}

func (m *memoryEntityStore) SaveAsset(_ context.Context, a domain.VisualAsset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assets = append(m.assets, a)
	return nil
}

type mockScheduler struct {
	mu      sync.Mutex
	started bool
	stopped bool
}

func (m *mockScheduler) Start(ctx context.Context) error {
	m.mu.Lock()
	m.started = true
	m.mu.Unlock()
	<-ctx.Done()
	return ctx.Err()
}

func (m *mockScheduler) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
	return nil
}

func (m *mockScheduler) state() (started, stopped bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started, m.stopped
}

type mockPromptWatcher struct {
	mu      sync.Mutex
	watched bool
}

func (m *mockPromptWatcher) Watch(ctx context.Context) error {
	m.mu.Lock()
	m.watched = true
	m.mu.Unlock()
	<-ctx.Done()
	return nil
}

func (m *mockPromptWatcher) Watched() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.watched
}

// testServices bundles the mocks installed by setupTestServices.
type testServices struct {
	chat     *mockChatService
	index    *mockIndexService
	analysis *mockAnalysisService
	context  *mockContextService
	settings *mockSettingsService
	entities *memoryEntityStore
}

// setupTestServices installs fresh mocks and restores the previous
// services and flag values when the test ends.
func setupTestServices(t *testing.T) *testServices {
	t.Helper()

	oldChat, oldIndex, oldAnalysis, oldContext := chatService, indexService, analysisService, contextService
	oldSettings, oldEntities, oldWritable, oldServe := settingsService, entityStore, writableStore, serveDeps
	oldBootstrap := bootstrap

	ts := &testServices{
		chat:     &mockChatService{},
		index:    &mockIndexService{},
		analysis: &mockAnalysisService{},
		context:  &mockContextService{},
		settings: newMockSettingsService(),
		entities: &memoryEntityStore{},
	}
	SetServices(&Services{
		Chat:     ts.chat,
		Index:    ts.index,
		Analysis: ts.analysis,
		Context:  ts.context,
		Entities: ts.entities,
		Writable: ts.entities,
	})
	settingsService = ts.settings
	bootstrap = nil
	resetFlags()

	t.Cleanup(func() {
		chatService, indexService, analysisService, contextService = oldChat, oldIndex, oldAnalysis, oldContext
		settingsService, entityStore, writableStore, serveDeps = oldSettings, oldEntities, oldWritable, oldServe
		bootstrap = oldBootstrap
		resetFlags()
	})
	return ts
}

func resetFlags() {
	ownerFlag = ""
	askProject, askJSON = "", false
	indexAsset, indexJSON = "", false
	contextJSON = false
	analyzeProject, describeJSON = "", false
	importThenIndex = false
	serveAddr, serveWithMCP = "", false
	chatProject = ""
}

// execute runs the root command with args and returns everything printed.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return executeContext(t, context.Background(), args...)
}

func executeContext(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}()

	err := rootCmd.ExecuteContext(ctx)
	return buf.String(), err
}
