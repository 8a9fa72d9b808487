package services

import (
	"context"
	"errors"
	"hash/fnv"
	"iter"
	"strings"
	"sync"

	"github.com/custodia-labs/canvasrag/internal/core/domain"
	"github.com/custodia-labs/canvasrag/internal/core/ports/driven"
)

// --- Mock implementations ---

// hashEmbedder implements driven.EmbeddingService with a bag-of-words hash,
// so texts sharing words land close together.
type hashEmbedder struct {
	dims     int
	failOn   string
	zeroOn   string
	batchErr error

	mu         sync.Mutex
	embedCalls int
	batchCalls int
}

func newHashEmbedder() *hashEmbedder {
	return &hashEmbedder{dims: 16}
}

func (e *hashEmbedder) vector(text string) ([]float32, error) {
	if e.failOn != "" && strings.Contains(text, e.failOn) {
		return nil, errors.New("embedding backend down")
	}
	v := make([]float32, e.dims)
	if e.zeroOn != "" && strings.Contains(text, e.zeroOn) {
		return v, nil
	}
	for _, w := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(strings.Trim(w, ".,:?!'\"")))
		v[h.Sum32()%uint32(e.dims)]++
	}
	return v, nil
}

func (e *hashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	e.embedCalls++
	e.mu.Unlock()
	return e.vector(text)
}

func (e *hashEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.batchCalls++
	e.mu.Unlock()
	if e.batchErr != nil {
		return nil, e.batchErr
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := e.vector(t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (e *hashEmbedder) Dimensions() int              { return e.dims }
func (e *hashEmbedder) ModelName() string            { return "hash-embed" }
func (e *hashEmbedder) Ping(_ context.Context) error { return nil }
func (e *hashEmbedder) Close() error                 { return nil }

func (e *hashEmbedder) calls() (embed, batch int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.embedCalls, e.batchCalls
}

// mockLLM implements driven.LLMService for testing.
type mockLLM struct {
	generateOut string
	generateErr error
	chatOut     string
	chatErr     error
	fragments   []string
	streamErr   error
	streamFn    func(ctx context.Context) iter.Seq2[string, error]

	mu             sync.Mutex
	prompts        []string
	generateOpts   []driven.GenerateOptions
	streamMessages [][]driven.ChatMessage
	chatMessages   [][]driven.ChatMessage
	chatOpts       []driven.ChatOptions
}

func (m *mockLLM) Generate(_ context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.generateOpts = append(m.generateOpts, opts)
	m.mu.Unlock()
	return m.generateOut, m.generateErr
}

func (m *mockLLM) Chat(_ context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	m.mu.Lock()
	m.chatMessages = append(m.chatMessages, messages)
	m.chatOpts = append(m.chatOpts, opts)
	m.mu.Unlock()
	return m.chatOut, m.chatErr
}

func (m *mockLLM) Stream(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) iter.Seq2[string, error] {
	m.mu.Lock()
	m.streamMessages = append(m.streamMessages, messages)
	m.chatOpts = append(m.chatOpts, opts)
	m.mu.Unlock()

	if m.streamFn != nil {
		return m.streamFn(ctx)
	}
	return func(yield func(string, error) bool) {
		for _, f := range m.fragments {
			if !yield(f, nil) {
				return
			}
		}
		if m.streamErr != nil {
			yield("", m.streamErr)
		}
	}
}

func (m *mockLLM) ModelName() string            { return "mock-llm" }
func (m *mockLLM) Ping(_ context.Context) error { return nil }
func (m *mockLLM) Close() error                 { return nil }

func (m *mockLLM) lastStream() []driven.ChatMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.streamMessages) == 0 {
		return nil
	}
	return m.streamMessages[len(m.streamMessages)-1]
}

func (m *mockLLM) lastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prompts) == 0 {
		return ""
	}
	return m.prompts[len(m.prompts)-1]
}

// mockPromptStore implements driven.PromptStore for testing.
type mockPromptStore struct {
	prompts map[string]string
}

func (m *mockPromptStore) Load(name string) (string, error) {
	if p, ok := m.prompts[name]; ok {
		return p, nil
	}
	return "", domain.ErrNotFound
}

func (m *mockPromptStore) Reload()                       {}
func (m *mockPromptStore) Watch(_ context.Context) error { return nil }

// captureSink records events.
type captureSink struct {
	mu     sync.Mutex
	events []domain.Event
}

func (c *captureSink) Emit(e domain.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

// names returns "component.name" for each recorded event.
func (c *captureSink) names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.events))
	for i, e := range c.events {
		out[i] = e.Component + "." + e.Name
	}
	return out
}

// find returns the first event with the given component and name.
func (c *captureSink) find(component, name string) (domain.Event, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.events {
		if e.Component == component && e.Name == name {
			return e, true
		}
	}
	return domain.Event{}, false
}

// stubIndex implements driven.EmbeddingIndex with canned results.
type stubIndex struct {
	results  []domain.RetrievalResult
	err      error
	mu       sync.Mutex
	queries  int
	lastSub  string
	lastK    int
	upserted []domain.EmbeddingRecord
}

func (s *stubIndex) Upsert(_ context.Context, r domain.EmbeddingRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upserted = append(s.upserted, r)
	return s.err
}

func (s *stubIndex) Query(_ context.Context, _ domain.Owner, _ []float32, k int, sub string) ([]domain.RetrievalResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries++
	s.lastSub = sub
	s.lastK = k
	return s.results, s.err
}

func (s *stubIndex) Count(_ context.Context, _ domain.Owner) (int, error) {
	return len(s.upserted), nil
}

func (s *stubIndex) Close() error { return nil }

// stubEntityStore implements driven.EntityStore with canned rows.
type stubEntityStore struct {
	entities []domain.StructuredEntity
	assets   []domain.VisualAsset
	err      error
	calls    int
}

func (s *stubEntityStore) LoadWorkspace(_ context.Context, _ domain.Owner) (*domain.Workspace, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Workspace{Entities: s.entities, Assets: s.assets}, nil
}

func (s *stubEntityStore) ListEntities(_ context.Context, _ domain.Owner) ([]domain.StructuredEntity, error) {
	s.calls++
	return s.entities, s.err
}

func (s *stubEntityStore) ListAssets(_ context.Context, _ domain.Owner) ([]domain.VisualAsset, error) {
	s.calls++
	return s.assets, s.err
}

func (s *stubEntityStore) GetAsset(_ context.Context, owner domain.Owner, id string) (*domain.VisualAsset, error) {
	for i := range s.assets {
		if s.assets[i].ID == id && s.assets[i].Owner == owner {
			return &s.assets[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *stubEntityStore) Ping(_ context.Context) error { return s.err }
func (s *stubEntityStore) Close() error                 { return nil }

// collect drains a stream into a slice.
func collect(seq iter.Seq[domain.StreamEvent]) []domain.StreamEvent {
	var out []domain.StreamEvent
	for ev := range seq {
		out = append(out, ev)
	}
	return out
}

// terminalCount counts done and error events.
func terminalCount(events []domain.StreamEvent) int {
	n := 0
	for _, ev := range events {
		if ev.IsTerminal() {
			n++
		}
	}
	return n
}
