package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/canvasrag/internal/core/domain"
	"github.com/custodia-labs/canvasrag/internal/core/ports/driven"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

// mockAssetFetcher implements driven.AssetFetcher for testing.
type mockAssetFetcher struct {
	assets map[string]*driven.Asset
	errs   map[string]error

	mu           sync.Mutex
	calls        []string
	sawDeadlines bool
}

func (m *mockAssetFetcher) Fetch(ctx context.Context, url string) (*driven.Asset, error) {
	m.mu.Lock()
	m.calls = append(m.calls, url)
	if _, ok := ctx.Deadline(); ok {
		m.sawDeadlines = true
	}
	m.mu.Unlock()

	if err, ok := m.errs[url]; ok {
		return nil, err
	}
	if a, ok := m.assets[url]; ok {
		return a, nil
	}
	return &driven.Asset{Data: pngBytes}, nil
}

func docsWithURLs(n int) []domain.RetrievalResult {
	docs := make([]domain.RetrievalResult, n)
	for i := range docs {
		docs[i] = domain.RetrievalResult{Metadata: domain.DocumentMetadata{
			EntityID: fmt.Sprintf("s%d", i),
			AssetURL: fmt.Sprintf("https://cdn.example.com/s%d.png", i),
		}}
	}
	return docs
}

func TestScreenshotFetcher_Fetch_CapEnforced(t *testing.T) {
	fetcher := &mockAssetFetcher{}
	sf := NewScreenshotFetcher(fetcher)

	payloads := sf.Fetch(context.Background(), docsWithURLs(10), 3)

	assert.Len(t, payloads, 3)
	assert.Len(t, fetcher.calls, 3)
	assert.True(t, fetcher.sawDeadlines)
}

func TestScreenshotFetcher_Fetch_SkipsFailuresAndMissingURLs(t *testing.T) {
	docs := docsWithURLs(4)
	docs[1].Metadata.AssetURL = ""
	fetcher := &mockAssetFetcher{errs: map[string]error{
		docs[2].Metadata.AssetURL: fmt.Errorf("%w: status 404", domain.ErrAssetFetch),
	}}
	sink := &captureSink{}
	sf := NewScreenshotFetcher(fetcher)
	sf.SetEventSink(sink)

	payloads := sf.Fetch(context.Background(), docs, 3)

	require.Len(t, payloads, 1)
	assert.Len(t, fetcher.calls, 2, "only the top cap documents are considered")
	assert.Contains(t, sink.names(), "screenshots.skipped")

	ev, ok := sink.find(domain.ComponentScreenshots, domain.EventFetched)
	require.True(t, ok)
	assert.Equal(t, 1, ev.Fields["fetched"])
}

func TestScreenshotFetcher_Fetch_Encoding(t *testing.T) {
	docs := docsWithURLs(3)
	fetcher := &mockAssetFetcher{assets: map[string]*driven.Asset{
		docs[0].Metadata.AssetURL: {Data: pngBytes},
		docs[1].Metadata.AssetURL: {Data: []byte("jpeg-bytes"), ContentType: "image/jpeg; charset=binary"},
		docs[2].Metadata.AssetURL: {Data: nil},
	}}
	sf := NewScreenshotFetcher(fetcher)

	payloads := sf.Fetch(context.Background(), docs, 5)

	require.Len(t, payloads, 2)
	assert.Equal(t, "image/png", payloads[0].MIMEType)
	assert.Equal(t, base64.StdEncoding.EncodeToString(pngBytes), payloads[0].Data)
	assert.Equal(t, "image/jpeg", payloads[1].MIMEType)
}

func TestScreenshotFetcher_Fetch_Timeout(t *testing.T) {
	slow := &slowFetcher{}
	sf := NewScreenshotFetcher(slow)
	sf.SetTimeout(20 * time.Millisecond)

	start := time.Now()
	payloads := sf.Fetch(context.Background(), docsWithURLs(2), 2)

	assert.Empty(t, payloads)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestScreenshotFetcher_Fetch_NoFetcher(t *testing.T) {
	assert.Nil(t, NewScreenshotFetcher(nil).Fetch(context.Background(), docsWithURLs(2), 2))
}

func TestClampCap(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{in: 0, want: domain.DefaultScreenshotCap},
		{in: -1, want: domain.DefaultScreenshotCap},
		{in: 1, want: 1},
		{in: 5, want: 5},
		{in: 50, want: domain.MaxScreenshotCap},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClampCap(tt.in), "ClampCap(%d)", tt.in)
	}
}

// slowFetcher blocks until its context ends.
type slowFetcher struct{}

func (slowFetcher) Fetch(ctx context.Context, _ string) (*driven.Asset, error) {
	<-ctx.Done()
	return nil, errors.Join(domain.ErrAssetFetch, ctx.Err())
}
