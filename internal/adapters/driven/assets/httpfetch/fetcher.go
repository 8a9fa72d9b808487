// Package httpfetch downloads assets over HTTP(S).
package httpfetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/custodia-labs/canvasrag/internal/core/domain"
	"github.com/custodia-labs/canvasrag/internal/core/ports/driven"
)

// Ensure Fetcher implements the interface.
var _ driven.AssetFetcher = (*Fetcher)(nil)

// Defaults.
const (
	DefaultTimeout  = 10 * time.Second
	DefaultMaxBytes = 20 << 20
)

// Fetcher is an HTTP AssetFetcher.
type Fetcher struct {
	client   *http.Client
	timeout  time.Duration
	maxBytes int64
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithClient replaces the HTTP client.
func WithClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// WithMaxBytes caps the body size.
func WithMaxBytes(n int64) Option {
	return func(f *Fetcher) { f.maxBytes = n }
}

// New creates a fetcher bounding each call by timeout.
func New(timeout time.Duration, opts ...Option) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	f := &Fetcher{
		client:   &http.Client{},
		timeout:  timeout,
		maxBytes: DefaultMaxBytes,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch downloads url. Non-2xx statuses and oversize bodies fail.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*driven.Asset, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrAssetFetch, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrAssetFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s returned status %d", domain.ErrAssetFetch, url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", domain.ErrAssetFetch, err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", domain.ErrAssetFetch, url, f.maxBytes)
	}

	return &driven.Asset{Data: data, ContentType: resp.Header.Get("Content-Type")}, nil
}
