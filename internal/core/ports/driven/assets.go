package driven

import "context"

// AssetFetcher retrieves the raw bytes behind an asset URL.
type AssetFetcher interface {
	// Fetch downloads the asset. Implementations bound the call with their
	// own timeout and return an error wrapping domain.ErrAssetFetch on a
	// network error or non-success status.
	Fetch(ctx context.Context, url string) (*Asset, error)
}

// Asset is a fetched binary asset.
type Asset struct {
	// Data is the raw content.
	Data []byte

	// ContentType is the reported media type, if any.
	ContentType string
}
