// Package s3fetch downloads s3://bucket/key assets with the AWS SDK.
package s3fetch

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/custodia-labs/canvasrag/internal/core/domain"
	"github.com/custodia-labs/canvasrag/internal/core/ports/driven"
)

// Ensure Fetcher implements the interface.
var _ driven.AssetFetcher = (*Fetcher)(nil)

// DefaultTimeout bounds a single GetObject.
const DefaultTimeout = 10 * time.Second

// Config selects the region and, for S3-compatible stores, the endpoint.
type Config struct {
	Region string

	// Endpoint points at MinIO/LocalStack. Path-style addressing is used
	// when set.
	Endpoint string

	// AccessKey and SecretKey bypass the default credential chain.
	AccessKey string
	SecretKey string

	Timeout time.Duration
}

type objectGetter interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Fetcher is an S3 AssetFetcher.
type Fetcher struct {
	client  objectGetter
	timeout time.Duration
}

// New loads AWS configuration and builds an S3 client.
func New(ctx context.Context, cfg Config) (*Fetcher, error) {
	var opts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("s3fetch: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return newWithClient(client, cfg.Timeout), nil
}

func newWithClient(client objectGetter, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Fetcher{client: client, timeout: timeout}
}

// ParseURL splits s3://bucket/key.
func ParseURL(raw string) (bucket, key string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", err
	}
	if u.Scheme != "s3" || u.Host == "" {
		return "", "", fmt.Errorf("not an s3 url: %q", raw)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if key == "" {
		return "", "", fmt.Errorf("s3 url %q has no key", raw)
	}
	return u.Host, key, nil
}

// Fetch downloads the object named by an s3:// URL.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*driven.Asset, error) {
	bucket, key, err := ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrAssetFetch, err)
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	out, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: get s3://%s/%s: %w", domain.ErrAssetFetch, bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read s3://%s/%s: %w", domain.ErrAssetFetch, bucket, key, err)
	}

	return &driven.Asset{Data: data, ContentType: aws.ToString(out.ContentType)}, nil
}
