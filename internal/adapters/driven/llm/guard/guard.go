// Package guard wraps an LLMService with request pacing and a circuit breaker.
package guard

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/canvasrag/internal/core/domain"
	"github.com/custodia-labs/canvasrag/internal/core/ports/driven"
	"github.com/custodia-labs/canvasrag/internal/logger"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default breaker values.
const (
	DefaultMaxFailures = 5
	DefaultOpenTimeout = 30 * time.Second
)

// Config tunes the guard.
type Config struct {
	// Name labels the breaker in logs.
	Name string

	// RequestsPerSecond paces calls. Zero disables pacing.
	RequestsPerSecond float64

	// Burst is the token bucket size (default: 1).
	Burst int

	// MaxFailures is the consecutive failure count that opens the breaker.
	MaxFailures int

	// OpenTimeout is how long the breaker stays open before a probe.
	OpenTimeout time.Duration
}

// LLMService decorates another LLMService.
type LLMService struct {
	next    driven.LLMService
	limiter *rate.Limiter
	breaker *gobreaker.TwoStepCircuitBreaker
}

// New wraps next. Calls made while the breaker is open fail fast with
// domain.ErrCircuitOpen.
func New(next driven.LLMService, cfg Config) *LLMService {
	if cfg.Name == "" {
		cfg.Name = next.ModelName()
	}
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = DefaultMaxFailures
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = DefaultOpenTimeout
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}

	maxFailures := uint32(cfg.MaxFailures)
	g := &LLMService{
		next: next,
		breaker: gobreaker.NewTwoStepCircuitBreaker(gobreaker.Settings{
			Name:    cfg.Name,
			Timeout: cfg.OpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= maxFailures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("llm breaker %s: %s -> %s", name, from, to)
			},
		}),
	}
	if cfg.RequestsPerSecond > 0 {
		g.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)
	}
	return g
}

// admit waits for a rate token and asks the breaker for permission.
func (g *LLMService) admit(ctx context.Context) (func(error), error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrRateLimited, err)
		}
	}

	done, err := g.breaker.Allow()
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %w", domain.ErrCircuitOpen, err)
		}
		return nil, err
	}

	return func(callErr error) {
		// Caller cancellation says nothing about backend health.
		done(callErr == nil || errors.Is(callErr, context.Canceled))
	}, nil
}

// Generate produces text completion from a prompt.
func (g *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	done, err := g.admit(ctx)
	if err != nil {
		return "", err
	}
	out, err := g.next.Generate(ctx, prompt, opts)
	done(err)
	return out, err
}

// Chat conducts a multi-turn conversation.
func (g *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	done, err := g.admit(ctx)
	if err != nil {
		return "", err
	}
	out, err := g.next.Chat(ctx, messages, opts)
	done(err)
	return out, err
}

// Stream counts as one breaker request, settled when the sequence ends.
func (g *LLMService) Stream(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		done, err := g.admit(ctx)
		if err != nil {
			yield("", err)
			return
		}

		var streamErr error
		defer func() { done(streamErr) }()

		for fragment, err := range g.next.Stream(ctx, messages, opts) {
			if err != nil {
				streamErr = err
				yield("", err)
				return
			}
			if !yield(fragment, nil) {
				return
			}
		}
	}
}

// State reports the breaker state (closed, half-open, open).
func (g *LLMService) State() string {
	return g.breaker.State().String()
}

// ModelName returns the wrapped model name.
func (g *LLMService) ModelName() string {
	return g.next.ModelName()
}

// Ping bypasses the breaker so health checks can observe recovery.
func (g *LLMService) Ping(ctx context.Context) error {
	return g.next.Ping(ctx)
}

// Close releases the wrapped service.
func (g *LLMService) Close() error {
	return g.next.Close()
}
