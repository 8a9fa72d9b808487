package services

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"github.com/custodia-labs/canvasrag/internal/core/domain"
	"github.com/custodia-labs/canvasrag/internal/core/ports/driving"
	"github.com/custodia-labs/canvasrag/internal/logger"
)

// Ensure ChatService implements the interface.
var _ driving.ChatService = (*ChatService)(nil)

// ChatService runs the retrieval pipeline for one chat turn: optimize the
// query, assemble context, fetch screenshots, then stream the reply.
type ChatService struct {
	optimizer     *QueryOptimizer
	assembler     *ContextAssembler
	screenshots   *ScreenshotFetcher
	orchestrator  *ResponseStreamOrchestrator
	screenshotCap int
}

// NewChatService composes the pipeline components into a chat service.
// screenshots may be nil to disable visual augmentation.
func NewChatService(
	optimizer *QueryOptimizer,
	assembler *ContextAssembler,
	screenshots *ScreenshotFetcher,
	orchestrator *ResponseStreamOrchestrator,
) *ChatService {
	return &ChatService{
		optimizer:     optimizer,
		assembler:     assembler,
		screenshots:   screenshots,
		orchestrator:  orchestrator,
		screenshotCap: domain.DefaultScreenshotCap,
	}
}

// SetScreenshotCap sets how many screenshots may accompany a turn.
func (s *ChatService) SetScreenshotCap(n int) {
	s.screenshotCap = ClampCap(n)
}

// TurnPlan is everything gathered for a turn before generation starts.
type TurnPlan struct {
	Decision domain.OptimizerDecision
	Context  *domain.AssembledContext
	Images   []domain.ImagePayload
}

// Plan runs optimization, context assembly and screenshot fetching.
func (s *ChatService) Plan(ctx context.Context, req domain.ChatRequest) *TurnPlan {
	decision := domain.DefaultDecision(req.Query)
	if s.optimizer != nil {
		decision = s.optimizer.Optimize(ctx, req.Query, req.History)
	}

	assembled := &domain.AssembledContext{}
	if s.assembler != nil {
		assembled = s.assembler.Assemble(ctx, req.Owner, decision, req.SubCollection)
	}

	var images []domain.ImagePayload
	if decision.NeedsImage && s.screenshots != nil && len(assembled.Documents) > 0 {
		images = s.screenshots.Fetch(ctx, assembled.Documents, s.screenshotCap)
	}

	return &TurnPlan{Decision: decision, Context: assembled, Images: images}
}

// Chat streams the reply to req.
func (s *ChatService) Chat(ctx context.Context, req domain.ChatRequest) iter.Seq[domain.StreamEvent] {
	return func(yield func(domain.StreamEvent) bool) {
		if err := validateChatRequest(req); err != nil {
			yield(domain.ErrorEvent(err.Error()))
			return
		}
		plan := s.Plan(ctx, req)
		for ev := range s.stream(ctx, req, plan) {
			if !yield(ev) {
				return
			}
		}
	}
}

// Answer runs the pipeline and drains the stream into one reply.
func (s *ChatService) Answer(ctx context.Context, req domain.ChatRequest) (*domain.ChatAnswer, error) {
	if err := validateChatRequest(req); err != nil {
		return nil, err
	}
	plan := s.Plan(ctx, req)

	var b strings.Builder
	for ev := range s.stream(ctx, req, plan) {
		switch ev.Kind {
		case domain.StreamChunk:
			b.WriteString(ev.Text)
		case domain.StreamError:
			return &domain.ChatAnswer{Success: false}, fmt.Errorf("%w: %s", domain.ErrLLMUnavailable, ev.Text)
		}
	}

	return &domain.ChatAnswer{
		Success:     true,
		Answer:      b.String(),
		ContextUsed: plan.Context.Text != "",
	}, nil
}

func (s *ChatService) stream(ctx context.Context, req domain.ChatRequest, plan *TurnPlan) iter.Seq[domain.StreamEvent] {
	logger.Debug("Chat turn for %s: context=%d chars, %d docs, %d images",
		req.Owner, len(plan.Context.Text), len(plan.Context.Documents), len(plan.Images))
	return s.orchestrator.Stream(ctx, StreamRequest{
		Query:   req.Query,
		Context: plan.Context.Text,
		History: req.History,
		Images:  plan.Images,
	})
}

func validateChatRequest(req domain.ChatRequest) error {
	if !req.Owner.IsValid() {
		return fmt.Errorf("%w: owner is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(req.Query) == "" {
		return fmt.Errorf("%w: query is required", domain.ErrInvalidInput)
	}
	return nil
}
