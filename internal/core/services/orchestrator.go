package services

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/custodia-labs/canvasrag/internal/core/domain"
	"github.com/custodia-labs/canvasrag/internal/core/ports/driven"
	"github.com/custodia-labs/canvasrag/internal/logger"
)

// Chat generation limits.
const (
	chatTemperature = 0.5
	chatTopP        = 0.95
	chatMaxTokens   = 2048
)

// screenshotNote is appended to the current turn when images are attached.
const screenshotNote = "(Note: I've included screenshots from your canvas slides above for visual context.)"

// apologyText is the single fragment sent when generation fails mid-stream.
const apologyText = "Sorry, I ran into a problem while generating a response. Please try again."

// StreamRequest is the input of one generation stream.
type StreamRequest struct {
	Query   string
	Context string
	History []domain.ConversationTurn
	Images  []domain.ImagePayload
}

// ResponseStreamOrchestrator builds the role-sequenced prompt for a chat
// turn and forwards the backend's fragments as stream events.
type ResponseStreamOrchestrator struct {
	llm     driven.LLMService
	prompts driven.PromptStore
	sink    driven.EventSink
}

// NewResponseStreamOrchestrator creates an orchestrator.
func NewResponseStreamOrchestrator(llm driven.LLMService, prompts driven.PromptStore) *ResponseStreamOrchestrator {
	return &ResponseStreamOrchestrator{llm: llm, prompts: prompts}
}

// SetEventSink sets the sink for stream events.
func (o *ResponseStreamOrchestrator) SetEventSink(sink driven.EventSink) {
	o.sink = sink
}

// BuildMessages renders the system preamble, history and current turn.
// History turns are sent as text; images only accompany the current turn.
func (o *ResponseStreamOrchestrator) BuildMessages(req StreamRequest) ([]driven.ChatMessage, error) {
	template, err := loadPrompt(o.prompts, driven.PromptChatSystem)
	if err != nil {
		return nil, err
	}

	messages := make([]driven.ChatMessage, 0, len(req.History)+2)
	messages = append(messages, driven.ChatMessage{
		Role:    driven.RoleSystem,
		Content: fmt.Sprintf(template, req.Context),
	})

	for _, turn := range req.History {
		role := driven.RoleUser
		if turn.Role() == domain.RoleAssistant {
			role = driven.RoleAssistant
		}
		messages = append(messages, driven.ChatMessage{Role: role, Content: turn.Text()})
	}

	current := driven.ChatMessage{Role: driven.RoleUser, Content: req.Query}
	if len(req.Images) > 0 {
		images := req.Images
		if len(images) > domain.MaxScreenshotCap {
			images = images[:domain.MaxScreenshotCap]
		}
		current.Images = images
		current.Content = req.Query + "\n\n" + screenshotNote
	}
	messages = append(messages, current)

	return messages, nil
}

// Stream yields the reply to req. The sequence ends with exactly one done
// or error event. Breaking out of the loop cancels the upstream call.
func (o *ResponseStreamOrchestrator) Stream(ctx context.Context, req StreamRequest) iter.Seq[domain.StreamEvent] {
	return func(yield func(domain.StreamEvent) bool) {
		if o.llm == nil {
			failStream(o.sink, domain.ComponentOrchestrator, domain.ErrLLMUnavailable, yield)
			return
		}
		messages, err := o.BuildMessages(req)
		if err != nil {
			failStream(o.sink, domain.ComponentOrchestrator, err, yield)
			return
		}

		logger.Debug("Streaming reply with %d messages, %d images", len(messages), len(req.Images))
		opts := driven.ChatOptions{
			MaxTokens:   chatMaxTokens,
			Temperature: chatTemperature,
			TopP:        chatTopP,
		}
		forwardStream(ctx, o.sink, domain.ComponentOrchestrator, func(ctx context.Context) iter.Seq2[string, error] {
			return o.llm.Stream(ctx, messages, opts)
		}, yield)
	}
}

// forwardStream relays upstream fragments as chunk events and ends the
// sequence with one terminal event. A failure yields one apology chunk then
// an error event. Cancellation of ctx yields only the error event. When the
// consumer stops early the upstream call is cancelled and nothing more is
// yielded.
func forwardStream(
	ctx context.Context,
	sink driven.EventSink,
	component string,
	open func(context.Context) iter.Seq2[string, error],
	yield func(domain.StreamEvent) bool,
) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	start := time.Now()
	chunks := 0
	for fragment, err := range open(ctx) {
		if err != nil {
			if ctx.Err() != nil {
				cancelStream(sink, component, chunks, yield)
				return
			}
			failStream(sink, component, err, yield)
			return
		}
		if fragment == "" {
			continue
		}
		chunks++
		if !yield(domain.ChunkEvent(fragment)) {
			emit(sink, component, domain.EventCancelled, map[string]any{
				"chunks": chunks,
				"reason": "consumer_stopped",
			})
			return
		}
	}

	if ctx.Err() != nil {
		cancelStream(sink, component, chunks, yield)
		return
	}

	emit(sink, component, domain.EventCompleted, map[string]any{
		"chunks":      chunks,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	yield(domain.DoneEvent())
}

func failStream(sink driven.EventSink, component string, err error, yield func(domain.StreamEvent) bool) {
	logger.Warn("Generation failed: %v", err)
	emit(sink, component, domain.EventFailed, map[string]any{"error": err.Error()})
	if !yield(domain.ChunkEvent(apologyText)) {
		return
	}
	yield(domain.ErrorEvent(err.Error()))
}

func cancelStream(sink driven.EventSink, component string, chunks int, yield func(domain.StreamEvent) bool) {
	emit(sink, component, domain.EventCancelled, map[string]any{
		"chunks": chunks,
		"reason": "context_done",
	})
	yield(domain.ErrorEvent(context.Canceled.Error()))
}

