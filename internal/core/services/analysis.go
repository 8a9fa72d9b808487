package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"iter"
	"strings"

	"github.com/custodia-labs/canvasrag/internal/core/domain"
	"github.com/custodia-labs/canvasrag/internal/core/ports/driven"
	"github.com/custodia-labs/canvasrag/internal/core/ports/driving"
	"github.com/custodia-labs/canvasrag/internal/logger"
)

// Ensure AnalysisService implements the interface.
var _ driving.AnalysisService = (*AnalysisService)(nil)

// Analysis call limits.
const (
	analysisTemperature    = 0.7
	analysisMaxTokens      = 1536
	descriptionTemperature = 0.3
	descriptionMaxTokens   = 500
)

// DefaultAnalysisQuery is asked when an analysis request has no question.
const DefaultAnalysisQuery = "Analyze this canvas"

const (
	noProjectContext   = "No project context provided."
	unknownContentType = "unknown"
)

// AnalysisService answers questions about one rendered asset and generates
// searchable descriptions for assets.
type AnalysisService struct {
	llm     driven.LLMService
	prompts driven.PromptStore
	store   driven.EntityStore
	sink    driven.EventSink
}

// NewAnalysisService creates an analysis service. store may be nil, in
// which case project context is never added.
func NewAnalysisService(llm driven.LLMService, prompts driven.PromptStore, store driven.EntityStore) *AnalysisService {
	return &AnalysisService{llm: llm, prompts: prompts, store: store}
}

// SetEventSink sets the sink for analysis events.
func (s *AnalysisService) SetEventSink(sink driven.EventSink) {
	s.sink = sink
}

// StreamAnalysis streams an answer about req.Image.
func (s *AnalysisService) StreamAnalysis(ctx context.Context, req domain.AnalysisRequest) iter.Seq[domain.StreamEvent] {
	return func(yield func(domain.StreamEvent) bool) {
		image, err := DecodeImage(req.Image)
		if err != nil {
			yield(domain.ErrorEvent(err.Error()))
			return
		}
		if s.llm == nil {
			failStream(s.sink, domain.ComponentAnalysis, domain.ErrLLMUnavailable, yield)
			return
		}

		template, err := loadPrompt(s.prompts, driven.PromptAssetAnalysis)
		if err != nil {
			failStream(s.sink, domain.ComponentAnalysis, err, yield)
			return
		}
		query := strings.TrimSpace(req.Query)
		if query == "" {
			query = DefaultAnalysisQuery
		}
		projectContext := s.projectContext(ctx, req.Owner, req.ProjectID)

		messages := []driven.ChatMessage{{
			Role:    driven.RoleUser,
			Content: fmt.Sprintf(template, projectContext, query),
			Images:  []domain.ImagePayload{image},
		}}
		opts := driven.ChatOptions{MaxTokens: analysisMaxTokens, Temperature: analysisTemperature}

		forwardStream(ctx, s.sink, domain.ComponentAnalysis, func(ctx context.Context) iter.Seq2[string, error] {
			return s.llm.Stream(ctx, messages, opts)
		}, yield)
	}
}

// Describe generates a description of image for indexing.
func (s *AnalysisService) Describe(ctx context.Context, image string) (*domain.AssetDescription, error) {
	payload, err := DecodeImage(image)
	if err != nil {
		return nil, err
	}
	if s.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}
	prompt, err := loadPrompt(s.prompts, driven.PromptAssetDescription)
	if err != nil {
		return nil, err
	}

	output, err := s.llm.Chat(ctx, []driven.ChatMessage{{
		Role:    driven.RoleUser,
		Content: prompt,
		Images:  []domain.ImagePayload{payload},
	}}, driven.ChatOptions{MaxTokens: descriptionMaxTokens, Temperature: descriptionTemperature})
	if err != nil {
		return nil, fmt.Errorf("describe: %w", err)
	}

	desc, matched := ParseDescription(output)
	if !matched {
		logger.Warn("Description output did not match the expected format")
		emit(s.sink, domain.ComponentAnalysis, domain.EventDescribeFallback, map[string]any{
			"chars": len(output),
		})
	}
	return desc, nil
}

// projectContext lists the project title and the names of its assets.
func (s *AnalysisService) projectContext(ctx context.Context, owner domain.Owner, projectID string) string {
	if s.store == nil || projectID == "" || !owner.IsValid() {
		return noProjectContext
	}
	ws, err := s.store.LoadWorkspace(ctx, owner)
	if err != nil {
		logger.Warn("Project context unavailable: %v", err)
		return noProjectContext
	}

	var lines []string
	for _, p := range ws.Projects() {
		if p.ID == projectID && p.Owner == owner {
			lines = append(lines, "Project: "+orDefault(p.Title, "Untitled"))
		}
	}
	for i := range ws.Assets {
		a := &ws.Assets[i]
		if a.ParentCollection == projectID && a.Owner == owner {
			lines = append(lines, "Slide: "+orDefault(a.Name, "Untitled Slide"))
		}
	}
	if len(lines) == 0 {
		return noProjectContext
	}
	return strings.Join(lines, "\n")
}

// DecodeImage accepts base64 image data with or without a data: URI
// prefix and returns it as a payload. The data must decode.
func DecodeImage(image string) (domain.ImagePayload, error) {
	image = strings.TrimSpace(image)
	if image == "" {
		return domain.ImagePayload{}, fmt.Errorf("%w: image is required", domain.ErrInvalidInput)
	}

	mime := "image/png"
	if strings.HasPrefix(image, "data:") {
		header, data, ok := strings.Cut(image, ",")
		if !ok {
			return domain.ImagePayload{}, fmt.Errorf("%w: malformed data URI", domain.ErrInvalidInput)
		}
		if t, _, _ := strings.Cut(strings.TrimPrefix(header, "data:"), ";"); strings.HasPrefix(t, "image/") {
			mime = t
		}
		image = data
	}

	if _, err := base64.StdEncoding.DecodeString(image); err != nil {
		return domain.ImagePayload{}, fmt.Errorf("%w: image is not base64: %v", domain.ErrInvalidInput, err)
	}
	return domain.ImagePayload{MIMEType: mime, Data: image}, nil
}

// ParseDescription parses "TYPE:" and "SUMMARY:" lines. CONTENT: is
// accepted for SUMMARY:, and lines after the summary line continue it.
// When no summary is found the whole output becomes the description and
// matched is false.
func ParseDescription(output string) (desc *domain.AssetDescription, matched bool) {
	desc = &domain.AssetDescription{ContentType: unknownContentType}

	var summary []string
	inSummary := false
	for _, line := range strings.Split(output, "\n") {
		key, value, ok := splitFieldLine(line)
		switch {
		case ok && key == "TYPE":
			if v := strings.ToLower(strings.TrimSpace(value)); v != "" {
				desc.ContentType = v
			}
			inSummary = false
		case ok && (key == "SUMMARY" || key == "CONTENT"):
			summary = []string{value}
			inSummary = true
			matched = true
		case inSummary:
			summary = append(summary, strings.TrimSpace(line))
		}
	}

	if matched {
		desc.Description = strings.TrimSpace(strings.Join(summary, "\n"))
	}
	if desc.Description == "" {
		desc.Description = strings.TrimSpace(output)
		matched = false
	}
	return desc, matched
}
