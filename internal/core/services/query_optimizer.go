package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/custodia-labs/canvasrag/internal/core/domain"
	"github.com/custodia-labs/canvasrag/internal/core/ports/driven"
	"github.com/custodia-labs/canvasrag/internal/logger"
)

// Optimizer call limits.
const (
	optimizerTemperature = 0.1
	optimizerMaxTokens   = 300
)

// Optimizer output fields. Each is one line "FIELD: value".
const (
	fieldNeedsContext  = "NEEDS_CONTEXT"
	fieldOptimized     = "OPTIMIZED"
	fieldNeedsImage    = "NEEDS_IMAGE"
	fieldEntityFilters = "ENTITY_FILTERS"
)

// fieldAliases are accepted spellings that are reported as prefix drift.
var fieldAliases = map[string]string{
	"PROJECT_NAMES": fieldEntityFilters,
}

// prefixPattern matches a line that looks like a schema field.
var prefixPattern = regexp.MustCompile(`^[A-Z][A-Z_]*$`)

// Drift kinds reported when the model output departs from the schema.
const (
	DriftAlias        = "alias"
	DriftDuplicate    = "duplicate"
	DriftUnrecognized = "unrecognized"
	DriftInvalidValue = "invalid_value"
)

// PrefixDrift describes one departure from the optimizer output schema.
type PrefixDrift struct {
	Kind  string
	Field string
	Line  string
}

// ParseResult is the outcome of parsing optimizer output.
type ParseResult struct {
	Decision domain.OptimizerDecision

	// Recognized lists the schema fields that were set, in order seen.
	Recognized []string

	// Drift lists every departure from the schema.
	Drift []PrefixDrift
}

// Fallback reports whether no field was recognised, so every value is a default.
func (p ParseResult) Fallback() bool {
	return len(p.Recognized) == 0
}

// QueryOptimizer decides whether a query needs workspace data, rewrites it
// for retrieval, decides whether screenshots help, and extracts named
// entities, all in a single generation call.
type QueryOptimizer struct {
	llm           driven.LLMService
	prompts       driven.PromptStore
	sink          driven.EventSink
	historyWindow int
}

// NewQueryOptimizer creates an optimizer. llm may be nil, in which case
// every decision is the default.
func NewQueryOptimizer(llm driven.LLMService, prompts driven.PromptStore) *QueryOptimizer {
	return &QueryOptimizer{
		llm:           llm,
		prompts:       prompts,
		historyWindow: domain.DefaultHistoryWindow,
	}
}

// SetEventSink sets the sink for optimizer events.
func (o *QueryOptimizer) SetEventSink(sink driven.EventSink) {
	o.sink = sink
}

// SetHistoryWindow sets how many recent turns are shown to the model.
func (o *QueryOptimizer) SetHistoryWindow(n int) {
	if n > 0 {
		o.historyWindow = n
	}
}

// Optimize returns the retrieval plan for rawQuery. It never fails: any
// upstream error yields domain.DefaultDecision.
func (o *QueryOptimizer) Optimize(
	ctx context.Context, rawQuery string, history []domain.ConversationTurn,
) domain.OptimizerDecision {
	logger.Section("Query Optimization")

	if o.llm == nil {
		o.fallback(rawQuery, "llm_unavailable")
		return domain.DefaultDecision(rawQuery)
	}

	prompt, err := o.buildPrompt(rawQuery, history)
	if err != nil {
		o.fallback(rawQuery, "prompt: "+err.Error())
		return domain.DefaultDecision(rawQuery)
	}

	output, err := o.llm.Generate(ctx, prompt, driven.GenerateOptions{
		MaxTokens:   optimizerMaxTokens,
		Temperature: optimizerTemperature,
	})
	if err != nil {
		logger.Warn("Optimizer call failed: %v", err)
		o.fallback(rawQuery, "generate: "+err.Error())
		return domain.DefaultDecision(rawQuery)
	}
	logger.Debug("Optimizer output: %q", output)

	result := ParseOptimizerOutput(rawQuery, output)
	for _, d := range result.Drift {
		emit(o.sink, domain.ComponentOptimizer, domain.EventPrefixDrift, map[string]any{
			"kind":  d.Kind,
			"field": d.Field,
			"line":  d.Line,
		})
	}
	if result.Fallback() {
		o.fallback(rawQuery, "no_recognized_fields")
		return result.Decision
	}

	d := result.Decision
	emit(o.sink, domain.ComponentOptimizer, domain.EventDecision, map[string]any{
		"needs_context":  d.NeedsContext,
		"needs_image":    d.NeedsImage,
		"optimized":      d.OptimizedQuery,
		"entity_filters": d.EntityFilters.String(),
		"recognized":     len(result.Recognized),
	})
	logger.Info("Query %q -> %q (context=%t image=%t filters=%s)",
		rawQuery, d.OptimizedQuery, d.NeedsContext, d.NeedsImage, d.EntityFilters)

	return d
}

func (o *QueryOptimizer) fallback(rawQuery, reason string) {
	emit(o.sink, domain.ComponentOptimizer, domain.EventFallback, map[string]any{
		"reason": reason,
		"query":  rawQuery,
	})
}

func (o *QueryOptimizer) buildPrompt(rawQuery string, history []domain.ConversationTurn) (string, error) {
	template, err := loadPrompt(o.prompts, driven.PromptQueryOptimizer)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(template, RenderHistory(domain.RecentTurns(history, o.historyWindow)), rawQuery), nil
}

// RenderHistory renders turns role-prefixed in original order, as a block
// that can be embedded in a prompt. It returns "" for no turns.
func RenderHistory(turns []domain.ConversationTurn) string {
	if len(turns) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\nCONVERSATION HISTORY (for context):\n")
	for _, t := range turns {
		fmt.Fprintf(&b, "%s: %s\n", strings.ToUpper(string(t.Role())), t.Text())
	}
	return b.String()
}

// ParseOptimizerOutput parses the line-prefixed optimizer output.
//
// Fallback table, applied per field when its line is absent or its value
// cannot be parsed:
//
//	NEEDS_CONTEXT   true
//	OPTIMIZED       raw query (also when the value is empty or "none")
//	NEEDS_IMAGE     false
//	ENTITY_FILTERS  none
//
// Lines that do not look like a field are ignored. Field-like lines with an
// unknown prefix, alias prefixes, repeated fields and unparseable values are
// reported as drift. A repeated field takes the value of its last line.
func ParseOptimizerOutput(rawQuery, output string) ParseResult {
	result := ParseResult{Decision: domain.DefaultDecision(rawQuery)}
	seen := make(map[string]bool)

	for _, line := range strings.Split(output, "\n") {
		key, value, ok := splitFieldLine(line)
		if !ok {
			continue
		}
		trimmed := strings.TrimSpace(line)

		field := key
		if canonical, isAlias := fieldAliases[key]; isAlias {
			result.Drift = append(result.Drift, PrefixDrift{Kind: DriftAlias, Field: key, Line: trimmed})
			field = canonical
		}

		switch field {
		case fieldNeedsContext, fieldOptimized, fieldNeedsImage, fieldEntityFilters:
		default:
			result.Drift = append(result.Drift, PrefixDrift{Kind: DriftUnrecognized, Field: key, Line: trimmed})
			continue
		}

		if seen[field] {
			result.Drift = append(result.Drift, PrefixDrift{Kind: DriftDuplicate, Field: field, Line: trimmed})
		}

		if !applyField(&result.Decision, field, value, rawQuery) {
			result.Drift = append(result.Drift, PrefixDrift{Kind: DriftInvalidValue, Field: field, Line: trimmed})
			continue
		}
		if !seen[field] {
			result.Recognized = append(result.Recognized, field)
		}
		seen[field] = true
	}

	return result
}

// splitFieldLine splits "FIELD: value" tolerating surrounding markdown.
// ok is false for lines that do not look like a schema field.
func splitFieldLine(line string) (key, value string, ok bool) {
	line = strings.TrimSpace(line)
	line = strings.TrimLeft(line, "-*# \t")
	idx := strings.Index(line, ":")
	if idx <= 0 {
		return "", "", false
	}
	key = strings.Trim(line[:idx], "*` \t")
	key = strings.ToUpper(strings.ReplaceAll(key, " ", "_"))
	if !prefixPattern.MatchString(key) {
		return "", "", false
	}
	value = strings.Trim(strings.TrimSpace(line[idx+1:]), "*`\"' \t")
	return key, value, true
}

// applyField sets one decision field. It returns false when value is not
// valid for field, leaving the decision unchanged.
func applyField(d *domain.OptimizerDecision, field, value, rawQuery string) bool {
	switch field {
	case fieldNeedsContext:
		b, ok := parseYesNo(value)
		if !ok {
			return false
		}
		d.NeedsContext = b
	case fieldNeedsImage:
		b, ok := parseYesNo(value)
		if !ok {
			return false
		}
		d.NeedsImage = b
	case fieldOptimized:
		if value == "" || strings.EqualFold(value, "none") {
			d.OptimizedQuery = rawQuery
		} else {
			d.OptimizedQuery = value
		}
	case fieldEntityFilters:
		d.EntityFilters = parseEntityFilters(value)
	}
	return true
}

func parseYesNo(value string) (bool, bool) {
	v := strings.ToUpper(strings.TrimSpace(value))
	switch {
	case strings.HasPrefix(v, "YES"), strings.HasPrefix(v, "TRUE"):
		return true, true
	case strings.HasPrefix(v, "NO"), strings.HasPrefix(v, "FALSE"):
		return false, true
	default:
		return false, false
	}
}

func parseEntityFilters(value string) domain.EntityFilters {
	v := strings.TrimSpace(value)
	switch strings.ToUpper(v) {
	case "", "NONE", "N/A":
		return domain.NoFilters()
	case "ALL":
		return domain.AllFilters()
	}
	parts := strings.Split(v, ",")
	for i := range parts {
		parts[i] = strings.Trim(strings.TrimSpace(parts[i]), "\"'")
	}
	return domain.NamedFilters(parts...)
}

// loadPrompt loads a template from store, falling back to the built-in default.
func loadPrompt(store driven.PromptStore, name string) (string, error) {
	if store != nil {
		if p, err := store.Load(name); err == nil && strings.TrimSpace(p) != "" {
			return p, nil
		}
	}
	if p, ok := driven.DefaultPrompts()[name]; ok {
		return p, nil
	}
	return "", fmt.Errorf("prompt %q not available", name)
}
