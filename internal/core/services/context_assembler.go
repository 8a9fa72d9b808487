package services

import (
	"context"
	"sort"
	"strings"

	"github.com/custodia-labs/canvasrag/internal/core/domain"
	"github.com/custodia-labs/canvasrag/internal/core/ports/driven"
	"github.com/custodia-labs/canvasrag/internal/logger"
)

// semanticHeader labels the ranked asset block in the merged context.
const semanticHeader = "RELEVANT SLIDES/ASSETS:"

// Filter sources reported in filter_inferred events.
const (
	filterSourceExplicit = "explicit"
	filterSourceNamed    = "entity_filter"
	filterSourceQuery    = "query_match"
)

// ContextAssembler merges direct structured context with semantic
// retrieval into the text handed to generation.
type ContextAssembler struct {
	direct    *DirectContextFetcher
	retriever *SemanticRetriever
	sink      driven.EventSink
	k         int
}

// NewContextAssembler creates an assembler.
func NewContextAssembler(direct *DirectContextFetcher, retriever *SemanticRetriever) *ContextAssembler {
	return &ContextAssembler{
		direct:    direct,
		retriever: retriever,
		k:         domain.DefaultRetrievalK,
	}
}

// SetEventSink sets the sink for assembler events.
func (a *ContextAssembler) SetEventSink(sink driven.EventSink) {
	a.sink = sink
}

// SetK sets how many semantic results are requested.
func (a *ContextAssembler) SetK(k int) {
	if k > 0 {
		a.k = k
	}
}

// Assemble builds the context for one request. When the decision says no
// context is needed it returns an empty context without touching any store.
// An empty subCollection lets the assembler infer one from the decision's
// entity filters or the raw query.
func (a *ContextAssembler) Assemble(
	ctx context.Context, owner domain.Owner, decision domain.OptimizerDecision, subCollection string,
) *domain.AssembledContext {
	if !decision.NeedsContext {
		logger.Debug("Context not needed, skipping retrieval")
		emit(a.sink, domain.ComponentAssembler, domain.EventSkipped, map[string]any{
			"owner":  owner.String(),
			"reason": "needs_context=false",
		})
		return &domain.AssembledContext{}
	}

	logger.Section("Context Assembly")

	var directText string
	var entities []domain.StructuredEntity
	if a.direct != nil {
		dc, err := a.direct.Load(ctx, owner)
		if err != nil {
			logger.Warn("Direct context unavailable: %v", err)
		} else {
			directText = dc.Text
			entities = dc.Entities
		}
	}

	filter, source := resolveSubCollection(subCollection, decision, entities)
	if filter != "" {
		emit(a.sink, domain.ComponentAssembler, domain.EventFilterInferred, map[string]any{
			"owner":          owner.String(),
			"sub_collection": filter,
			"source":         source,
		})
	}

	var retrieval Retrieval
	if a.retriever != nil {
		retrieval = a.retriever.Retrieve(ctx, owner, decision.OptimizedQuery, a.k, filter)
	} else {
		retrieval = Retrieval{Failed: true}
	}

	text := MergeContext(directText, RenderDocuments(retrieval.Results))

	emit(a.sink, domain.ComponentAssembler, domain.EventContext, map[string]any{
		"owner":            owner.String(),
		"direct_chars":     len(directText),
		"documents":        len(retrieval.Results),
		"retrieval_failed": retrieval.Failed,
		"sub_collection":   filter,
	})

	return &domain.AssembledContext{
		Text:            text,
		Documents:       retrieval.Results,
		SubCollection:   filter,
		RetrievalFailed: retrieval.Failed,
	}
}

// MergeContext joins direct text and the semantic block. When both are
// empty it returns domain.EmptyContextSentinel.
func MergeContext(directText, semanticText string) string {
	var parts []string
	if s := strings.TrimSpace(directText); s != "" {
		parts = append(parts, s)
	}
	if s := strings.TrimSpace(semanticText); s != "" {
		parts = append(parts, semanticHeader+"\n"+s)
	}
	if len(parts) == 0 {
		return domain.EmptyContextSentinel
	}
	return strings.Join(parts, "\n\n")
}

// resolveSubCollection picks the retrieval filter.
//
// Precedence: an explicit filter; no filter when the optimizer said ALL;
// the first named entity that resolves to a project; otherwise a project
// whose title appears in the raw query. Name matching prefers an exact
// case-insensitive title, then the longest title containing or contained
// in the name. Query matching prefers the longest matching title; equal
// lengths resolve to the smaller project id.
func resolveSubCollection(
	explicit string, decision domain.OptimizerDecision, entities []domain.StructuredEntity,
) (string, string) {
	if explicit != "" {
		return explicit, filterSourceExplicit
	}
	if decision.EntityFilters.Mode == domain.FilterAll {
		return "", ""
	}

	projects := projectsByID(entities)

	if decision.EntityFilters.Mode == domain.FilterNames {
		for _, name := range decision.EntityFilters.Names {
			if id := matchProjectName(name, projects); id != "" {
				return id, filterSourceNamed
			}
		}
	}

	if id := longestTitleIn(strings.ToLower(decision.RawQuery), projects); id != "" {
		return id, filterSourceQuery
	}
	return "", ""
}

func projectsByID(entities []domain.StructuredEntity) []domain.StructuredEntity {
	var projects []domain.StructuredEntity
	for i := range entities {
		if entities[i].Kind == domain.EntityKindProject && strings.TrimSpace(entities[i].Title) != "" {
			projects = append(projects, entities[i])
		}
	}
	sort.SliceStable(projects, func(i, j int) bool { return projects[i].ID < projects[j].ID })
	return projects
}

func matchProjectName(name string, projects []domain.StructuredEntity) string {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return ""
	}
	for i := range projects {
		if strings.ToLower(strings.TrimSpace(projects[i].Title)) == needle {
			return projects[i].ID
		}
	}

	best, bestLen := "", 0
	for i := range projects {
		title := strings.ToLower(strings.TrimSpace(projects[i].Title))
		if !strings.Contains(title, needle) && !strings.Contains(needle, title) {
			continue
		}
		if len(title) > bestLen {
			best, bestLen = projects[i].ID, len(title)
		}
	}
	return best
}

func longestTitleIn(query string, projects []domain.StructuredEntity) string {
	best, bestLen := "", 0
	for i := range projects {
		title := strings.ToLower(strings.TrimSpace(projects[i].Title))
		if strings.Contains(query, title) && len(title) > bestLen {
			best, bestLen = projects[i].ID, len(title)
		}
	}
	return best
}
