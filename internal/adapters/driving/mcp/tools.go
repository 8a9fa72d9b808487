package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/canvasrag/internal/core/domain"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Owner         string `json:"owner" jsonschema:"the workspace owner id"`
	Query         string `json:"query" jsonschema:"the question about the workspace"`
	SubCollection string `json:"project_id,omitempty" jsonschema:"restrict slide retrieval to one project id"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer      string `json:"answer"`
	ContextUsed bool   `json:"context_used"`
}

// QueryContextInput is the input schema for the query_context tool.
type QueryContextInput struct {
	Owner string `json:"owner" jsonschema:"the workspace owner id"`
	Query string `json:"query" jsonschema:"the text to retrieve slides for"`
}

// QueryContextOutput is the output schema for the query_context tool.
type QueryContextOutput struct {
	Documents []DocumentOutput `json:"documents"`
	Context   string           `json:"context"`
	Count     int              `json:"count"`
}

// DocumentOutput represents a single retrieved document.
type DocumentOutput struct {
	DocumentID string  `json:"document_id"`
	Name       string  `json:"name"`
	ProjectID  string  `json:"project_id,omitempty"`
	Score      float64 `json:"relevance_score"`
	Text       string  `json:"text"`
}

// IndexOwnerInput is the input schema for the index_owner tool.
type IndexOwnerInput struct {
	Owner string `json:"owner" jsonschema:"the workspace owner id"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question using the owner's projects, todos and slides",
	}, s.handleAsk)

	if s.ports.Context != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "query_context",
			Description: "Return the slides retrieved for a query without generating an answer",
		}, s.handleQueryContext)
	}

	if s.ports.Index != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "index_owner",
			Description: "Re-embed every slide of an owner",
		}, s.handleIndexOwner)
	}
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	answer, err := s.ports.Chat.Answer(ctx, domain.ChatRequest{
		Owner:         domain.Owner(input.Owner),
		Query:         input.Query,
		SubCollection: input.SubCollection,
	})
	if err != nil {
		return nil, AskOutput{}, err
	}
	return nil, AskOutput{Answer: answer.Answer, ContextUsed: answer.ContextUsed}, nil
}

// handleQueryContext handles the query_context tool invocation.
func (s *Server) handleQueryContext(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QueryContextInput,
) (*mcp.CallToolResult, QueryContextOutput, error) {
	if s.ports.Context == nil {
		return nil, QueryContextOutput{}, ErrServiceNotConfigured
	}
	report, err := s.ports.Context.Query(ctx, domain.Owner(input.Owner), input.Query)
	if err != nil {
		return nil, QueryContextOutput{}, err
	}

	output := QueryContextOutput{
		Documents: make([]DocumentOutput, len(report.Documents)),
		Context:   report.Context,
		Count:     len(report.Documents),
	}
	for i, d := range report.Documents {
		output.Documents[i] = DocumentOutput{
			DocumentID: domain.DocumentID(string(d.Metadata.Type), d.Metadata.EntityID),
			Name:       d.Metadata.Name,
			ProjectID:  d.Metadata.ParentCollection,
			Score:      d.Similarity,
			Text:       d.Text,
		}
	}
	return nil, output, nil
}

// handleIndexOwner handles the index_owner tool invocation.
func (s *Server) handleIndexOwner(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IndexOwnerInput,
) (*mcp.CallToolResult, domain.IndexReport, error) {
	if s.ports.Index == nil {
		return nil, domain.IndexReport{}, ErrServiceNotConfigured
	}
	report, err := s.ports.Index.IndexOwner(ctx, domain.Owner(input.Owner))
	if err != nil {
		return nil, domain.IndexReport{}, fmt.Errorf("indexing %s: %w", input.Owner, err)
	}
	return nil, *report, nil
}
