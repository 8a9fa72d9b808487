package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/canvasrag/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for canvasrag resources.
	uriScheme = "canvasrag://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "owners/{owner}/context/{query}",
		Name:        "owner-context",
		Description: "Semantic context retrieved for a query in an owner's workspace",
		MIMEType:    "text/plain",
	}, s.handleContextResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "owners/{owner}/documents/{query}",
		Name:        "owner-documents",
		Description: "Ranked slides retrieved for a query in an owner's workspace",
		MIMEType:    "application/json",
	}, s.handleDocumentsResource)
}

// handleContextResource returns the rendered semantic context for a query.
func (s *Server) handleContextResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	report, err := s.queryResource(ctx, req.Params.URI, "context")
	if err != nil {
		return nil, err
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     report.Context,
		}},
	}, nil
}

// handleDocumentsResource returns the ranked documents for a query.
func (s *Server) handleDocumentsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	report, err := s.queryResource(ctx, req.Params.URI, "documents")
	if err != nil {
		return nil, err
	}

	docs := report.Documents
	if docs == nil {
		docs = []domain.RetrievalResult{}
	}
	data, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling documents: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

func (s *Server) queryResource(ctx context.Context, uri, section string) (*domain.ContextReport, error) {
	if s.ports.Context == nil {
		return nil, mcp.ResourceNotFoundError(uri)
	}

	owner, query := extractOwnerQuery(uri, section)
	if owner == "" || query == "" {
		return nil, mcp.ResourceNotFoundError(uri)
	}

	report, err := s.ports.Context.Query(ctx, domain.Owner(owner), query)
	if err != nil {
		return nil, fmt.Errorf("querying context: %w", err)
	}
	return report, nil
}

// extractOwnerQuery splits a URI like canvasrag://owners/{owner}/{section}/{query}.
// Both parts are path-unescaped; empty strings mean the URI does not match.
func extractOwnerQuery(uri, section string) (owner, query string) {
	const prefix = uriScheme + "owners/"

	if !strings.HasPrefix(uri, prefix) {
		return "", ""
	}

	rawOwner, rest, ok := strings.Cut(strings.TrimPrefix(uri, prefix), "/"+section+"/")
	if !ok || strings.Contains(rawOwner, "/") {
		return "", ""
	}

	owner, err := url.PathUnescape(rawOwner)
	if err != nil {
		return "", ""
	}
	query, err = url.PathUnescape(rest)
	if err != nil {
		return "", ""
	}
	return owner, query
}
