// Package mcp provides an MCP (Model Context Protocol) server adapter for canvasrag.
// It lets AI assistants ask questions about a workspace and inspect the
// retrieved context.
package mcp

import "errors"

// ErrMissingChatService is returned when the chat service is not provided.
var ErrMissingChatService = errors.New("mcp: chat service is required")

// ErrServiceNotConfigured is returned by tools whose backing service is absent.
var ErrServiceNotConfigured = errors.New("mcp: service not configured")
