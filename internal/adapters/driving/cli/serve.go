package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/canvasrag/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/canvasrag/internal/logger"
)

var (
	serveAddr    string
	serveWithMCP bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP API.

Endpoints:
  POST /chat              stream an answer (SSE), or JSON with "stream": false
  POST /query-context     show retrieved slides and context
  POST /index-user-data   re-embed an owner's slides
  POST /analyze-canvas    stream an analysis of one image, or describe it
  GET  /health            dependency status
  GET  /metrics           Prometheus metrics
  ANY  /mcp               MCP streamable HTTP transport (with --mcp)

Prompt files are watched and reloaded while the server runs. When
scheduler.owners and scheduler.interval_minutes are set, those owners are
re-indexed in the background.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from server.addr)")
	serveCmd.Flags().BoolVar(&serveWithMCP, "mcp", false, "also serve MCP under /mcp")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if chatService == nil {
		return errors.New("chat service not configured")
	}

	addr := serveAddr
	if addr == "" {
		addr = serveDeps.Server.Addr
	}
	if addr == "" {
		addr = ":8000"
	}

	cfg := httpapi.Config{
		Addr:           addr,
		AllowedOrigins: serveDeps.Server.AllowedOrigins,
		Version:        version,
		Chat:           chatService,
		Index:          indexService,
		Analysis:       analysisService,
		Context:        contextService,
		Probes:         serveDeps.Probes,
		Metrics:        serveDeps.Metrics,
	}
	if serveWithMCP {
		mcpServer, err := newMCPServer()
		if err != nil {
			return err
		}
		cfg.MCP = mcpServer.Handler()
	}

	server, err := httpapi.NewServer(cfg)
	if err != nil {
		return fmt.Errorf("building HTTP API: %w", err)
	}

	ctx := cmd.Context()
	if serveDeps.Prompts != nil {
		go func() {
			if err := serveDeps.Prompts.Watch(ctx); err != nil {
				logger.Warn("Prompt reload disabled: %v", err)
			}
		}()
	}

	if serveDeps.Scheduler != nil {
		go func() {
			if err := serveDeps.Scheduler.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("Scheduler stopped: %v", err)
			}
		}()
		defer func() {
			if err := serveDeps.Scheduler.Stop(); err != nil {
				logger.Warn("Stopping scheduler: %v", err)
			}
		}()
	}

	cmd.Printf("canvasrag %s listening on %s\n", version, addr)
	return server.Run(ctx)
}
