package internal

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/starford/protweight/internal/mcpserver"
	"github.com/starford/protweight/internal/models"
	"github.com/starford/protweight/internal/queryservice"
)

// RunMCP serves the MCP tools over stdio until the client disconnects.
func RunMCP(_ context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	c, err := app.setup(nil)
	if err != nil {
		return err
	}
	defer c.Close()

	app.logger.Info("Starting MCP server on stdio", slog.String("graphs_path", c.graphs.Root()))
	if err := mcpserver.New(c.graphs, c.svc).ServeStdio(); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}

// Precompute builds (or loads) the bounds of accession and persists them.
// k of 0 uses the configured default.
func Precompute(ctx context.Context, accession string, k int, opts ...Option) (*queryservice.BoundsView, error) {
	app, err := newApplication(opts)
	if err != nil {
		return nil, err
	}
	c, err := app.setup(nil)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	return c.svc.Bounds(ctx, accession, k)
}

// Query runs a single weight query against accession.
func Query(ctx context.Context, accession string, req queryservice.Request, opts ...Option) (*models.QueryResponse, error) {
	app, err := newApplication(opts)
	if err != nil {
		return nil, err
	}
	c, err := app.setup(nil)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	return c.svc.Query(ctx, accession, req)
}
