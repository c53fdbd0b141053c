package mcp

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/dshills/portfolio-search/internal/searcher"
	"github.com/dshills/portfolio-search/pkg/types"
)

const (
	// ServerName is the MCP server name
	ServerName = "portfolio-search"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// SearchService is the query surface the tools call
type SearchService interface {
	Search(ctx context.Context, q string, opts searcher.Options) ([]types.SearchResult, error)
	Suggest(ctx context.Context, q string) ([]string, error)
	Invalidate()
	Status() searcher.Status
}

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp    *server.MCPServer
	search SearchService
	logger *slog.Logger
}

// NewServer creates a new MCP server instance
func NewServer(search SearchService, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	mcpServer := server.NewMCPServer(
		ServerName,
		ServerVersion,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	s := &Server{
		mcp:    mcpServer,
		search: search,
		logger: logger,
	}
	s.registerTools()
	return s
}

// Serve runs the MCP server on stdio until ctx is cancelled or stdin closes
func (s *Server) Serve(ctx context.Context) error {
	return s.ServeIO(ctx, os.Stdin, os.Stdout)
}

// ServeIO runs the MCP server over the given streams
func (s *Server) ServeIO(ctx context.Context, in io.Reader, out io.Writer) error {
	s.logger.Info("mcp server listening on stdio", "name", ServerName, "version", ServerVersion)
	return server.NewStdioServer(s.mcp).Listen(ctx, in, out)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(searchContentTool(), s.handleSearchContent)
	s.mcp.AddTool(suggestContentTool(), s.handleSuggestContent)
	s.mcp.AddTool(invalidateCacheTool(), s.handleInvalidateCache)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
}
