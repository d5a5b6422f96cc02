// Package rpcserver exposes an Engine over the Model Context Protocol's
// JSON-RPC 2.0 stdio transport (spec §6.1): one object per line, not LSP
// Content-Length framing. Grounded on the teacher's internal/mcp/server.go,
// which wires the same four-tool surface (there: search/search_code/
// search_docs/index_status) onto modelcontextprotocol/go-sdk's mcp.Server.
package rpcserver

import (
	"context"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/codeindex-mcp/codeindex/internal/engine"
	"github.com/codeindex-mcp/codeindex/pkg/version"
)

// Server bridges an *engine.Engine to MCP clients (Claude Code, Cursor,
// etc.) over stdio.
type Server struct {
	mcp    *mcp.Server
	engine *engine.Engine
	logger *slog.Logger

	// reindexTimeout bounds a "reindex the whole workspace" call so it
	// cooperatively stops and reports a partial Timeout result instead of
	// blocking tools/call forever (spec §5 deadline propagation).
	reindexTimeout time.Duration
}

// NewServer constructs a Server around e. Registers all four tools named
// in spec §6.1 before returning.
func NewServer(e *engine.Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		engine:         e,
		logger:         logger,
		reindexTimeout: 5 * time.Minute,
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    "codeindexd",
			Version: version.Version,
		},
		nil,
	)

	s.registerTools()
	return s
}

// MCPServer returns the underlying SDK server, e.g. for tests that want to
// drive it directly.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

func (s *Server) reindexDeadline() time.Time {
	if s.reindexTimeout <= 0 {
		return time.Time{}
	}
	return time.Now().Add(s.reindexTimeout)
}

// registerTools registers the four tools named in spec §6.1.
func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "symbol_lookup",
		Description: "Look up a symbol (class, function, method, etc.) by name across the indexed workspace. Returns its kind, defining file, line, signature, and doc comment, or nothing if no symbol matches.",
	}, s.symbolLookupHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "search_code",
		Description: "Full-text search across every indexed file's content. Optionally prefer the dense-vector semantic index over plain keyword matching when one is configured.",
	}, s.searchCodeHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "get_status",
		Description: "Report the index's on-disk location, file/language counts, last-indexed time, and whether the semantic side-index is enabled.",
	}, s.getStatusHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "reindex",
		Description: "Reindex one file by path, or the whole workspace when no path is given. Returns the count of files indexed and failed.",
	}, s.reindexHandler)

	s.logger.Info("registered MCP tools", slog.Int("count", 4))
}

// Serve runs the server over stdio until ctx is canceled or the transport
// closes, per spec §6.1's one-object-per-line JSON-RPC framing.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("starting MCP server", slog.String("transport", "stdio"))
	err := s.mcp.Run(ctx, &mcp.StdioTransport{})
	if err != nil && err != context.Canceled {
		s.logger.Error("MCP server stopped with error", slog.String("error", err.Error()))
		return err
	}
	s.logger.Info("MCP server stopped")
	return nil
}
