// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Raido sync tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/raido/internal/api"
	"github.com/starford/raido/internal/journal"
	"github.com/starford/raido/internal/store"
)

// Server wraps the MCP server with Raido tools.
type Server struct {
	mcp     *server.MCPServer
	syncer  api.Syncer
	store   store.Provider
	history journal.Journal
}

// New creates a new MCP server with all Raido tools registered.
// history may be nil when run history is not persisted.
func New(syncer api.Syncer, st store.Provider, history journal.Journal) *Server {
	s := &Server{syncer: syncer, store: st, history: history}

	s.mcp = server.NewMCPServer(
		"Raido",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("sync_now",
		mcp.WithDescription("Run a sync pass between the local vault and the remote collection. "+
			"Returns per-direction counts and any terminal failures."),
		mcp.WithBoolean("dry_run", mcp.Description("Plan the pass without changing either side")),
	), s.syncNow)

	s.mcp.AddTool(mcp.NewTool("sync_status",
		mcp.WithDescription("Report the sync queue state, pending operation count, and the last recorded run."),
	), s.syncStatus)

	s.mcp.AddTool(mcp.NewTool("read_document",
		mcp.WithDescription("Read the full content of a vault document, including its sync metadata header."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the document (e.g. topics/note.md)")),
	), s.readDocument)

	s.mcp.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List all markdown documents in the vault."),
	), s.listDocuments)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) syncNow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dryRun := req.GetBool("dry_run", false)
	summary, err := s.syncer.Sync(ctx, dryRun)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(summary, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) syncStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status := map[string]any{
		"state":   s.syncer.QueueState(),
		"pending": s.syncer.Pending(),
	}
	if s.history != nil {
		if last, err := s.history.LastRun(); err == nil && last != nil {
			status["lastRun"] = last
		}
	}
	out, _ := json.MarshalIndent(status, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, err := s.store.Read(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) listDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docs, err := s.store.ListDocuments()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	paths := make([]string, 0, len(docs))
	for _, d := range docs {
		paths = append(paths, d.Path)
	}
	out, _ := json.MarshalIndent(paths, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}
