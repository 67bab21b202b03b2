// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes memoria journal tools for LLM integration via stdio
// transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/leaflora/memoria/internal/journal"
	"github.com/leaflora/memoria/internal/models"
)

// Server wraps the MCP server with journal tools.
type Server struct {
	mcp     *server.MCPServer
	journal *journal.Service
}

// New creates a new MCP server with all journal tools registered. The
// caller is responsible for restoring an authenticated session first;
// the tools fail with the usual unauthenticated error otherwise.
func New(svc *journal.Service) *Server {
	s := &Server{journal: svc}

	s.mcp = server.NewMCPServer(
		"Memoria",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_memories",
		mcp.WithDescription("List all journal memories ordered by event date."),
		mcp.WithString("sort", mcp.Description("Sort direction: asc or desc (default desc)")),
	), s.listMemories)

	s.mcp.AddTool(mcp.NewTool("search_memories",
		mcp.WithDescription("Search memories by keyword and/or calendar day. "+
			"The keyword matches titles and content case-insensitively."),
		mcp.WithString("query", mcp.Description("Keyword to match against title and content")),
		mcp.WithString("day", mcp.Description("Calendar day filter in YYYY-MM-DD form")),
	), s.searchMemories)

	s.mcp.AddTool(mcp.NewTool("create_memory",
		mcp.WithDescription("Record a new text memory. Content is required; "+
			"the event date defaults to now. Media memories need staged files "+
			"and are outside this tool's scope. Read the get_memory_contract "+
			"tool or the memoria://memory-format resource first."),
		mcp.WithString("content", mcp.Required(), mcp.Description("The memory text")),
		mcp.WithString("title", mcp.Description("Optional short title")),
		mcp.WithString("event_date", mcp.Required(), mcp.Description("When it happened, as 2006-01-02T15:04 or 2006-01-02")),
	), s.createMemory)

	s.mcp.AddTool(mcp.NewTool("delete_memory",
		mcp.WithDescription("Permanently delete a memory by its numeric id."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("The memory id from list_memories")),
	), s.deleteMemory)

	s.mcp.AddTool(mcp.NewTool("get_memory_contract",
		mcp.WithDescription("Returns the canonical memory record contract. "+
			"Call this before creating memories to ensure correct structure."),
	), s.getMemoryContract)

	// Resource: memory record contract.
	s.mcp.AddResource(
		mcp.NewResource("memoria://memory-format", "Memory Record Contract",
			mcp.WithResourceDescription("Canonical memory record structure and field semantics."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readMemoryFormatResource,
	)

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

func (s *Server) listMemories(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dir := models.SortDescending
	if v, err := req.RequireString("sort"); err == nil && v == string(models.SortAscending) {
		dir = models.SortAscending
	}
	s.journal.SetSort(dir)

	if err := s.journal.Load(ctx); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(s.journal.Records(), "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) searchMemories(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var filter models.SearchFilter
	if v, err := req.RequireString("query"); err == nil {
		filter.Keyword = v
	}
	if v, err := req.RequireString("day"); err == nil {
		filter.Day = v
	}

	if err := s.journal.Load(ctx); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results := s.journal.Filter(filter)
	if len(results) == 0 {
		return mcp.NewToolResultText("no memories matched"), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) createMemory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rawDate, err := req.RequireString("event_date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	eventDate, err := parseEventDate(rawDate)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	draft := models.Draft{
		Content:   content,
		EventDate: eventDate,
		Kind:      models.KindText,
	}
	if title, err := req.RequireString("title"); err == nil {
		draft.Title = title
	}

	if err := s.journal.Create(ctx, draft, nil); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("memory saved"), nil
}

func (s *Server) deleteMemory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireFloat("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	// No interactive prompt over stdio; the tool call itself is the
	// confirmation.
	if err := s.journal.Delete(ctx, int64(id), nil); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted memory %d", int64(id))), nil
}

func (s *Server) getMemoryContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(MemoryFormatContract), nil
}

func (s *Server) readMemoryFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "memoria://memory-format",
			MIMEType: "text/markdown",
			Text:     MemoryFormatContract,
		},
	}, nil
}

func parseEventDate(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid event_date %q: want 2006-01-02T15:04 or 2006-01-02", s)
}
