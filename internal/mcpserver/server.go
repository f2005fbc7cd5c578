// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Mannaz contact tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/mannaz/internal/contactservice"
	"github.com/starford/mannaz/internal/storage"
)

// Server wraps the MCP server with Mannaz tools.
type Server struct {
	mcp   *server.MCPServer
	store storage.Provider
	svc   *contactservice.Service
}

// New creates a new MCP server with all Mannaz tools registered.
func New(store storage.Provider, svc *contactservice.Service) *Server {
	s := &Server{store: store, svc: svc}

	s.mcp = server.NewMCPServer(
		"Mannaz",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_contacts",
		mcp.WithDescription("Full-text search through contact names, companies, and card text."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchContacts)

	s.mcp.AddTool(mcp.NewTool("read_contact",
		mcp.WithDescription("Read one contact: the extracted record plus the full note body."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Contact note path (e.g. contacts/Jane Doe.md)")),
	), s.readContact)

	s.mcp.AddTool(mcp.NewTool("list_contacts",
		mcp.WithDescription("List contacts ordered by name."),
		mcp.WithString("limit", mcp.Description("Optional page size (default 50)")),
	), s.listContacts)

	s.mcp.AddTool(mcp.NewTool("delete_contact",
		mcp.WithDescription("Delete a contact: its note, its card image, and its index entry."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Contact note path to delete")),
	), s.deleteContact)

	s.mcp.AddTool(mcp.NewTool("upload_card",
		mcp.WithDescription("Drop a business card image into the vault inbox for ingestion. "+
			"Accepts an http(s) URL or a base64 data URI. The card is processed "+
			"asynchronously; a contact note appears once extraction finishes. "+
			"Generated notes follow the layout in the mannaz://contact-note-format resource."),
		mcp.WithString("url", mcp.Required(), mcp.Description("Image URL or data URI (jpg, png, webp)")),
		mcp.WithString("filename", mcp.Description("Optional file name for the inbox copy")),
	), s.uploadCard)

	// Resource: generated note layout.
	s.mcp.AddResource(
		mcp.NewResource("mannaz://contact-note-format", "Contact Note Format",
			mcp.WithResourceDescription("Layout of the Markdown notes Mannaz generates for contacts."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readContactFormatResource,
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

func (s *Server) searchContacts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readContact(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	detail, err := s.svc.GetContact(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	out, _ := json.MarshalIndent(detail, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listContacts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := 0
	if v, err := req.RequireString("limit"); err == nil {
		limit, _ = strconv.Atoi(v)
	}

	items, total, err := s.svc.ListContacts(ctx, limit, 0)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(map[string]any{
		"contacts": items,
		"total":    total,
	}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) deleteContact(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.DeleteContact(ctx, path); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %s", path)), nil
}

func (s *Server) readContactFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "mannaz://contact-note-format",
			MIMEType: "text/markdown",
			Text:     ContactNoteFormat,
		},
	}, nil
}
