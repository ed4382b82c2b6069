// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the note-graph tools for LLM integration via stdio
// transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/skaldra/notedown/internal/noteservice"
)

// Server wraps the MCP server with note-graph tools.
type Server struct {
	mcp *server.MCPServer
	svc *noteservice.Service
}

// New creates a new MCP server with all tools registered.
func New(svc *noteservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Notedown",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("resolve_link",
		mcp.WithDescription("Resolve a [[wikilink]] name to the note files it refers to. "+
			"Reports unique, ambiguous (multiple candidates) or not_found."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Link name as written between the brackets")),
		mcp.WithString("from", mcp.Description("Vault-relative path of the note the link appears in")),
	), s.resolveLink)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read the full content of a Markdown note, with its backlinks."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Vault-relative path to the note (e.g. topics/note.md)")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a new note from the configured template. "+
			"Fails if a note with that title already exists."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Title of the new note")),
		mcp.WithString("origin", mcp.Description("Title of the note the link back should point to")),
		mcp.WithString("dir", mcp.Description("Vault-relative directory to create the note in")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("rename_note",
		mcp.WithDescription("Rename a note and rewrite every [[wikilink]] in its corpus "+
			"that pointed at the old name."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Vault-relative path of the note to rename")),
		mcp.WithString("new_name", mcp.Required(), mcp.Description("New basename without extension")),
	), s.renameNote)

	s.mcp.AddTool(mcp.NewTool("lint_note",
		mcp.WithDescription("Check a note for a missing or mismatched heading and dangling links."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Vault-relative path of the note to lint")),
	), s.lintNote)

	s.mcp.AddTool(mcp.NewTool("list_titles",
		mcp.WithDescription("List the titles of every note in a corpus, for link completion."),
		mcp.WithString("exclude", mcp.Description("Vault-relative path of a note to exclude from the list")),
	), s.listTitles)

	s.mcp.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("Find all notes that link to the named note."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Title of the note to find backlinks for")),
	), s.getBacklinks)

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

func (s *Server) resolveLink(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	from := ""
	if f, err := req.RequireString("from"); err == nil {
		from = f
	}
	res, err := s.svc.Resolve(ctx, from, name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(res, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.svc.GetNote(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	out, _ := json.MarshalIndent(note, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	origin := ""
	if o, err := req.RequireString("origin"); err == nil {
		origin = o
	}
	dir := ""
	if d, err := req.RequireString("dir"); err == nil {
		dir = d
	}
	path, err := s.svc.CreateNote(ctx, title, origin, dir)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", path)), nil
}

func (s *Server) renameNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	newName, err := req.RequireString("new_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.RenameNote(ctx, path, newName)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("renamed %s to %s, %d files updated",
		res.OldPath, res.NewPath, res.Updated)), nil
}

func (s *Server) lintNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	errs, err := s.svc.Lint(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(errs) == 0 {
		return mcp.NewToolResultText("no problems found"), nil
	}
	out, _ := json.MarshalIndent(errs, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listTitles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	exclude := ""
	if e, err := req.RequireString("exclude"); err == nil {
		exclude = e
	}
	titles, err := s.svc.Titles(ctx, exclude)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(titles) == 0 {
		return mcp.NewToolResultText("no notes found"), nil
	}
	return mcp.NewToolResultText(strings.Join(titles, "\n")), nil
}

func (s *Server) getBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	bl, err := s.svc.Backlinks(ctx, name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(bl) == 0 {
		return mcp.NewToolResultText("no backlinks found"), nil
	}
	return mcp.NewToolResultText(strings.Join(bl, "\n")), nil
}
