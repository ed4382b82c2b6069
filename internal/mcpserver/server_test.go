package mcpserver

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/skaldra/notedown/internal/noteservice"
	"github.com/skaldra/notedown/internal/testutil"
)

func testServer(t *testing.T) (*Server, *testutil.Vault) {
	t.Helper()
	v := testutil.NewVault(t)
	svc := noteservice.NewService(noteservice.Params{
		Store:        v.Store,
		DB:           v.DB,
		HomeSentinel: testutil.Sentinel,
	})
	return New(svc), v
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	var result *mcp.CallToolResult
	var err error

	switch name {
	case "resolve_link":
		result, err = srv.resolveLink(ctx, req)
	case "read_note":
		result, err = srv.readNote(ctx, req)
	case "create_note":
		result, err = srv.createNote(ctx, req)
	case "rename_note":
		result, err = srv.renameNote(ctx, req)
	case "lint_note":
		result, err = srv.lintNote(ctx, req)
	case "list_titles":
		result, err = srv.listTitles(ctx, req)
	case "get_backlinks":
		result, err = srv.getBacklinks(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestCreateAndReadNote(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "create_note", map[string]interface{}{
		"title":  "Test",
		"origin": "Home",
	})
	text := resultText(r)
	if text != "created: Test.md" {
		t.Errorf("create result = %q", text)
	}

	r = callTool(t, srv, "read_note", map[string]interface{}{
		"path": "Test.md",
	})
	text = resultText(r)
	if !strings.Contains(text, "# Test") || !strings.Contains(text, "[[Home]]") {
		t.Errorf("read result = %q", text)
	}
}

func TestReadNoteMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "read_note", map[string]interface{}{"path": "nope.md"})
	if !r.IsError {
		t.Error("expected error for missing note")
	}
}

func TestResolveLink(t *testing.T) {
	srv, v := testServer(t)
	_ = v.Store.Write("Alpha.md", []byte("# Alpha\n"))

	r := callTool(t, srv, "resolve_link", map[string]interface{}{"name": "alpha"})
	text := resultText(r)
	if !strings.Contains(text, `"unique"`) || !strings.Contains(text, "Alpha.md") {
		t.Errorf("resolve result = %q", text)
	}

	r = callTool(t, srv, "resolve_link", map[string]interface{}{"name": "ghost"})
	if !strings.Contains(resultText(r), `"not_found"`) {
		t.Errorf("resolve result = %q", resultText(r))
	}
}

func TestRenameNote(t *testing.T) {
	srv, v := testServer(t)
	_ = v.Store.Write("Old.md", []byte("# Old\n"))
	_ = v.Store.Write("Ref.md", []byte("see [[Old]]\n"))

	r := callTool(t, srv, "rename_note", map[string]interface{}{
		"path":     "Old.md",
		"new_name": "New",
	})
	text := resultText(r)
	if !strings.Contains(text, "New.md") || !strings.Contains(text, "1 files updated") {
		t.Errorf("rename result = %q", text)
	}
	data, _ := v.Store.Read("Ref.md")
	if string(data) != "see [[New]]\n" {
		t.Errorf("Ref.md = %q", data)
	}
}

func TestLintNote(t *testing.T) {
	srv, v := testServer(t)
	_ = v.Store.Write("Note.md", []byte("# Note\n\n[[Ghost]]\n"))

	r := callTool(t, srv, "lint_note", map[string]interface{}{"path": "Note.md"})
	text := resultText(r)
	if !strings.Contains(text, "[[Ghost]]") {
		t.Errorf("lint result = %q", text)
	}
}

func TestListTitles(t *testing.T) {
	srv, v := testServer(t)
	_ = v.Store.Write("Go.md", []byte("# Go\n"))
	_ = v.Store.Write("Python.md", []byte("# Python\n"))

	r := callTool(t, srv, "list_titles", map[string]interface{}{"exclude": "Go.md"})
	text := resultText(r)
	if text != "Python" {
		t.Errorf("titles = %q", text)
	}
}

func TestGetBacklinks(t *testing.T) {
	srv, _ := testServer(t)
	_ = callTool(t, srv, "create_note", map[string]interface{}{
		"title":  "Child",
		"origin": "Parent",
	})

	r := callTool(t, srv, "get_backlinks", map[string]interface{}{"name": "Parent"})
	if text := resultText(r); text != "Child.md" {
		t.Errorf("backlinks = %q, want Child.md", text)
	}
}
