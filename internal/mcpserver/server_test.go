package mcpserver

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/mannaz/internal/contactservice"
	"github.com/starford/mannaz/internal/index"
	"github.com/starford/mannaz/internal/models"
	"github.com/starford/mannaz/internal/notegen"
	"github.com/starford/mannaz/internal/storage"
	"github.com/starford/mannaz/internal/testutil"
)

func testServer(t *testing.T) (*Server, storage.Provider, *index.DB) {
	t.Helper()

	_, store := testutil.TestVault(t)
	db := testutil.TestDB(t)
	svc := contactservice.NewService(store, db, "inbox", "attachments")

	srv := New(store, svc)
	return srv, store, db
}

func seedContact(t *testing.T, store storage.Provider, db *index.DB, name string) string {
	t.Helper()
	rec := models.ContactRecord{Name: name, Company: "Acme", RawText: name}
	notePath := "contacts/" + name + ".md"
	if err := store.Write(notePath, []byte(notegen.Compose(&rec, name+".jpg"))); err != nil {
		t.Fatal(err)
	}
	if err := db.UpsertContact(index.ContactRow{
		NotePath:  notePath,
		Record:    rec,
		ImagePath: "attachments/" + name + ".jpg",
		UpdatedAt: time.Now(),
	}); err != nil {
		t.Fatal(err)
	}
	return notePath
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go doesn't expose a direct "call tool" test helper, so we call
	// the handler functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "search_contacts":
		result, err = srv.searchContacts(ctx, req)
	case "read_contact":
		result, err = srv.readContact(ctx, req)
	case "list_contacts":
		result, err = srv.listContacts(ctx, req)
	case "delete_contact":
		result, err = srv.deleteContact(ctx, req)
	case "upload_card":
		result, err = srv.uploadCard(ctx, req)
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

func TestReadContact(t *testing.T) {
	srv, store, db := testServer(t)
	notePath := seedContact(t, store, db, "Jane Doe")

	r := callTool(t, srv, "read_contact", map[string]interface{}{"path": notePath})
	text := resultText(r)
	if !strings.Contains(text, `"Jane Doe"`) || !strings.Contains(text, "Company: Acme") {
		t.Errorf("read result = %q", text)
	}
}

func TestReadContactMissing(t *testing.T) {
	srv, _, _ := testServer(t)
	r := callTool(t, srv, "read_contact", map[string]interface{}{"path": "contacts/nope.md"})
	if !r.IsError {
		t.Error("expected error for missing contact")
	}
}

func TestListContacts(t *testing.T) {
	srv, store, db := testServer(t)
	seedContact(t, store, db, "Alice")
	seedContact(t, store, db, "Bob")

	r := callTool(t, srv, "list_contacts", map[string]interface{}{})
	text := resultText(r)
	if !strings.Contains(text, `"total": 2`) {
		t.Errorf("list result = %q", text)
	}
}

func TestSearchContacts(t *testing.T) {
	srv, store, db := testServer(t)
	seedContact(t, store, db, "Jane Doe")

	r := callTool(t, srv, "search_contacts", map[string]interface{}{"query": "Jane"})
	text := resultText(r)
	if !strings.Contains(text, "contacts/Jane Doe.md") {
		t.Errorf("search result = %q", text)
	}
}

func TestDeleteContact(t *testing.T) {
	srv, store, db := testServer(t)
	notePath := seedContact(t, store, db, "Bye")

	r := callTool(t, srv, "delete_contact", map[string]interface{}{"path": notePath})
	if resultText(r) != "deleted: "+notePath {
		t.Errorf("delete result = %q", resultText(r))
	}
	if store.Exists(notePath) {
		t.Error("note still on disk")
	}
}

func TestUploadCard_DataURI(t *testing.T) {
	srv, store, _ := testServer(t)

	png := testutil.CardPNG(t, 4, 4)
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)

	r := callTool(t, srv, "upload_card", map[string]interface{}{
		"url":      uri,
		"filename": "fair.png",
	})
	text := resultText(r)
	if r.IsError {
		t.Fatalf("upload failed: %q", text)
	}
	if !strings.Contains(text, `"savedPath":"inbox/fair.png"`) {
		t.Errorf("upload result = %q", text)
	}
	if !store.Exists("inbox/fair.png") {
		t.Error("image not in inbox")
	}
}

func TestUploadCard_RejectsMismatchedContent(t *testing.T) {
	srv, _, _ := testServer(t)

	// JPEG bytes declared as PNG must be rejected.
	jpg := testutil.CardJPEG(t, 4, 4)
	uri := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(jpg)

	r := callTool(t, srv, "upload_card", map[string]interface{}{
		"url":      uri,
		"filename": "fake.png",
	})
	if !r.IsError {
		t.Error("expected error for mismatched content")
	}
}
