package mcpserver

import (
	"context"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/grampsxml/internal/archive"
	"github.com/starford/grampsxml/internal/catalog"
	"github.com/starford/grampsxml/internal/storage"
	"github.com/starford/grampsxml/internal/testutil"
)

func testServer(t *testing.T) (*Server, storage.Provider) {
	t.Helper()
	_, store := testutil.TestArchiveDir(t)
	db := testutil.TestDB(t)
	srv := New(archive.NewService(store, db), "test")
	return srv, store
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no in-process call helper, so dispatch to the handlers.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "validate_archive":
		result, err = srv.validateArchive(ctx, req)
	case "read_archive":
		result, err = srv.readArchive(ctx, req)
	case "write_archive":
		result, err = srv.writeArchive(ctx, req)
	case "list_archives":
		result, err = srv.listArchives(ctx, req)
	case "search_entities":
		result, err = srv.searchEntities(ctx, req)
	case "get_format_contract":
		result, err = srv.getFormatContract(ctx, req)
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

func TestWriteAndReadArchive(t *testing.T) {
	srv, _ := testServer(t)

	doc := `{"people":[{"handle":"_p1","id":"I0001","gender":"F","names":[{"first":"Ada","surname":"Lovelace"}]}]}`
	r := callTool(t, srv, "write_archive", map[string]any{"path": "ada.gramps", "document": doc})
	if r.IsError {
		t.Fatalf("write failed: %s", resultText(r))
	}
	if text := resultText(r); text != "created: ada.gramps" {
		t.Errorf("write result = %q", text)
	}

	r = callTool(t, srv, "read_archive", map[string]any{"path": "ada.gramps"})
	var detail archive.Detail
	if err := json.Unmarshal([]byte(resultText(r)), &detail); err != nil {
		t.Fatalf("decode detail: %v", err)
	}
	if len(detail.Document.People) != 1 || detail.Document.People[0].Names[0].Surname != "Lovelace" {
		t.Errorf("people = %+v", detail.Document.People)
	}

	r = callTool(t, srv, "read_archive", map[string]any{"path": "ada.gramps", "format": "xml"})
	if text := resultText(r); !strings.Contains(text, "<surname>Lovelace</surname>") {
		t.Errorf("xml output missing surname:\n%s", text)
	}
}

func TestWriteArchiveRejectsExisting(t *testing.T) {
	srv, store := testServer(t)
	_ = store.Write("tree.xml", testutil.Sample(t))

	r := callTool(t, srv, "write_archive", map[string]any{"path": "tree.xml", "document": "{}"})
	if !r.IsError {
		t.Error("expected error for existing archive")
	}
}

func TestWriteArchiveInvalidJSON(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "write_archive", map[string]any{"path": "x.gramps", "document": "{"})
	if !r.IsError || !strings.HasPrefix(resultText(r), "invalid document") {
		t.Errorf("result = %q", resultText(r))
	}
}

func TestValidateArchive(t *testing.T) {
	srv, store := testServer(t)
	_ = store.Write("bad.xml", []byte(`<database>
  <families><family handle="f1" id="F01"><father hlink="ghost"/></family></families>
</database>`))

	r := callTool(t, srv, "validate_archive", map[string]any{"path": "bad.xml"})
	var report archive.Report
	if err := json.Unmarshal([]byte(resultText(r)), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if len(report.Violations) != 1 || report.Violations[0].Field != "father" {
		t.Errorf("violations = %+v", report.Violations)
	}
}

func TestReadArchiveMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "read_archive", map[string]any{"path": "nope.gramps"})
	if !r.IsError {
		t.Error("expected error for missing archive")
	}
}

func TestListAndSearch(t *testing.T) {
	srv, store := testServer(t)
	_ = store.Write("a.xml", testutil.Sample(t))
	_ = callTool(t, srv, "validate_archive", map[string]any{"path": "a.xml"})

	r := callTool(t, srv, "list_archives", map[string]any{"limit": float64(10)})
	var page struct {
		Archives []catalog.ArchiveRow `json:"archives"`
		Total    int                  `json:"total"`
	}
	if err := json.Unmarshal([]byte(resultText(r)), &page); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if page.Total != 1 || page.Archives[0].Path != "a.xml" {
		t.Errorf("list = %+v", page)
	}

	r = callTool(t, srv, "search_entities", map[string]any{"query": "smith", "kind": "person"})
	var hits []catalog.SearchResult
	if err := json.Unmarshal([]byte(resultText(r)), &hits); err != nil {
		t.Fatalf("decode search: %v", err)
	}
	if len(hits) != 2 {
		t.Errorf("hits = %+v, want 2 people", hits)
	}

	r = callTool(t, srv, "search_entities", map[string]any{"query": "nobody-here"})
	if text := resultText(r); text != "no matches found" {
		t.Errorf("empty search = %q", text)
	}

	r = callTool(t, srv, "search_entities", map[string]any{"query": "x", "kind": "spaceship"})
	if !r.IsError {
		t.Error("expected error for unknown kind")
	}
}

func TestFormatContract(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "get_format_contract", map[string]any{})
	if resultText(r) != FormatContract {
		t.Error("contract text mismatch")
	}

	contents, err := srv.readFormatResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatal(err)
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok || tc.URI != formatURI {
		t.Errorf("resource = %+v", contents[0])
	}
}
