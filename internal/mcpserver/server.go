// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the Gramps XML archive tools for LLM integration via stdio
// transport.
package mcpserver

import (
	"context"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/grampsxml/internal/archive"
	"github.com/starford/grampsxml/internal/models"
)

const formatURI = "grampsxml://format"

// Server wraps the MCP server with the archive tools.
type Server struct {
	mcp *server.MCPServer
	svc *archive.Service
}

// New creates a new MCP server with all archive tools registered.
func New(svc *archive.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"grampsxml",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("validate_archive",
		mcp.WithDescription("Parse and validate a Gramps XML archive. Returns every violation found "+
			"(duplicate handles, dangling references, invalid values, missing fields)."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the archive (e.g. family/smith.gramps)")),
	), s.validateArchive)

	s.mcp.AddTool(mcp.NewTool("read_archive",
		mcp.WithDescription("Read an archive as a JSON document, or as Gramps XML text."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the archive")),
		mcp.WithString("format", mcp.Description("json (default) or xml"), mcp.Enum("json", "xml")),
	), s.readArchive)

	s.mcp.AddTool(mcp.NewTool("write_archive",
		mcp.WithDescription("Create a new archive from a JSON document. The document MUST follow the "+
			"format contract; read it first via the get_format_contract tool or the "+
			formatURI+" resource."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path for the new archive (must end with .gramps or .xml)")),
		mcp.WithString("document", mcp.Required(), mcp.Description("JSON document following the format contract")),
	), s.writeArchive)

	s.mcp.AddTool(mcp.NewTool("list_archives",
		mcp.WithDescription("List cataloged archives with their record counts and violation counts."),
		mcp.WithNumber("limit", mcp.Description("Page size (default 50)")),
		mcp.WithNumber("offset", mcp.Description("Page offset")),
		mcp.WithString("sort", mcp.Description("path, updated or violations"), mcp.Enum("path", "updated", "violations")),
	), s.listArchives)

	s.mcp.AddTool(mcp.NewTool("search_entities",
		mcp.WithDescription("Search people, families, places and other records by name, title or Gramps ID across all archives."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithString("kind", mcp.Description("Optional record kind filter (person, family, event, ...)")),
	), s.searchEntities)

	s.mcp.AddTool(mcp.NewTool("get_format_contract",
		mcp.WithDescription("Returns the Gramps XML format contract. "+
			"Call this before writing archives to ensure correct structure."),
	), s.getFormatContract)

	s.mcp.AddResource(
		mcp.NewResource(formatURI, "Gramps XML Format Contract",
			mcp.WithResourceDescription("Gramps XML structure and the rules every archive must follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readFormatResource,
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

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) validateArchive(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	report, err := s.svc.ValidateFile(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(report)
}

func (s *Server) readArchive(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	detail, err := s.svc.Get(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if req.GetString("format", "json") == "xml" {
		out, err := s.svc.Serialize(detail.Document)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(string(out)), nil
	}
	return jsonResult(detail)
}

func (s *Server) writeArchive(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := req.RequireString("document")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var doc models.Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid document: %v", err)), nil
	}
	detail, err := s.svc.Create(ctx, path, &doc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(detail.Violations) > 0 {
		return mcp.NewToolResultText(fmt.Sprintf("created: %s with %d violations\n%s",
			path, len(detail.Violations), detail.Violations.Error())), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", path)), nil
}

func (s *Server) listArchives(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rows, total, err := s.svc.List(ctx, req.GetInt("limit", 50), req.GetInt("offset", 0), req.GetString("sort", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"archives": rows, "total": total})
}

func (s *Server) searchEntities(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	kind := models.Kind(req.GetString("kind", ""))
	if kind != "" && !kind.Valid() {
		return mcp.NewToolResultError(fmt.Sprintf("unknown kind: %s", kind)), nil
	}
	results, err := s.svc.Search(ctx, query, kind, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText("no matches found"), nil
	}
	return jsonResult(results)
}

func (s *Server) getFormatContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(FormatContract), nil
}

func (s *Server) readFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      formatURI,
			MIMEType: "text/markdown",
			Text:     FormatContract,
		},
	}, nil
}
