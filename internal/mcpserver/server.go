// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the insights tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/insights/internal/apperr"
	"github.com/starford/insights/internal/insightservice"
	"github.com/starford/insights/internal/models"
)

// Server wraps the MCP server with the insights tools.
type Server struct {
	mcp *server.MCPServer
	svc *insightservice.Service
}

// New creates a new MCP server with all tools registered.
func New(svc *insightservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Interview Insights",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("get_master_insights",
		mcp.WithDescription("Read the cumulative master insights document. "+
			"See the "+MasterFormatURI+" resource for its layout."),
	), s.getMasterInsights)

	s.mcp.AddTool(mcp.NewTool("get_statistics",
		mcp.WithDescription("Interview count, last update date, tags and report count."),
	), s.getStatistics)

	s.mcp.AddTool(mcp.NewTool("list_reports",
		mcp.WithDescription("List stored interview reports, newest first."),
		mcp.WithString("tag", mcp.Description("Only reports carrying this tag")),
		mcp.WithString("entity", mcp.Description("Only reports mentioning this canonical bank name")),
	), s.listReports)

	s.mcp.AddTool(mcp.NewTool("read_report",
		mcp.WithDescription("Read the full content of one report."),
		mcp.WithString("filename", mcp.Required(), mcp.Description("Report filename as returned by list_reports")),
	), s.readReport)

	s.mcp.AddTool(mcp.NewTool("search_insights",
		mcp.WithDescription("Case-insensitive literal search over the master document and all reports."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Text to look for (not a pattern)")),
	), s.searchInsights)

	s.mcp.AddTool(mcp.NewTool("compare_insights",
		mcp.WithDescription("Find quotes from other respondents that corroborate candidate insights. "+
			"A report counts when it shares at least two words longer than four letters."),
		mcp.WithArray("insights", mcp.Required(),
			mcp.Description("Insights as {text, quote} objects or plain strings"),
			mcp.Items(map[string]any{"type": "object", "properties": map[string]any{
				"text":  map[string]any{"type": "string"},
				"quote": map[string]any{"type": "string"},
			}}),
		),
		mcp.WithString("transcript_name", mcp.Description("Respondent whose own reports are skipped")),
	), s.compareInsights)

	s.mcp.AddTool(mcp.NewTool("extract_entities",
		mcp.WithDescription("List the canonical bank names mentioned in a text."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Text to scan")),
	), s.extractEntities)

	s.mcp.AddResource(
		mcp.NewResource(MasterFormatURI, "Insights Document Format",
			mcp.WithResourceDescription("Layout of the master insights document and of interview reports."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readMasterFormatResource,
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

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func (s *Server) getMasterInsights(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, _ := s.svc.Master(ctx)
	return mcp.NewToolResultText(text), nil
}

func (s *Server) getStatistics(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.svc.Statistics(ctx)), nil
}

func (s *Server) listReports(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, err := s.svc.ListReports(ctx, req.GetString("tag", ""), req.GetString("entity", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(items), nil
}

func (s *Server) readReport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filename, err := req.RequireString("filename")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rep, err := s.svc.GetReport(ctx, filename)
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", filename)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(rep.Content), nil
}

func (s *Server) searchInsights(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	hits, err := s.svc.Search(ctx, query)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(hits), nil
}

func (s *Server) compareInsights(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, ok := req.GetArguments()["insights"]
	if !ok {
		return mcp.NewToolResultError("required argument \"insights\" not found"), nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var insights []models.Insight
	if err := json.Unmarshal(data, &insights); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid insights: %v", err)), nil
	}
	return jsonResult(s.svc.Compare(ctx, insights, req.GetString("transcript_name", ""))), nil
}

func (s *Server) extractEntities(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(s.svc.ExtractEntities(ctx, text)), nil
}

func (s *Server) readMasterFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      MasterFormatURI,
			MIMEType: "text/markdown",
			Text:     MasterFormatContract,
		},
	}, nil
}
