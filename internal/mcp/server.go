// Package mcp exposes the analysis pipeline as MCP tools over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/smartsdlc/sdlc/internal/models"
	"github.com/smartsdlc/sdlc/internal/store"
)

// Pipeline runs one analysis request end to end.
type Pipeline interface {
	Run(ctx context.Context, op models.Operation, artifact models.SourceArtifact) *models.Report
}

// Server wraps the analysis pipeline and exposes it as MCP tools.
type Server struct {
	engine Pipeline
	store  store.Store
}

// NewServer creates the MCP server wrapper. The store may be nil when
// history persistence is disabled.
func NewServer(engine Pipeline, st store.Store) *Server {
	return &Server{engine: engine, store: st}
}

// MCPServer returns a configured mcp-go server with all tools registered.
func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer("sdlc", "1.0.0", server.WithToolCapabilities(true))

	srv.AddTool(s.analyzeTool())
	srv.AddTool(s.listOperationsTool())
	srv.AddTool(s.historyTool())

	return srv
}

// ServeStdio starts the stdio transport, blocking until ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	srv := s.MCPServer()
	stdioServer := server.NewStdioServer(srv)
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

// ---------------------------------------------------------------------------
// Tool definitions and handlers
// ---------------------------------------------------------------------------

// sdlc_analyze
func (s *Server) analyzeTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("sdlc_analyze",
		mcp.WithDescription("Run an analysis operation on Python source code. Returns a JSON report with status (success/partial_success/failure), static findings, and the model's output text."),
		mcp.WithString("operation", mcp.Required(), mcp.Description("Operation to run: docs, review, bugs, report, requirements, generate, tests, security")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Python source code to analyze")),
		mcp.WithString("file_name", mcp.Description("File name for the report (default: input.py)")),
	)
	return tool, s.handleAnalyze
}

func (s *Server) handleAnalyze(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	opStr, err := request.RequireString("operation")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: operation"), nil
	}
	content, err := request.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: content"), nil
	}

	op, err := models.ParseOperation(opStr)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	fileName := request.GetString("file_name", "input.py")

	report := s.engine.Run(ctx, op, models.NewSourceArtifact(fileName, content))

	if s.store != nil {
		_ = s.store.CreateAnalysis(ctx, models.RecordFromReport(report))
	}

	data, err := json.Marshal(report)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal report: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// sdlc_list_operations
func (s *Server) listOperationsTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("sdlc_list_operations",
		mcp.WithDescription("List the supported analysis operations. Returns a JSON array with operation name, description, and whether static analysis applies."),
	)
	return tool, s.handleListOperations
}

func (s *Server) handleListOperations(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	type opOut struct {
		Operation   string `json:"operation"`
		Description string `json:"description"`
		Analyzable  bool   `json:"analyzable"`
	}

	ops := models.Operations()
	out := make([]opOut, len(ops))
	for i, op := range ops {
		out[i] = opOut{
			Operation:   string(op),
			Description: op.Description(),
			Analyzable:  op.Analyzable(),
		}
	}

	data, err := json.Marshal(out)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal operations: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// sdlc_history
func (s *Server) historyTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("sdlc_history",
		mcp.WithDescription("List past analyses, newest first. Optionally filter by operation and/or status."),
		mcp.WithString("operation", mcp.Description("Operation filter: docs, review, bugs, report, requirements, generate, tests, security")),
		mcp.WithString("status", mcp.Description("Status filter: success, partial_success, failure")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of records to return (default 20)")),
	)
	return tool, s.handleHistory
}

func (s *Server) handleHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.store == nil {
		return mcp.NewToolResultError("history store not configured"), nil
	}

	filter := store.AnalysisListFilter{
		Operation: models.Operation(request.GetString("operation", "")),
		Status:    models.ReportStatus(request.GetString("status", "")),
		Limit:     request.GetInt("limit", 20),
	}

	records, err := s.store.ListAnalyses(ctx, filter)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list analyses: %v", err)), nil
	}

	type recordOut struct {
		ID           string `json:"id"`
		Operation    string `json:"operation"`
		FileName     string `json:"file_name"`
		Status       string `json:"status"`
		Reason       string `json:"reason,omitempty"`
		FindingCount int    `json:"finding_count"`
		ElapsedMS    int64  `json:"elapsed_ms"`
		CreatedAt    string `json:"created_at"`
	}

	out := make([]recordOut, len(records))
	for i, rec := range records {
		out[i] = recordOut{
			ID:           rec.ID,
			Operation:    string(rec.Operation),
			FileName:     rec.FileName,
			Status:       string(rec.Status),
			Reason:       rec.Reason,
			FindingCount: rec.FindingCount,
			ElapsedMS:    rec.Elapsed.Milliseconds(),
			CreatedAt:    rec.CreatedAt.Format(time.RFC3339),
		}
	}

	data, err := json.Marshal(out)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal records: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
