package mcp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/a3tai/mcp-form-audit/internal/audit"
	"github.com/a3tai/mcp-form-audit/internal/config"
	"github.com/a3tai/mcp-form-audit/internal/descriptions"
	"github.com/a3tai/mcp-form-audit/internal/layout"
	"github.com/a3tai/mcp-form-audit/internal/report"
	"github.com/fatih/color"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Output formats accepted by the report tools
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	service   *audit.Service
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, service *audit.Service) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if service == nil {
		return nil, fmt.Errorf("service cannot be nil")
	}

	// Reports travel over the protocol, never to a terminal
	color.NoColor = true

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		config:    cfg,
		service:   service,
		mcpServer: mcpServer,
	}

	s.registerTools()

	return s, nil
}

func formatOption() mcp.ToolOption {
	return mcp.WithString("format",
		mcp.Description("Report format: 'text' (default) or 'json'"),
	)
}

func thresholdOption() mcp.ToolOption {
	return mcp.WithNumber("proximity_threshold",
		mcp.Description("Centre distance in millimetres below which two fields are too close (uses the configured value if omitted)"),
	)
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	validateTool := mcp.NewTool(
		"form_validate_layout",
		mcp.WithDescription(descriptions.FormValidateLayoutDescription),
		mcp.WithString("catalog",
			mcp.Description("Catalog file (json, yaml or fillable pdf); uses the configured catalog if empty"),
		),
		thresholdOption(),
		formatOption(),
	)
	s.mcpServer.AddTool(validateTool, s.handleValidateLayout)

	importTool := mcp.NewTool(
		"form_import_layout",
		mcp.WithDescription(descriptions.FormImportLayoutDescription),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Fillable PDF to read widgets from"),
		),
		mcp.WithString("format",
			mcp.Description("Catalog encoding: 'json' (default) or 'yaml'"),
		),
		mcp.WithString("output",
			mcp.Description("Optional file to write the catalog to"),
		),
	)
	s.mcpServer.AddTool(importTool, s.handleImportLayout)

	compareTool := mcp.NewTool(
		"form_compare_documents",
		mcp.WithDescription(descriptions.FormCompareDocumentsDescription),
		mcp.WithString("reference",
			mcp.Required(),
			mcp.Description("Known-good document"),
		),
		mcp.WithString("candidate",
			mcp.Required(),
			mcp.Description("Document to check against the reference"),
		),
		formatOption(),
	)
	s.mcpServer.AddTool(compareTool, s.handleCompareDocuments)

	auditTool := mcp.NewTool(
		"form_audit",
		mcp.WithDescription(descriptions.FormAuditDescription),
		mcp.WithString("catalog",
			mcp.Description("Catalog file; uses the configured catalog if empty"),
		),
		mcp.WithString("reference",
			mcp.Description("Known-good document"),
		),
		mcp.WithString("candidate",
			mcp.Description("Document to check against the reference"),
		),
		thresholdOption(),
		formatOption(),
	)
	s.mcpServer.AddTool(auditTool, s.handleAudit)

	infoTool := mcp.NewTool(
		"form_server_info",
		mcp.WithDescription(descriptions.FormServerInfoDescription),
	)
	s.mcpServer.AddTool(infoTool, s.handleServerInfo)
}

func stringArg(args map[string]interface{}, key string) string {
	if v, ok := args[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func floatArg(args map[string]interface{}, key string) (float64, error) {
	switch v := args[key].(type) {
	case nil:
		return 0, nil
	case float64:
		if v < 0 {
			return 0, fmt.Errorf("%s must not be negative", key)
		}
		return v, nil
	case int:
		if v < 0 {
			return 0, fmt.Errorf("%s must not be negative", key)
		}
		return float64(v), nil
	default:
		return 0, fmt.Errorf("%s must be a number", key)
	}
}

func reportFormat(args map[string]interface{}) (string, error) {
	switch f := strings.ToLower(stringArg(args, "format")); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported format: %s (must be 'text' or 'json')", f)
	}
}

// Handler functions
func (s *Server) handleValidateLayout(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	threshold, err := floatArg(args, "proximity_threshold")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	format, err := reportFormat(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	r, err := s.service.ValidateLayout(audit.ValidateLayoutRequest{
		Catalog:            stringArg(args, "catalog"),
		ProximityThreshold: threshold,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return renderReport(r, format)
}

func (s *Server) handleImportLayout(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	args := request.GetArguments()

	format := layout.FormatJSON
	switch f := strings.ToLower(stringArg(args, "format")); f {
	case "", string(layout.FormatJSON):
	case string(layout.FormatYAML), "yml":
		format = layout.FormatYAML
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unsupported catalog format: %s (must be 'json' or 'yaml')", f)), nil
	}

	result, err := s.service.ImportLayout(audit.ImportLayoutRequest{
		Path:   path,
		Format: format,
		Output: stringArg(args, "output"),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatImportResult(result)), nil
}

func (s *Server) handleCompareDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	reference, err := request.RequireString("reference")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	candidate, err := request.RequireString("candidate")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	format, err := reportFormat(request.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	r, err := s.service.CompareDocuments(ctx, audit.CompareDocumentsRequest{
		Reference: reference,
		Candidate: candidate,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return renderReport(r, format)
}

func (s *Server) handleAudit(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	threshold, err := floatArg(args, "proximity_threshold")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	format, err := reportFormat(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	r, err := s.service.Audit(ctx, audit.AuditRequest{
		Catalog:            stringArg(args, "catalog"),
		Reference:          stringArg(args, "reference"),
		Candidate:          stringArg(args, "candidate"),
		ProximityThreshold: threshold,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return renderReport(r, format)
}

func (s *Server) handleServerInfo(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ws, err := s.service.ScanWorkspace(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to scan directory: %v", err)), nil
	}
	return mcp.NewToolResultText(s.formatServerInfo(ws)), nil
}

func renderReport(r *report.Report, format string) (*mcp.CallToolResult, error) {
	var buf bytes.Buffer
	var err error
	if format == FormatJSON {
		err = r.WriteJSON(&buf)
	} else {
		err = r.WriteText(&buf)
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(buf.String()), nil
}

// Formatting methods
func (s *Server) formatImportResult(result *audit.ImportLayoutResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Imported %d fields from %s\n", result.Catalog.Len(), result.Source)
	if issues := result.Catalog.Issues(); len(issues) > 0 {
		fmt.Fprintf(&b, "Skipped %d widgets:\n", len(issues))
		for _, issue := range issues {
			fmt.Fprintf(&b, "  - %s: %s\n", issue.Field, issue.Message)
		}
	}
	if result.Written != "" {
		fmt.Fprintf(&b, "Written to: %s\n", result.Written)
	}
	b.WriteString("\n")
	b.WriteString(result.Encoded)
	return b.String()
}

func (s *Server) formatServerInfo(ws *audit.Workspace) string {
	var b strings.Builder
	limits := s.service.Limits()

	fmt.Fprintf(&b, "Server: %s v%s\n", s.config.ServerName, s.config.Version)
	fmt.Fprintf(&b, "Directory: %s\n", ws.Directory)
	if c := s.service.DefaultCatalog(); c != "" {
		fmt.Fprintf(&b, "Default catalog: %s\n", c)
	}
	fmt.Fprintf(&b, "Text extractor: %s\n", s.config.Extractor)
	fmt.Fprintf(&b, "Max file size: %d bytes\n", s.config.MaxFileSize)

	b.WriteString("\nLayout thresholds (mm):\n")
	fmt.Fprintf(&b, "  page: %g x %g\n", limits.PageWidth, limits.PageHeight)
	fmt.Fprintf(&b, "  width: %g-%g, height: %g-%g\n", limits.MinWidth, limits.MaxWidth, limits.MinHeight, limits.MaxHeight)
	fmt.Fprintf(&b, "  checkbox: %g x %g, textarea min height: %g\n", limits.CheckboxSize, limits.CheckboxSize, limits.MinTextareaHeight)
	fmt.Fprintf(&b, "  proximity: %g, section spread: %g\n", limits.ProximityThreshold, limits.SpreadTolerance)

	writeList := func(title string, items []string) {
		fmt.Fprintf(&b, "\n%s (%d):\n", title, len(items))
		if len(items) == 0 {
			b.WriteString("  none found\n")
		}
		for _, item := range items {
			fmt.Fprintf(&b, "  - %s\n", item)
		}
	}
	writeList("Catalogs", ws.Catalogs)
	writeList("Documents", ws.Documents)
	if ws.Truncated {
		b.WriteString("  (listing truncated)\n")
	}

	b.WriteString("\nAvailable tools:\n")
	for _, name := range descriptions.GetAllToolNames() {
		fmt.Fprintf(&b, "  - %s: %s\n", name, descriptions.Summary(name))
	}
	return b.String()
}

// Run serves the MCP protocol over stdin and stdout until ctx is done or
// stdin is closed
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve serves the MCP protocol over the given streams
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	if s.config.IsDebug() {
		log.Printf("Starting form audit MCP server in stdio mode")
		log.Printf("Directory: %s", s.config.Directory)
	}

	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(log.New(io.Discard, "", 0))
	if s.config.IsDebug() {
		stdio.SetErrorLogger(log.Default())
	}

	if err := stdio.Listen(ctx, in, out); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}
