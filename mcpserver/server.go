package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/isdmx/codelab/analysis"
	"github.com/isdmx/codelab/apperrors"
	"github.com/isdmx/codelab/config"
	"github.com/isdmx/codelab/project"
	"github.com/isdmx/codelab/sandbox"
)

// Analyzer produces a report for one file
type Analyzer interface {
	AnalyzeFile(f project.SourceFile, fallback string) (analysis.Report, error)
}

// MCPServer represents the MCP server
type MCPServer struct {
	config      *config.Config
	logger      *zap.Logger
	sandboxExec sandbox.SandboxExecutor
	analyzer    Analyzer
	mcpServer   *server.MCPServer
	httpServer  *server.StreamableHTTPServer
}

// executeResult is the JSON document returned by execute_project
type executeResult struct {
	Output     string `json:"output"`
	Stdout     string `json:"stdout"`
	Stderr     string `json:"stderr"`
	ExitCode   int    `json:"exit_code"`
	Language   string `json:"language"`
	EntryFile  string `json:"entry_file"`
	DurationMS int64  `json:"duration_ms"`
}

// analyzeResult is the JSON document returned by analyze_source
type analyzeResult struct {
	Feedback string          `json:"feedback"`
	Report   analysis.Report `json:"report"`
}

// New creates a new MCPServer
func New(cfg *config.Config, logger *zap.Logger, sandboxExec sandbox.SandboxExecutor, analyzer Analyzer) (*MCPServer, error) {
	s := &MCPServer{
		config:      cfg,
		logger:      logger,
		sandboxExec: sandboxExec,
		analyzer:    analyzer,
	}

	// Log configuration parameters on startup
	logger.Info("configuration loaded",
		zap.String("server.transport", s.config.Server.Transport),
		zap.Int("server.http_port", s.config.Server.HTTPPort),
		zap.Int("sandbox.timeout_ms", s.config.Sandbox.TimeoutMS),
		zap.Int("sandbox.interpreter_timeout_ms", s.config.Sandbox.InterpreterTimeoutMS),
		zap.Int("sandbox.max_output_bytes", s.config.Sandbox.MaxOutputBytes),
		zap.Int("sandbox.max_concurrent", s.config.Sandbox.MaxConcurrent),
		zap.String("store.backend", s.config.Store.Backend),
	)

	s.mcpServer = server.NewMCPServer("codelab", "Code playground: run projects and review source files")

	s.registerExecuteProjectTool()
	s.registerAnalyzeSourceTool()

	return s, nil
}

// registerExecuteProjectTool registers the execute_project tool
func (s *MCPServer) registerExecuteProjectTool() {
	tool := mcp.Tool{
		Name: "execute_project",
		Description: "Run a small multi-file project. The first file whose extension has a runner " +
			"(js or py) is executed; the other files are available next to it.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"files": map[string]any{
					"type":        "array",
					"description": "Project files in order",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"name":  map[string]any{"type": "string", "description": "File name, e.g. main.py"},
							"value": map[string]any{"type": "string", "description": "File content"},
						},
						"required": []string{"name", "value"},
					},
				},
			},
			Required: []string{"files"},
		},
	}

	s.mcpServer.AddTool(tool, s.handleExecuteProject)
}

// registerAnalyzeSourceTool registers the analyze_source tool
func (s *MCPServer) registerAnalyzeSourceTool() {
	tool := mcp.Tool{
		Name:        "analyze_source",
		Description: "Review one source file with heuristic rules and return feedback",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"name": map[string]any{
					"type":        "string",
					"description": "File name; its extension selects the rules",
				},
				"content": map[string]any{
					"type":        "string",
					"description": "Source text",
				},
				"language": map[string]any{
					"type":        "string",
					"description": "Language used when the name has no extension",
					"enum":        analysis.DefaultCatalog().Languages(),
				},
			},
			Required: []string{"name", "content"},
		},
	}

	s.mcpServer.AddTool(tool, s.handleAnalyzeSource)
}

func toolError(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: fmt.Sprintf(format, args...),
			},
		},
		IsError: true,
	}
}

func toolJSON(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: string(data),
			},
		},
	}, nil
}

// filesArgument decodes the files argument by round-tripping it through JSON.
func filesArgument(request mcp.CallToolRequest) (project.Submission, error) {
	raw, ok := request.GetArguments()["files"]
	if !ok {
		return nil, fmt.Errorf("files parameter is required")
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid files parameter: %w", err)
	}
	var files project.Submission
	if err := json.Unmarshal(data, &files); err != nil {
		return nil, fmt.Errorf("invalid files parameter: %w", err)
	}
	return files, nil
}

// handleExecuteProject handles the execute_project tool
func (s *MCPServer) handleExecuteProject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	files, err := filesArgument(request)
	if err != nil {
		return nil, err
	}

	s.logger.Info("project execution requested", zap.Int("files", len(files)))

	result, err := s.sandboxExec.Execute(ctx, files)
	if err != nil {
		kind := apperrors.KindOf(err)
		if apperrors.IsClient(kind) {
			s.logger.Info("project execution rejected", zap.String("kind", string(kind)), zap.Error(err))
		} else {
			s.logger.Error("project execution failed", zap.String("kind", string(kind)), zap.Error(err))
		}
		return toolError("Execution failed (%s): %v", kind, err), nil
	}

	s.logger.Info("project execution completed",
		zap.String("entry", result.EntryFile),
		zap.Int("exit_code", result.ExitCode),
		zap.Int("output_len", len(result.Output)))

	return toolJSON(executeResult{
		Output:     result.Output,
		Stdout:     result.Stdout,
		Stderr:     result.Stderr,
		ExitCode:   result.ExitCode,
		Language:   result.Language,
		EntryFile:  result.EntryFile,
		DurationMS: result.Duration.Milliseconds(),
	})
}

// handleAnalyzeSource handles the analyze_source tool
func (s *MCPServer) handleAnalyzeSource(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return nil, fmt.Errorf("name parameter is required: %w", err)
	}

	content, err := request.RequireString("content")
	if err != nil {
		return nil, fmt.Errorf("content parameter is required: %w", err)
	}

	language := request.GetString("language", "")

	report, err := s.analyzer.AnalyzeFile(project.SourceFile{Name: name, Content: content}, language)
	if err != nil {
		return toolError("Analysis failed (%s): %v", apperrors.KindOf(err), err), nil
	}

	return toolJSON(analyzeResult{Feedback: analysis.Render(report), Report: report})
}

// ServeStdio starts the server on stdio
func (s *MCPServer) ServeStdio() error {
	s.logger.Info("starting MCP server on stdio")
	return server.ServeStdio(s.mcpServer)
}

// ServeHTTP starts the server on streamable HTTP and blocks until it stops
func (s *MCPServer) ServeHTTP() error {
	port := s.config.Server.HTTPPort
	s.logger.Info("starting MCP server on HTTP", zap.Int("port", port))

	s.httpServer = server.NewStreamableHTTPServer(s.mcpServer)
	if err := s.httpServer.Start(fmt.Sprintf(":%d", port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the streamable HTTP server if it was started
func (s *MCPServer) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// GetMCPServer returns the underlying MCP server for fx
func (s *MCPServer) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}
