package mcp

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/a3tai/pdf2img/internal/config"
	"github.com/a3tai/pdf2img/internal/convert"
	"github.com/a3tai/pdf2img/internal/descriptions"
	"github.com/a3tai/pdf2img/internal/pdf/inspect"
	"github.com/a3tai/pdf2img/internal/pdf/security"
)

// Converter is the part of convert.Converter the tools use.
type Converter interface {
	Convert(ctx context.Context, req convert.Request) (*convert.Result, error)
	Inspect(ctx context.Context, path string) *inspect.Profile
}

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	converter Converter
	paths     *security.PathValidator
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, converter Converter, version string, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if converter == nil {
		return nil, fmt.Errorf("converter cannot be nil")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	paths, err := security.NewPathValidator(cfg.PDFDirectory)
	if err != nil {
		return nil, fmt.Errorf("invalid PDF directory: %w", err)
	}

	mcpServer := server.NewMCPServer(
		config.DefaultName,
		version,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		config:    cfg,
		converter: converter,
		paths:     paths,
		mcpServer: mcpServer,
		logger:    logger,
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	pdfToImageTool := mcp.NewTool(
		"pdf_to_image",
		mcp.WithDescription(descriptions.PDFToImageDescription),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF file, absolute or relative to the server directory"),
		),
		mcp.WithString("output",
			mcp.Description("Output image path (default: next to the PDF, named after it)"),
		),
		mcp.WithNumber("width",
			mcp.Description("Target width in pixels (default 1200)"),
		),
		mcp.WithNumber("quality",
			mcp.Description("Quality 1-100 (default 90)"),
		),
		mcp.WithString("format",
			mcp.Description("Output format: jpg, jpeg, png or webp (default jpg)"),
		),
	)
	s.mcpServer.AddTool(pdfToImageTool, s.handlePDFToImage)

	pdfInspectTool := mcp.NewTool(
		"pdf_inspect",
		mcp.WithDescription(descriptions.PDFInspectDescription),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF file, absolute or relative to the server directory"),
		),
		mcp.WithNumber("width",
			mcp.Description("Target width in pixels used to plan the DPI (default 1200)"),
		),
	)
	s.mcpServer.AddTool(pdfInspectTool, s.handlePDFInspect)
}

// Handler functions
func (s *Server) handlePDFToImage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req, err := s.buildRequest(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	s.logger.Info("converting", "path", req.DocumentPath, "output", req.OutputPath, "format", req.Format)
	result, err := s.converter.Convert(ctx, req)
	if err != nil {
		s.logger.Error("conversion failed", "path", req.DocumentPath, "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatConvertResult(result)), nil
}

func (s *Server) handlePDFInspect(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path, err = s.inputPath(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	width, err := intArgument(request.GetArguments(), "width", convert.DefaultWidth)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if width <= 0 {
		return mcp.NewToolResultError(fmt.Sprintf("width must be a positive integer, got %d", width)), nil
	}

	profile := s.converter.Inspect(ctx, path)
	return mcp.NewToolResultText(formatProfile(path, profile, width)), nil
}

// buildRequest turns tool arguments into a validated conversion request
// confined to the server directory.
func (s *Server) buildRequest(request mcp.CallToolRequest) (convert.Request, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return convert.Request{}, err
	}
	path, err = s.inputPath(path)
	if err != nil {
		return convert.Request{}, err
	}

	args := request.GetArguments()

	format := convert.DefaultFormat
	if f, ok := args["format"].(string); ok && f != "" {
		if format, err = convert.ParseFormat(f); err != nil {
			return convert.Request{}, err
		}
	}

	width, err := intArgument(args, "width", convert.DefaultWidth)
	if err != nil {
		return convert.Request{}, err
	}
	quality, err := intArgument(args, "quality", convert.DefaultQuality)
	if err != nil {
		return convert.Request{}, err
	}

	output := config.DefaultOutputPath(path, format)
	if o, ok := args["output"].(string); ok && o != "" {
		output = o
	}
	if output, err = s.paths.Resolve(output); err != nil {
		return convert.Request{}, err
	}

	req := convert.Request{
		DocumentPath: path,
		OutputPath:   output,
		Width:        width,
		Quality:      quality,
		Format:       format,
	}
	return req, req.Validate()
}

// inputPath resolves path inside the server directory and checks it is a file.
func (s *Server) inputPath(path string) (string, error) {
	resolved, err := s.paths.Resolve(path)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", fmt.Errorf("%w: %s", config.ErrInputNotFound, path)
	}
	if info.IsDir() {
		return "", fmt.Errorf("path is a directory: %s", path)
	}
	return resolved, nil
}

// intArgument reads an optional whole-number argument. JSON numbers arrive
// as float64; numeric strings are accepted too.
func intArgument(args map[string]any, name string, def int) (int, error) {
	raw, ok := args[name]
	if !ok || raw == nil {
		return def, nil
	}

	switch v := raw.(type) {
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("%s must be a whole number, got %v", name, v)
		}
		return int(v), nil
	case int:
		return v, nil
	case string:
		var n int
		if _, err := fmt.Sscanf(strings.TrimSpace(v), "%d", &n); err != nil {
			return 0, fmt.Errorf("%s must be a number, got %q", name, v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%s must be a number, got %T", name, raw)
	}
}

// Formatting methods
func formatConvertResult(result *convert.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Image written: %s\n", result.OutputPath)
	fmt.Fprintf(&b, "Size: %dx%d pixels, %d bytes\n", result.Width, result.Height, result.Bytes)
	fmt.Fprintf(&b, "Pages: %d of %d rendered at %d DPI\n", len(result.Pages), result.PageCount, result.DPI)

	if result.Partial() {
		b.WriteString("\nSkipped pages:\n")
		for _, f := range result.Failures {
			fmt.Fprintf(&b, "  - %s\n", f.Error())
		}
	}
	return b.String()
}

func formatProfile(path string, profile *inspect.Profile, width int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "PDF: %s\n", path)
	fmt.Fprintf(&b, "Pages: %d\n", profile.PageCount)
	if profile.ReferenceWidthPt > 0 {
		fmt.Fprintf(&b, "First page width: %.1f pt\n", profile.ReferenceWidthPt)
	} else {
		b.WriteString("First page width: unknown\n")
	}
	fmt.Fprintf(&b, "Source: %s\n", profile.Source)
	fmt.Fprintf(&b, "Planned DPI for %dpx: %d\n", width, convert.PlanDensity(width, profile.ReferenceWidthPt))
	return b.String()
}

// Run serves the tools over stdin/stdout until ctx is cancelled or the
// client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.serve(ctx, os.Stdin, os.Stdout)
}

func (s *Server) serve(ctx context.Context, in io.Reader, out io.Writer) error {
	s.logger.Debug("starting MCP server in stdio mode", "dir", s.paths.Root())

	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(slog.NewLogLogger(s.logger.Handler(), slog.LevelError))

	if err := stdio.Listen(ctx, in, out); err != nil && ctx.Err() == nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}
