package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"

	"github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/a3tai/pdf2img/internal/config"
	"github.com/a3tai/pdf2img/internal/convert"
	"github.com/a3tai/pdf2img/internal/mcp"
	"github.com/a3tai/pdf2img/internal/pdf/inspect"
	"github.com/a3tai/pdf2img/internal/pdf/raster"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// Exit codes
const (
	ExitSuccess = 0
	ExitFailure = 1
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one invocation and returns its exit code.
func run(args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load(args, stderr)
	switch {
	case errors.Is(err, config.ErrVersion):
		printVersion(stdout)
		return ExitSuccess
	case errors.Is(err, pflag.ErrHelp):
		return ExitSuccess
	case err != nil:
		fmt.Fprintf(stderr, "%s: %v\n", config.DefaultName, err)
		return exitCodeFor(err)
	}

	logger := setupLogging(cfg, stderr)

	// maxprocs.Set only fails on an invalid GOMAXPROCS env; runtime defaults apply then.
	_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
		logger.Debug(fmt.Sprintf(format, args...))
	}))

	ctx, stop := notifyContext(context.Background())
	defer stop()

	converter, err := newConverter(cfg, logger, stderr)
	if err == nil {
		if cfg.IsStdioMode() {
			err = runStdioMode(ctx, cfg, converter, logger)
		} else {
			err = runConvertMode(ctx, cfg, converter, logger, stdout)
		}
	}

	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", config.DefaultName, err)
	}
	return exitCodeFor(err)
}

// setupLogging builds the process logger. Logs always go to stderr; in
// stdio mode stdout belongs to the MCP protocol. Debug logs carry the
// source location.
func setupLogging(cfg *config.Config, w io.Writer) *slog.Logger {
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:     cfg.SlogLevel(),
		AddSource: cfg.IsDebug(),
	}))
	slog.SetDefault(logger)
	return logger
}

// newConverter wires the configured inspector, rasterizer and progress output.
func newConverter(cfg *config.Config, logger *slog.Logger, stderr io.Writer) (*convert.Converter, error) {
	inspector, err := inspect.New(cfg.Inspector, inspect.Options{Logger: logger})
	if err != nil {
		return nil, err
	}

	opts := []convert.Option{
		convert.WithInspector(inspector),
		convert.WithRasterizer(raster.NewPoppler(cfg.Pdftoppm, cfg.PageFormat)),
		convert.WithPageTimeout(cfg.PageTimeout),
		convert.WithWorkDir(cfg.WorkDir),
		convert.WithLogger(logger),
	}
	if !cfg.Quiet && !cfg.IsStdioMode() {
		opts = append(opts, convert.WithProgress(newBarProgress(stderr)))
	}
	return convert.NewConverter(opts...), nil
}

// runConvertMode converts the single input document.
func runConvertMode(ctx context.Context, cfg *config.Config, converter *convert.Converter,
	logger *slog.Logger, stdout io.Writer,
) error {
	logger.Debug("starting conversion", "config", cfg.String())

	result, err := converter.Convert(ctx, cfg.Request())
	if err != nil {
		return err
	}

	for _, f := range result.Failures {
		logger.Warn("page skipped", "page", f.Page, "stage", f.Stage, "reason", f.Reason)
	}
	fmt.Fprintf(stdout, "Created %s (%dx%d, %d of %d pages, %d bytes)\n",
		result.OutputPath, result.Width, result.Height, len(result.Pages), result.PageCount, result.Bytes)
	return nil
}

// runStdioMode serves the MCP tools until the client disconnects or a
// signal arrives.
func runStdioMode(ctx context.Context, cfg *config.Config, converter *convert.Converter, logger *slog.Logger) error {
	server, err := mcp.NewServer(cfg, converter, version, logger)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	return server.Run(ctx)
}

// exitCodeFor maps an error to the process exit status.
func exitCodeFor(err error) int {
	if err == nil || errors.Is(err, pflag.ErrHelp) || errors.Is(err, config.ErrVersion) {
		return ExitSuccess
	}
	return ExitFailure
}

// printVersion prints version information
func printVersion(w io.Writer) {
	fmt.Fprintf(w, "pdf2img\n")
	fmt.Fprintf(w, "Version: %s\n", version)
	fmt.Fprintf(w, "Build Time: %s\n", buildTime)
	fmt.Fprintf(w, "Git Commit: %s\n", gitCommit)
	fmt.Fprintf(w, "Built with: %s\n", runtime.Version())
}
