// Package convert turns a multi-page PDF into one vertically stitched image.
//
// A conversion runs in stages:
//
//  1. inspect the document for its page count and first page width
//  2. plan the rasterization density (PlanDensity)
//  3. rasterize each page into a private workspace (Sequencer)
//  4. scale every page to the target width (Normalizer)
//  5. stack the pages on a white canvas and encode it (Compose, WriteImage)
//
// Single pages may fail in steps 3 and 4 without failing the run; the run
// fails when no page survives. The workspace is removed on every exit path.
package convert

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/a3tai/pdf2img/internal/pdf/inspect"
	"github.com/a3tai/pdf2img/internal/pdf/raster"
)

// DefaultInspectTimeout bounds document inspection.
const DefaultInspectTimeout = 30 * time.Second

// Inspector reads the page count and reference page width of a document.
type Inspector interface {
	Inspect(ctx context.Context, path string) (*inspect.Profile, error)
}

// Converter runs conversions. It is safe to reuse for sequential runs.
type Converter struct {
	inspector      Inspector
	rasterizer     raster.Rasterizer
	normalizer     *Normalizer
	pageTimeout    time.Duration
	inspectTimeout time.Duration
	workDir        string
	logger         *slog.Logger
	progress       Progress
}

// Option configures a Converter.
type Option func(*Converter)

// WithInspector sets the document inspector.
func WithInspector(in Inspector) Option {
	return func(c *Converter) { c.inspector = in }
}

// WithRasterizer sets the page rasterizer.
func WithRasterizer(r raster.Rasterizer) Option {
	return func(c *Converter) { c.rasterizer = r }
}

// WithPageTimeout sets the per-page rasterization deadline.
func WithPageTimeout(d time.Duration) Option {
	return func(c *Converter) { c.pageTimeout = d }
}

// WithWorkDir sets the parent directory for run workspaces.
func WithWorkDir(dir string) Option {
	return func(c *Converter) { c.workDir = dir }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(c *Converter) { c.logger = l }
}

// WithProgress sets the per-page progress receiver.
func WithProgress(p Progress) Option {
	return func(c *Converter) { c.progress = p }
}

// WithNormalizer replaces the default Lanczos normalizer.
func WithNormalizer(n *Normalizer) Option {
	return func(c *Converter) { c.normalizer = n }
}

// NewConverter creates a Converter. Without options it inspects with every
// available backend and rasterizes with pdftoppm from PATH.
func NewConverter(opts ...Option) *Converter {
	c := &Converter{
		pageTimeout:    DefaultPageTimeout,
		inspectTimeout: DefaultInspectTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = discardLogger()
	}
	if c.progress == nil {
		c.progress = nopProgress{}
	}
	if c.inspector == nil {
		c.inspector = inspect.NewChain(c.logger,
			inspect.NewPDFCPU(), inspect.NewLedongthuc(), inspect.NewPdfinfo(""))
	}
	if c.rasterizer == nil {
		c.rasterizer = raster.NewPoppler("", raster.PagePNG)
	}
	if c.normalizer == nil {
		c.normalizer = &Normalizer{}
	}
	if c.normalizer.Logger == nil {
		c.normalizer.Logger = c.logger
	}
	return c
}

// Convert runs the whole pipeline for req and writes req.OutputPath.
func (c *Converter) Convert(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	profile := c.inspect(ctx, req.DocumentPath)
	dpi := PlanDensity(req.Width, profile.ReferenceWidthPt)
	ws, err := NewWorkspace(c.workDir, c.logger)
	if err != nil {
		return nil, err
	}
	defer ws.Close()

	c.logger.Info("planned rasterization",
		"pages", profile.PageCount,
		"page_width_pt", profile.ReferenceWidthPt,
		"dpi", dpi,
		"source", profile.Source,
		"page_format", c.rasterizer.Format(),
		"workspace", ws.Dir())

	seq := &Sequencer{
		Rasterizer:  c.rasterizer,
		PageTimeout: c.pageTimeout,
		Progress:    c.progress,
		Logger:      c.logger,
	}
	artifacts, failures, err := seq.Run(ctx, req.DocumentPath, profile.PageCount, dpi, ws)
	c.progress.Finish()
	if err != nil {
		return nil, fmt.Errorf("rasterizing %s: %w", req.DocumentPath, err)
	}
	c.logger.Info("pages rasterized", "produced", len(artifacts), "failed", len(failures))

	images, decodeFailures, err := c.normalizer.Normalize(artifacts, req.Width)
	failures = append(failures, decodeFailures...)
	if err != nil {
		return nil, err
	}

	canvas := Compose(images, req.Width)
	size, err := WriteImage(req.OutputPath, canvas, req.Format, req.Quality)
	if err != nil {
		return nil, err
	}

	pages := make([]int, len(images))
	for i, img := range images {
		pages[i] = img.Page
	}

	return &Result{
		OutputPath:    req.OutputPath,
		Width:         canvas.Bounds().Dx(),
		Height:        canvas.Bounds().Dy(),
		DPI:           dpi,
		PageCount:     profile.PageCount,
		ProfileSource: profile.Source,
		Pages:         pages,
		Failures:      failures,
		Bytes:         size,
	}, nil
}

// Inspect returns the document profile used for planning.
func (c *Converter) Inspect(ctx context.Context, path string) *inspect.Profile {
	return c.inspect(ctx, path)
}

// inspect never fails; an unavailable inspector yields the default profile.
func (c *Converter) inspect(ctx context.Context, path string) *inspect.Profile {
	ictx, cancel := context.WithTimeout(ctx, c.inspectTimeout)
	defer cancel()

	profile, err := c.inspector.Inspect(ictx, path)
	if err != nil || profile == nil || profile.PageCount <= 0 {
		c.logger.Warn("document inspection unavailable, using defaults", "error", err)
		return inspect.DefaultProfile()
	}
	return profile
}
