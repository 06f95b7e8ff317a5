package raster

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/a3tai/pdf2img/internal/process"
)

// DefaultPdftoppm is the rasterizer binary looked up on PATH.
const DefaultPdftoppm = "pdftoppm"

// Poppler rasterizes pages with Poppler's pdftoppm, one process per page.
type Poppler struct {
	Binary     string
	PageFormat PageFormat
	Runner     process.Runner
}

// NewPoppler creates a Poppler rasterizer with a real command runner.
// An empty binary selects pdftoppm from PATH.
func NewPoppler(binary string, format PageFormat) *Poppler {
	if binary == "" {
		binary = DefaultPdftoppm
	}
	if format == "" {
		format = PagePNG
	}
	return &Poppler{
		Binary:     binary,
		PageFormat: format,
		Runner:     process.NewExecRunner(),
	}
}

// Format returns the page file format.
func (p *Poppler) Format() PageFormat {
	return p.PageFormat
}

// Rasterize renders req.Page of req.Document at req.DPI to
// req.OutputPrefix + extension. The process is killed when ctx expires.
func (p *Poppler) Rasterize(ctx context.Context, req PageRequest) (string, error) {
	if req.Page < 1 {
		return "", fmt.Errorf("invalid page number %d", req.Page)
	}
	if req.DPI < 1 {
		return "", fmt.Errorf("invalid density %d", req.DPI)
	}

	_, stderr, err := p.Runner.Run(ctx, p.Binary, p.args(req)...)
	if err != nil {
		if errors.Is(err, process.ErrNotFound) {
			return "", fmt.Errorf("%w: %s", ErrToolNotFound, p.Binary)
		}
		if msg := strings.TrimSpace(stderr); msg != "" {
			return "", fmt.Errorf("page %d: %w: %s", req.Page, err, msg)
		}
		return "", fmt.Errorf("page %d: %w", req.Page, err)
	}

	out := req.OutputPrefix + p.PageFormat.Extension()
	if _, err := os.Stat(out); err != nil {
		return "", fmt.Errorf("page %d: %w: %s", req.Page, ErrNoOutput, out)
	}
	return out, nil
}

// args builds the pdftoppm argument list for a single page.
func (p *Poppler) args(req PageRequest) []string {
	page := strconv.Itoa(req.Page)
	return []string{
		"-" + string(p.PageFormat),
		"-r", strconv.Itoa(req.DPI),
		"-f", page,
		"-l", page,
		"-singlefile",
		req.Document,
		req.OutputPrefix,
	}
}
