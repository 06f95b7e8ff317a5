// Package raster renders single PDF pages to image files through an external
// rasterizer.
package raster

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for rasterization failures.
var (
	// ErrToolNotFound means the rasterizer binary is not installed. It is
	// fatal for a whole run; retrying other pages cannot help.
	ErrToolNotFound = errors.New("rasterizer tool not found")

	// ErrNoOutput means the tool exited cleanly but wrote no page file.
	ErrNoOutput = errors.New("rasterizer produced no output file")

	ErrInvalidPageFormat = errors.New("invalid page format")
)

// PageFormat is the image format the rasterizer writes for each page.
type PageFormat string

const (
	PagePNG  PageFormat = "png"
	PageJPEG PageFormat = "jpeg"
	PageTIFF PageFormat = "tiff"
)

// Extension returns the file extension the rasterizer appends for f.
func (f PageFormat) Extension() string {
	switch f {
	case PageJPEG:
		return ".jpg"
	case PageTIFF:
		return ".tif"
	default:
		return ".png"
	}
}

// ParsePageFormat parses a page format name. Empty selects PNG.
func ParsePageFormat(s string) (PageFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "png":
		return PagePNG, nil
	case "jpg", "jpeg":
		return PageJPEG, nil
	case "tif", "tiff":
		return PageTIFF, nil
	default:
		return "", fmt.Errorf("%w: %q (supported: png, jpeg, tiff)", ErrInvalidPageFormat, s)
	}
}

// PageRequest describes one page to render.
type PageRequest struct {
	Document string // path to the PDF
	Page     int    // 1-based page index
	DPI      int
	// OutputPrefix is the output path without extension; the rasterizer
	// appends the extension of its page format.
	OutputPrefix string
}

// Rasterizer renders exactly one page per call and returns the written file.
type Rasterizer interface {
	Rasterize(ctx context.Context, req PageRequest) (string, error)
	Format() PageFormat
}
