package convert

import (
	"fmt"
	"image"
	"strings"
)

// Format is the encoding of the stitched output image.
type Format string

const (
	FormatJPG  Format = "jpg"
	FormatPNG  Format = "png"
	FormatWebP Format = "webp"
)

// Defaults for a conversion request.
const (
	DefaultWidth   = 1200
	DefaultQuality = 90
	DefaultFormat  = FormatJPG

	MinQuality = 1
	MaxQuality = 100
)

// SupportedFormats lists accepted output format names, aliases included.
func SupportedFormats() []string {
	return []string{"jpg", "jpeg", "png", "webp"}
}

// ParseFormat parses an output format name, case-insensitively. "jpeg" is an
// alias for jpg.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "jpg", "jpeg":
		return FormatJPG, nil
	case "png":
		return FormatPNG, nil
	case "webp":
		return FormatWebP, nil
	default:
		return "", fmt.Errorf("%w: unsupported format %q (supported: %s)",
			ErrInvalidRequest, s, strings.Join(SupportedFormats(), ", "))
	}
}

// Extension returns the file extension for f, including the dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// Request is a validated conversion request. It is not modified after
// construction.
type Request struct {
	DocumentPath string
	OutputPath   string
	Width        int
	Quality      int
	Format       Format
}

// Validate checks the request invariants.
func (r Request) Validate() error {
	if r.DocumentPath == "" {
		return fmt.Errorf("%w: document path cannot be empty", ErrInvalidRequest)
	}
	if r.OutputPath == "" {
		return fmt.Errorf("%w: output path cannot be empty", ErrInvalidRequest)
	}
	if r.Width <= 0 {
		return fmt.Errorf("%w: width must be a positive integer, got %d", ErrInvalidRequest, r.Width)
	}
	if r.Quality < MinQuality || r.Quality > MaxQuality {
		return fmt.Errorf("%w: quality must be between %d and %d, got %d",
			ErrInvalidRequest, MinQuality, MaxQuality, r.Quality)
	}
	if _, err := ParseFormat(string(r.Format)); err != nil {
		return err
	}
	return nil
}

// PageArtifact is one rasterized page file in the workspace.
type PageArtifact struct {
	Page int
	Path string
}

// NormalizedImage is a decoded page scaled to the target width.
type NormalizedImage struct {
	Page      int
	Image     image.Image
	Resampled bool
}

// Height returns the pixel height of the image.
func (n NormalizedImage) Height() int {
	return n.Image.Bounds().Dy()
}

// Result describes a finished conversion.
type Result struct {
	OutputPath    string
	Width         int
	Height        int
	DPI           int
	PageCount     int
	ProfileSource string
	// Pages lists the page numbers present in the output, in order.
	Pages    []int
	Failures []PageFailure
	Bytes    int64
}

// Partial reports whether some pages were dropped.
func (r *Result) Partial() bool {
	return len(r.Failures) > 0
}
