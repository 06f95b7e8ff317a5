package inspect

import (
	"context"
	"regexp"
	"strconv"

	"github.com/a3tai/pdf2img/internal/process"
)

// DefaultPdfinfo is the Poppler metadata tool looked up on PATH.
const DefaultPdfinfo = "pdfinfo"

var (
	pagesPattern    = regexp.MustCompile(`(?m)^\s*Pages:\s+(\d+)`)
	pageSizePattern = regexp.MustCompile(`(?m)^\s*Page size:\s+([\d.]+)\s+x\s+([\d.]+)`)
)

// Pdfinfo inspects documents by parsing the text output of Poppler's pdfinfo.
type Pdfinfo struct {
	Binary string
	Runner process.Runner
}

// NewPdfinfo creates a pdfinfo inspector. An empty binary selects pdfinfo from PATH.
func NewPdfinfo(binary string) *Pdfinfo {
	if binary == "" {
		binary = DefaultPdfinfo
	}
	return &Pdfinfo{Binary: binary, Runner: process.NewExecRunner()}
}

// Backend returns BackendPdfinfo.
func (p *Pdfinfo) Backend() Backend {
	return BackendPdfinfo
}

// Inspect runs pdfinfo on path and parses its output.
func (p *Pdfinfo) Inspect(ctx context.Context, path string) (*Profile, error) {
	stdout, _, err := p.Runner.Run(ctx, p.Binary, path)
	if err != nil {
		return nil, &InspectError{Backend: BackendPdfinfo, Op: "run", Err: err}
	}

	profile, err := ParsePdfinfo(stdout)
	if err != nil {
		return nil, &InspectError{Backend: BackendPdfinfo, Op: "parse", Err: err}
	}
	return profile, nil
}

// ParsePdfinfo extracts the "Pages:" and "Page size:" fields. Either field may
// be missing; ErrNoPageInfo is returned only when both are.
func ParsePdfinfo(out string) (*Profile, error) {
	profile := &Profile{Source: string(BackendPdfinfo)}

	if m := pagesPattern.FindStringSubmatch(out); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			profile.PageCount = n
		}
	}
	if m := pageSizePattern.FindStringSubmatch(out); m != nil {
		if w, err := strconv.ParseFloat(m[1], 64); err == nil && w > 0 {
			profile.ReferenceWidthPt = w
		}
	}

	if profile.PageCount == 0 && profile.ReferenceWidthPt == 0 {
		return nil, ErrNoPageInfo
	}
	return profile, nil
}
