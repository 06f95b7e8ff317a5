package inspect

import (
	"context"
	"fmt"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PDFCPU inspects documents with pdfcpu in relaxed validation mode.
type PDFCPU struct{}

// NewPDFCPU creates a pdfcpu inspector.
func NewPDFCPU() *PDFCPU {
	return &PDFCPU{}
}

// Backend returns BackendPDFCPU.
func (p *PDFCPU) Backend() Backend {
	return BackendPDFCPU
}

// Inspect reads the page tree and the dimensions of the first page.
func (p *PDFCPU) Inspect(_ context.Context, path string) (profile *Profile, err error) {
	// pdfcpu panics on some malformed page trees.
	defer func() {
		if r := recover(); r != nil {
			profile = nil
			err = &InspectError{Backend: BackendPDFCPU, Op: "parse", Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	file, err := os.Open(path)
	if err != nil {
		return nil, &InspectError{Backend: BackendPDFCPU, Op: "open", Err: err}
	}
	defer file.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(file, conf)
	if err != nil {
		return nil, &InspectError{
			Backend: BackendPDFCPU,
			Op:      "read",
			Err:     fmt.Errorf("failed to read PDF context: %w", err),
		}
	}

	if err := ctx.EnsurePageCount(); err != nil {
		return nil, &InspectError{
			Backend: BackendPDFCPU,
			Op:      "page_count",
			Err:     fmt.Errorf("failed to ensure page count: %w", err),
		}
	}

	profile = &Profile{PageCount: ctx.PageCount, Source: string(BackendPDFCPU)}

	// A broken page tree still leaves a usable page count.
	if dims, err := ctx.PageDims(); err == nil && len(dims) > 0 && dims[0].Width > 0 {
		profile.ReferenceWidthPt = dims[0].Width
	}

	if profile.PageCount <= 0 {
		return nil, &InspectError{Backend: BackendPDFCPU, Op: "page_count", Err: ErrNoPageInfo}
	}
	return profile, nil
}
