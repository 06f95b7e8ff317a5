package inspect

import (
	"context"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// maxTreeDepth bounds the walk up the page tree for an inherited MediaBox.
const maxTreeDepth = 32

// Ledongthuc inspects documents with ledongthuc/pdf.
type Ledongthuc struct{}

// NewLedongthuc creates a ledongthuc inspector.
func NewLedongthuc() *Ledongthuc {
	return &Ledongthuc{}
}

// Backend returns BackendLedongthuc.
func (l *Ledongthuc) Backend() Backend {
	return BackendLedongthuc
}

// Inspect reads the page count and the MediaBox width of page 1.
func (l *Ledongthuc) Inspect(_ context.Context, path string) (profile *Profile, err error) {
	// ledongthuc/pdf panics on some malformed files instead of returning errors.
	defer func() {
		if r := recover(); r != nil {
			profile = nil
			err = &InspectError{Backend: BackendLedongthuc, Op: "parse", Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, &InspectError{Backend: BackendLedongthuc, Op: "open", Err: err}
	}
	defer f.Close()

	pages := reader.NumPage()
	if pages <= 0 {
		return nil, &InspectError{Backend: BackendLedongthuc, Op: "page_count", Err: ErrNoPageInfo}
	}

	return &Profile{
		PageCount:        pages,
		ReferenceWidthPt: mediaBoxWidth(reader.Page(1).V),
		Source:           string(BackendLedongthuc),
	}, nil
}

// mediaBoxWidth returns the width of the nearest MediaBox on the page or its
// ancestors, or 0 when none is found.
func mediaBoxWidth(v pdf.Value) float64 {
	for depth := 0; depth < maxTreeDepth && !v.IsNull(); depth++ {
		box := v.Key("MediaBox")
		if box.Len() == 4 {
			w := box.Index(2).Float64() - box.Index(0).Float64()
			if w < 0 {
				w = -w
			}
			return w
		}
		v = v.Key("Parent")
	}
	return 0
}
