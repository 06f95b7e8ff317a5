// Package inspect reads the page count and reference page width of a PDF
// through interchangeable backends.
package inspect

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// DefaultPageCount is assumed when no backend can read the page count.
const DefaultPageCount = 3

// Backend identifies an inspection implementation.
type Backend string

const (
	BackendAuto       Backend = "auto" // try every backend in order
	BackendPDFCPU     Backend = "pdfcpu"
	BackendLedongthuc Backend = "ledongthuc"
	BackendPdfinfo    Backend = "pdfinfo"

	// SourceDefault marks a profile built from defaults only.
	SourceDefault = "default"
)

// Profile holds what the conversion needs to know about a document.
type Profile struct {
	PageCount int
	// ReferenceWidthPt is the width of the first page in PDF points; 0 when unknown.
	ReferenceWidthPt float64
	Source           string
}

// DefaultProfile is the profile used when inspection is unavailable.
func DefaultProfile() *Profile {
	return &Profile{PageCount: DefaultPageCount, Source: SourceDefault}
}

// Inspector reads a Profile from a document path.
type Inspector interface {
	Inspect(ctx context.Context, path string) (*Profile, error)
	Backend() Backend
}

// InspectError reports a failure of a single backend.
type InspectError struct {
	Backend Backend
	Op      string
	Err     error
}

func (e *InspectError) Error() string {
	return fmt.Sprintf("%s inspector error in %s: %v", e.Backend, e.Op, e.Err)
}

func (e *InspectError) Unwrap() error {
	return e.Err
}

var (
	ErrUnsupportedBackend = errors.New("unsupported inspector backend")
	ErrNoPageInfo         = errors.New("no page information found")
)

// Options configures the backends built by New.
type Options struct {
	// PdfinfoBinary overrides the pdfinfo executable.
	PdfinfoBinary string
	Logger        *slog.Logger
}

// New creates the inspector for backend. BackendAuto yields a Chain over
// pdfcpu, ledongthuc and pdfinfo, in that order.
func New(backend Backend, opts Options) (Inspector, error) {
	switch backend {
	case BackendPDFCPU:
		return NewPDFCPU(), nil
	case BackendLedongthuc:
		return NewLedongthuc(), nil
	case BackendPdfinfo:
		return NewPdfinfo(opts.PdfinfoBinary), nil
	case BackendAuto, "":
		return NewChain(opts.Logger, NewPDFCPU(), NewLedongthuc(), NewPdfinfo(opts.PdfinfoBinary)), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedBackend, backend)
	}
}

// SupportedBackends lists the accepted backend names.
func SupportedBackends() []Backend {
	return []Backend{BackendAuto, BackendPDFCPU, BackendLedongthuc, BackendPdfinfo}
}

// ParseBackend validates a backend name.
func ParseBackend(s string) (Backend, error) {
	for _, b := range SupportedBackends() {
		if string(b) == s {
			return b, nil
		}
	}
	if s == "" {
		return BackendAuto, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedBackend, s)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
