package convert

import (
	"errors"
	"fmt"
)

// Sentinel errors for conversion failures.
var (
	ErrInvalidRequest  = errors.New("invalid conversion request")
	ErrWorkspace       = errors.New("workspace unavailable")
	ErrNoPagesProduced = errors.New("no pages produced")
	ErrAllPagesFailed  = errors.New("all pages failed processing")
	ErrEncode          = errors.New("failed to write output image")
)

// Stage is the pipeline step in which a page was lost.
type Stage string

const (
	StageRasterize Stage = "rasterize"
	StageDecode    Stage = "decode"
)

// Reason classifies a page failure.
type Reason string

const (
	ReasonTimeout Reason = "timeout"
	ReasonFailed  Reason = "failed"
)

// PageFailure records a page dropped from the output. Page failures are
// recovered locally and never abort a run on their own.
type PageFailure struct {
	Page   int
	Stage  Stage
	Reason Reason
	Err    error
}

func (f PageFailure) Error() string {
	if f.Reason == ReasonTimeout {
		return fmt.Sprintf("page %d: %s timed out: %v", f.Page, f.Stage, f.Err)
	}
	return fmt.Sprintf("page %d: %s failed: %v", f.Page, f.Stage, f.Err)
}

func (f PageFailure) Unwrap() error {
	return f.Err
}
