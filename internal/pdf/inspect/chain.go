package inspect

import (
	"context"
	"fmt"
	"log/slog"
)

// Chain asks each inspector in turn and merges the first page count and the
// first reference width it sees. It never fails: when nothing is known it
// returns DefaultProfile.
type Chain struct {
	inspectors []Inspector
	logger     *slog.Logger
}

// NewChain creates a Chain over inspectors. A nil logger discards output.
func NewChain(logger *slog.Logger, inspectors ...Inspector) *Chain {
	if logger == nil {
		logger = discardLogger()
	}
	return &Chain{inspectors: inspectors, logger: logger}
}

// Backend reports BackendAuto.
func (c *Chain) Backend() Backend {
	return BackendAuto
}

// Inspect runs the chain. The returned error is always nil.
func (c *Chain) Inspect(ctx context.Context, path string) (*Profile, error) {
	merged := &Profile{}

	for _, in := range c.inspectors {
		if ctx.Err() != nil {
			break
		}

		p, err := inspectOne(ctx, in, path)
		if err != nil || p == nil {
			c.logger.Debug("inspector unavailable", "backend", in.Backend(), "error", err)
			continue
		}

		if merged.PageCount <= 0 && p.PageCount > 0 {
			merged.PageCount = p.PageCount
			merged.Source = p.Source
		}
		if merged.ReferenceWidthPt <= 0 && p.ReferenceWidthPt > 0 {
			merged.ReferenceWidthPt = p.ReferenceWidthPt
		}
		if merged.PageCount > 0 && merged.ReferenceWidthPt > 0 {
			break
		}
	}

	if merged.PageCount <= 0 {
		c.logger.Warn("page count unavailable, using default", "pages", DefaultPageCount)
		merged.PageCount = DefaultPageCount
		merged.Source = SourceDefault
	}
	return merged, nil
}

// inspectOne runs a single inspector and turns a panic into an error.
func inspectOne(ctx context.Context, in Inspector, path string) (profile *Profile, err error) {
	defer func() {
		if r := recover(); r != nil {
			profile = nil
			err = &InspectError{Backend: in.Backend(), Op: "parse", Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	return in.Inspect(ctx, path)
}
