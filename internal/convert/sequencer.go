package convert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/a3tai/pdf2img/internal/hints"
	"github.com/a3tai/pdf2img/internal/pdf/raster"
)

// DefaultPageTimeout bounds the rasterization of a single page.
const DefaultPageTimeout = 60 * time.Second

// Sequencer rasterizes pages one after another, each under its own deadline.
type Sequencer struct {
	Rasterizer  raster.Rasterizer
	PageTimeout time.Duration
	Progress    Progress
	Logger      *slog.Logger
}

// Run renders pages 1..pageCount of doc at dpi into ws. A page that fails or
// times out is recorded and skipped. Run returns an error only when the
// rasterizer is missing, ctx is cancelled, or no page was produced.
func (s *Sequencer) Run(ctx context.Context, doc string, pageCount, dpi int, ws *Workspace) (
	[]PageArtifact, []PageFailure, error,
) {
	progress := s.Progress
	if progress == nil {
		progress = nopProgress{}
	}
	logger := s.Logger
	if logger == nil {
		logger = discardLogger()
	}
	timeout := s.PageTimeout
	if timeout <= 0 {
		timeout = DefaultPageTimeout
	}

	var (
		artifacts []PageArtifact
		failures  []PageFailure
	)

	for page := 1; page <= pageCount; page++ {
		if err := ctx.Err(); err != nil {
			return nil, failures, err
		}

		progress.PageStarted(page, pageCount)
		path, err := s.rasterizePage(ctx, doc, page, dpi, ws, timeout)
		progress.PageDone(page, err)

		if err == nil {
			artifacts = append(artifacts, PageArtifact{Page: page, Path: path})
			continue
		}

		if errors.Is(err, raster.ErrToolNotFound) {
			return nil, failures, fmt.Errorf("%w%s", err, hints.ForPoppler())
		}
		if ctx.Err() != nil {
			return nil, failures, ctx.Err()
		}

		failure := PageFailure{Page: page, Stage: StageRasterize, Reason: ReasonFailed, Err: err}
		if errors.Is(err, context.DeadlineExceeded) {
			failure.Reason = ReasonTimeout
			logger.Warn("page rasterization timed out", "page", page, "timeout", timeout)
		} else {
			logger.Warn("page rasterization failed", "page", page, "error", err)
		}
		failures = append(failures, failure)
	}

	if len(artifacts) == 0 {
		hint := hints.ForNoPages()
		if allTimedOut(failures) {
			hint = hints.ForTimeout()
		}
		return nil, failures, fmt.Errorf("%w: %d of %d pages failed%s",
			ErrNoPagesProduced, len(failures), pageCount, hint)
	}
	return artifacts, failures, nil
}

func allTimedOut(failures []PageFailure) bool {
	if len(failures) == 0 {
		return false
	}
	for _, f := range failures {
		if f.Reason != ReasonTimeout {
			return false
		}
	}
	return true
}

func (s *Sequencer) rasterizePage(ctx context.Context, doc string, page, dpi int, ws *Workspace,
	timeout time.Duration,
) (string, error) {
	pageCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return s.Rasterizer.Rasterize(pageCtx, raster.PageRequest{
		Document:     doc,
		Page:         page,
		DPI:          dpi,
		OutputPrefix: ws.PagePrefix(page),
	})
}
