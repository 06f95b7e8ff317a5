package convert

import (
	"io"
	"log/slog"
)

// Progress receives per-page rasterization events.
type Progress interface {
	PageStarted(page, total int)
	PageDone(page int, err error)
	Finish()
}

type nopProgress struct{}

func (nopProgress) PageStarted(int, int) {}
func (nopProgress) PageDone(int, error)  {}
func (nopProgress) Finish()              {}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
