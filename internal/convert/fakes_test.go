package convert

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"os"
	"sync"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/pdf2img/internal/pdf/inspect"
	"github.com/a3tai/pdf2img/internal/pdf/raster"
)

// fakeRasterizer writes a solid-colour PNG per page, keyed by page number.
type fakeRasterizer struct {
	width, height int

	fail    map[int]bool
	hang    map[int]bool
	corrupt map[int]bool
	missing bool

	mu    sync.Mutex
	calls []raster.PageRequest
}

func newFakeRasterizer(width, height int) *fakeRasterizer {
	return &fakeRasterizer{
		width:   width,
		height:  height,
		fail:    map[int]bool{},
		hang:    map[int]bool{},
		corrupt: map[int]bool{},
	}
}

func (f *fakeRasterizer) Format() raster.PageFormat { return raster.PagePNG }

func (f *fakeRasterizer) Rasterize(ctx context.Context, req raster.PageRequest) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()

	switch {
	case f.missing:
		return "", fmt.Errorf("%w: pdftoppm", raster.ErrToolNotFound)
	case f.hang[req.Page]:
		<-ctx.Done()
		return "", ctx.Err()
	case f.fail[req.Page]:
		return "", fmt.Errorf("page %d: %w", req.Page, errors.New("exit status 99"))
	}

	path := req.OutputPrefix + ".png"
	if f.corrupt[req.Page] {
		return path, os.WriteFile(path, []byte("not an image"), 0o600)
	}
	img := imaging.New(f.width, f.height, pageColor(req.Page))
	if err := imaging.Save(img, path); err != nil {
		return "", err
	}
	return path, nil
}

func (f *fakeRasterizer) pages() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]int, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.Page
	}
	return out
}

// pageColor gives every page a distinct, easily recognisable colour.
func pageColor(page int) color.NRGBA {
	return color.NRGBA{R: uint8(page * 40), G: 20, B: uint8(255 - page*30), A: 255}
}

type fakeInspector struct {
	profile *inspect.Profile
	err     error
}

func (f *fakeInspector) Inspect(context.Context, string) (*inspect.Profile, error) {
	return f.profile, f.err
}

// recordingProgress captures progress events.
type recordingProgress struct {
	started  []int
	done     map[int]error
	finished int
}

func (p *recordingProgress) PageStarted(page, _ int) {
	p.started = append(p.started, page)
}

func (p *recordingProgress) PageDone(page int, err error) {
	if p.done == nil {
		p.done = map[int]error{}
	}
	p.done[page] = err
}

func (p *recordingProgress) Finish() { p.finished++ }

// writePage saves a solid image for normalizer tests and returns its artifact.
func writePage(t *testing.T, dir string, page, width, height int) PageArtifact {
	t.Helper()
	path := fmt.Sprintf("%s/page-%04d.png", dir, page)
	require.NoError(t, imaging.Save(imaging.New(width, height, pageColor(page)), path))
	return PageArtifact{Page: page, Path: path}
}

// assertColorNear fails when c differs from want by more than 2 per channel.
func assertColorNear(t *testing.T, want color.NRGBA, c color.Color, msg string) {
	t.Helper()
	got := color.NRGBAModel.Convert(c).(color.NRGBA)
	diff := func(a, b uint8) int {
		if a > b {
			return int(a - b)
		}
		return int(b - a)
	}
	if diff(want.R, got.R) > 2 || diff(want.G, got.G) > 2 || diff(want.B, got.B) > 2 {
		t.Errorf("%s: got %v, want %v", msg, got, want)
	}
}
