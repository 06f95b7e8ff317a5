package convert

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/pdf2img/internal/pdf/inspect"
	"github.com/a3tai/pdf2img/internal/pdf/raster"
)

type converterFixture struct {
	workDir string
	outDir  string
	raster  *fakeRasterizer
	inspect *fakeInspector
	prog    *recordingProgress
}

func newConverterFixture(t *testing.T, pages int) *converterFixture {
	t.Helper()
	return &converterFixture{
		workDir: t.TempDir(),
		outDir:  t.TempDir(),
		raster:  newFakeRasterizer(200, 300),
		inspect: &fakeInspector{profile: &inspect.Profile{PageCount: pages, Source: "fake"}},
		prog:    &recordingProgress{},
	}
}

func (f *converterFixture) converter(opts ...Option) *Converter {
	base := []Option{
		WithInspector(f.inspect),
		WithRasterizer(f.raster),
		WithWorkDir(f.workDir),
		WithProgress(f.prog),
		WithPageTimeout(time.Second),
	}
	return NewConverter(append(base, opts...)...)
}

func (f *converterFixture) request(format Format) Request {
	return Request{
		DocumentPath: "doc.pdf",
		OutputPath:   filepath.Join(f.outDir, "doc"+format.Extension()),
		Width:        100,
		Quality:      90,
		Format:       format,
	}
}

func assertWorkDirEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "workspace must be removed")
}

func TestConvert_AllPages(t *testing.T) {
	f := newConverterFixture(t, 3)
	req := f.request(FormatPNG)

	res, err := f.converter().Convert(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, req.OutputPath, res.OutputPath)
	assert.Equal(t, 100, res.Width)
	assert.Equal(t, 450, res.Height)
	assert.Equal(t, 3, res.PageCount)
	assert.Equal(t, 12, res.DPI)
	assert.Equal(t, "fake", res.ProfileSource)
	assert.Equal(t, []int{1, 2, 3}, res.Pages)
	assert.False(t, res.Partial())
	assert.Positive(t, res.Bytes)
	assert.Equal(t, 1, f.prog.finished)

	img, err := imaging.Open(req.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())
	assert.Equal(t, 450, img.Bounds().Dy())

	assertWorkDirEmpty(t, f.workDir)
}

func TestConvert_PartialFailureKeepsOrder(t *testing.T) {
	f := newConverterFixture(t, 5)
	f.raster.fail[2] = true
	f.raster.fail[4] = true
	req := f.request(FormatPNG)

	res, err := f.converter().Convert(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 3, 5}, res.Pages)
	assert.True(t, res.Partial())
	require.Len(t, res.Failures, 2)
	assert.Equal(t, 450, res.Height)

	img, err := imaging.Open(req.OutputPath)
	require.NoError(t, err)
	assertColorNear(t, pageColor(1), img.At(50, 75), "first band")
	assertColorNear(t, pageColor(3), img.At(50, 225), "second band")
	assertColorNear(t, pageColor(5), img.At(50, 375), "third band")

	assertWorkDirEmpty(t, f.workDir)
}

func TestConvert_TotalFailure(t *testing.T) {
	f := newConverterFixture(t, 2)
	f.raster.fail[1] = true
	f.raster.fail[2] = true
	req := f.request(FormatJPG)

	res, err := f.converter().Convert(context.Background(), req)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, ErrNoPagesProduced))
	assert.NoFileExists(t, req.OutputPath)
	assertWorkDirEmpty(t, f.workDir)
}

func TestConvert_DecodeFailures(t *testing.T) {
	f := newConverterFixture(t, 3)
	f.raster.corrupt[2] = true
	req := f.request(FormatJPG)

	res, err := f.converter().Convert(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, res.Pages)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, StageDecode, res.Failures[0].Stage)
}

func TestConvert_AllUndecodable(t *testing.T) {
	f := newConverterFixture(t, 2)
	f.raster.corrupt[1] = true
	f.raster.corrupt[2] = true
	req := f.request(FormatJPG)

	_, err := f.converter().Convert(context.Background(), req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAllPagesFailed))
	assert.NoFileExists(t, req.OutputPath)
	assertWorkDirEmpty(t, f.workDir)
}

func TestConvert_ToolMissing(t *testing.T) {
	f := newConverterFixture(t, 4)
	f.raster.missing = true

	_, err := f.converter().Convert(context.Background(), f.request(FormatJPG))
	require.Error(t, err)
	assert.True(t, errors.Is(err, raster.ErrToolNotFound))
	assert.Len(t, f.raster.pages(), 1)
	assertWorkDirEmpty(t, f.workDir)
}

func TestConvert_InspectionFallback(t *testing.T) {
	f := newConverterFixture(t, 0)
	f.inspect.profile = nil
	f.inspect.err = errors.New("broken xref")
	f.raster.fail[3] = true

	res, err := f.converter().Convert(context.Background(), f.request(FormatJPG))
	require.NoError(t, err)
	assert.Equal(t, inspect.DefaultPageCount, res.PageCount)
	assert.Equal(t, inspect.SourceDefault, res.ProfileSource)
	assert.Equal(t, []int{1, 2, 3}, f.raster.pages())
	assert.Equal(t, []int{1, 2}, res.Pages)
}

func TestConvert_WidePageLowersDensity(t *testing.T) {
	f := newConverterFixture(t, 1)
	f.inspect.profile.ReferenceWidthPt = 1190
	req := f.request(FormatJPG)
	req.Width = 1200

	res, err := f.converter().Convert(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 73, res.DPI)
	assert.Equal(t, 73, f.raster.calls[0].DPI)
}

func TestConvert_InvalidRequest(t *testing.T) {
	f := newConverterFixture(t, 1)
	c := f.converter()

	for _, q := range []int{0, 101, -5} {
		req := f.request(FormatJPG)
		req.Quality = q
		_, err := c.Convert(context.Background(), req)
		assert.True(t, errors.Is(err, ErrInvalidRequest), "quality %d", q)
	}

	req := f.request(FormatJPG)
	req.Width = 0
	_, err := c.Convert(context.Background(), req)
	assert.True(t, errors.Is(err, ErrInvalidRequest))

	assert.Empty(t, f.raster.pages())
	assertWorkDirEmpty(t, f.workDir)
}

func TestConvert_Cancelled(t *testing.T) {
	f := newConverterFixture(t, 3)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.converter().Convert(ctx, f.request(FormatJPG))
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assertWorkDirEmpty(t, f.workDir)
}

func TestConvert_WebP(t *testing.T) {
	f := newConverterFixture(t, 2)
	req := f.request(FormatWebP)

	res, err := f.converter().Convert(context.Background(), req)
	require.NoError(t, err)

	data, err := os.ReadFile(res.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, "RIFF", string(data[:4]))
	assert.Equal(t, "WEBP", string(data[8:12]))
}

func TestConverter_Inspect(t *testing.T) {
	f := newConverterFixture(t, 7)
	profile := f.converter().Inspect(context.Background(), "doc.pdf")
	assert.Equal(t, 7, profile.PageCount)
}

func TestConvert_LogsPlan(t *testing.T) {
	f := newConverterFixture(t, 2)
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	_, err := f.converter(WithLogger(logger)).Convert(context.Background(), f.request(FormatPNG))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "planned rasterization")
	assert.Contains(t, out, "page_format=png")
	assert.Contains(t, out, "workspace="+f.workDir)
}
