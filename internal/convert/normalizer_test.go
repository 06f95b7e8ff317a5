package convert

import (
	"errors"
	"image"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizer_PassThrough(t *testing.T) {
	dir := t.TempDir()
	n := &Normalizer{}

	images, failures, err := n.Normalize([]PageArtifact{writePage(t, dir, 1, 100, 140)}, 100)
	require.NoError(t, err)
	assert.Empty(t, failures)
	require.Len(t, images, 1)
	assert.False(t, images[0].Resampled)
	assert.Equal(t, 140, images[0].Height())
}

func TestNormalizer_PassThroughKeepsDecodedImage(t *testing.T) {
	decoded := image.NewNRGBA(image.Rect(0, 0, 100, 140))
	var paths []string
	n := &Normalizer{Decode: func(path string) (image.Image, error) {
		paths = append(paths, path)
		return decoded, nil
	}}

	images, failures, err := n.Normalize([]PageArtifact{{Page: 1, Path: "page-0001.png"}}, 100)
	require.NoError(t, err)
	assert.Empty(t, failures)
	require.Len(t, images, 1)
	assert.False(t, images[0].Resampled)
	assert.Same(t, decoded, images[0].Image)
	assert.Equal(t, []string{"page-0001.png"}, paths)
}

func TestNormalizer_Resample(t *testing.T) {
	dir := t.TempDir()
	n := &Normalizer{}

	artifacts := []PageArtifact{
		writePage(t, dir, 1, 200, 300),
		writePage(t, dir, 2, 50, 75),
	}
	images, _, err := n.Normalize(artifacts, 100)
	require.NoError(t, err)
	require.Len(t, images, 2)

	for _, img := range images {
		assert.True(t, img.Resampled)
		assert.Equal(t, 100, img.Image.Bounds().Dx())
		assert.Equal(t, 150, img.Height())
	}
	assertColorNear(t, pageColor(1), images[0].Image.At(50, 75), "downscaled page")
	assertColorNear(t, pageColor(2), images[1].Image.At(50, 75), "upscaled page")
}

func TestNormalizer_SortsByPage(t *testing.T) {
	dir := t.TempDir()
	artifacts := []PageArtifact{
		writePage(t, dir, 3, 10, 10),
		writePage(t, dir, 1, 10, 10),
		writePage(t, dir, 2, 10, 10),
	}

	images, _, err := (&Normalizer{}).Normalize(artifacts, 10)
	require.NoError(t, err)
	require.Len(t, images, 3)
	for i, img := range images {
		assert.Equal(t, i+1, img.Page)
	}
	assert.Equal(t, 3, artifacts[0].Page, "input must not be reordered")
}

func TestNormalizer_SkipsUndecodable(t *testing.T) {
	dir := t.TempDir()
	artifacts := []PageArtifact{
		writePage(t, dir, 1, 10, 10),
		{Page: 2, Path: dir + "/missing.png"},
		writePage(t, dir, 3, 10, 10),
	}

	images, failures, err := (&Normalizer{}).Normalize(artifacts, 10)
	require.NoError(t, err)
	require.Len(t, images, 2)
	assert.Equal(t, 1, images[0].Page)
	assert.Equal(t, 3, images[1].Page)

	require.Len(t, failures, 1)
	assert.Equal(t, 2, failures[0].Page)
	assert.Equal(t, StageDecode, failures[0].Stage)
}

func TestNormalizer_AllFail(t *testing.T) {
	n := &Normalizer{
		Decode: func(string) (image.Image, error) { return nil, errors.New("bad data") },
	}

	_, failures, err := n.Normalize([]PageArtifact{{Page: 1, Path: "a"}, {Page: 2, Path: "b"}}, 10)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAllPagesFailed))
	assert.Len(t, failures, 2)
}

func TestNormalizer_CustomFilter(t *testing.T) {
	dir := t.TempDir()
	filter := imaging.NearestNeighbor
	n := &Normalizer{Filter: &filter}

	images, _, err := n.Normalize([]PageArtifact{writePage(t, dir, 1, 20, 10)}, 40)
	require.NoError(t, err)
	assert.Equal(t, 20, images[0].Height())
	assert.Equal(t, pageColor(1), images[0].Image.At(39, 19))
}

func TestScaledHeight(t *testing.T) {
	tests := []struct {
		w, h, target, want int
	}{
		{w: 200, h: 300, target: 100, want: 150},
		{w: 1240, h: 1754, target: 1200, want: 1697},
		{w: 3, h: 1, target: 1, want: 1},
		{w: 1000, h: 1, target: 10, want: 1},
		{w: 0, h: 100, target: 10, want: 1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ScaledHeight(tt.w, tt.h, tt.target), "%dx%d -> %d", tt.w, tt.h, tt.target)
	}
}
