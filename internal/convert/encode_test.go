package convert

import (
	"bytes"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_Formats(t *testing.T) {
	img := imaging.New(16, 16, pageColor(1))

	tests := []struct {
		format Format
		magic  []byte
	}{
		{format: FormatJPG, magic: []byte{0xFF, 0xD8, 0xFF}},
		{format: FormatPNG, magic: []byte("\x89PNG")},
		{format: FormatWebP, magic: []byte("RIFF")},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Encode(&buf, img, tt.format, 80))
			assert.True(t, bytes.HasPrefix(buf.Bytes(), tt.magic), "unexpected header % x", buf.Bytes()[:4])
		})
	}
}

func TestEncode_UnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	err := Encode(&buf, imaging.New(1, 1, pageColor(1)), Format("bmp"), 80)
	assert.True(t, errors.Is(err, ErrInvalidRequest))
}

func TestPNGCompression(t *testing.T) {
	tests := []struct {
		quality int
		want    png.CompressionLevel
	}{
		{quality: 100, want: png.NoCompression},
		{quality: 96, want: png.NoCompression},
		{quality: 95, want: png.BestSpeed},
		{quality: 90, want: png.BestSpeed},
		{quality: 70, want: png.BestSpeed},
		{quality: 60, want: png.DefaultCompression},
		{quality: 40, want: png.DefaultCompression},
		{quality: 30, want: png.BestCompression},
		{quality: 1, want: png.BestCompression},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, PNGCompression(tt.quality), "quality %d", tt.quality)
	}
}

func TestWriteImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out.png")

	size, err := WriteImage(path, imaging.New(20, 30, pageColor(2)), FormatPNG, 90)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, info.Size(), size)
	assert.Equal(t, os.FileMode(outputPerm), info.Mode().Perm())

	img, err := imaging.Open(path)
	require.NoError(t, err)
	assert.Equal(t, 20, img.Bounds().Dx())
	assert.Equal(t, 30, img.Bounds().Dy())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files left behind")
}

func TestWriteImage_FailureLeavesExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.jpg")
	require.NoError(t, os.WriteFile(path, []byte("previous"), 0o600))

	_, err := WriteImage(path, imaging.New(4, 4, pageColor(1)), Format("gif"), 90)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEncode))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "previous", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
