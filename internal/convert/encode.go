package convert

import (
	"bufio"
	"fmt"
	"image"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"
)

// outputPerm is applied to the finished image.
const outputPerm = 0o644

// Encode writes img to w in format. quality is the JPEG/WebP quality; for
// PNG it selects the compression effort through PNGCompression.
func Encode(w io.Writer, img image.Image, format Format, quality int) error {
	switch format {
	case FormatJPG:
		return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(quality))
	case FormatPNG:
		return imaging.Encode(w, img, imaging.PNG, imaging.PNGCompressionLevel(PNGCompression(quality)))
	case FormatWebP:
		opts, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, float32(quality))
		if err != nil {
			return fmt.Errorf("webp options: %w", err)
		}
		return webp.Encode(w, img, opts)
	default:
		return fmt.Errorf("%w: unsupported format %q", ErrInvalidRequest, format)
	}
}

// PNGCompression maps quality onto a zlib effort: level = round((100-q)/10),
// so higher quality means less compression work. Go exposes four levels,
// so the 0..10 scale is bucketed.
func PNGCompression(quality int) png.CompressionLevel {
	level := int(math.Round(float64(MaxQuality-quality) / 10))
	switch {
	case level <= 0:
		return png.NoCompression
	case level <= 3:
		return png.BestSpeed
	case level <= 6:
		return png.DefaultCompression
	default:
		return png.BestCompression
	}
}

// WriteImage encodes img into path. The image is written to a temporary file
// next to path and renamed over it, so a failed encode leaves neither a
// partial file nor a changed existing one. It returns the size written.
func WriteImage(path string, img image.Image, format Format, quality int) (int64, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return 0, fmt.Errorf("%w: creating output directory: %w", ErrEncode, err)
	}

	tmp, err := os.CreateTemp(dir, ".pdf2img-out-*")
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrEncode, err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	buf := bufio.NewWriter(tmp)
	if err := Encode(buf, img, format, quality); err != nil {
		return 0, fmt.Errorf("%w: encoding %s: %w", ErrEncode, format, err)
	}
	if err := buf.Flush(); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrEncode, err)
	}
	if err := tmp.Chmod(outputPerm); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrEncode, err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrEncode, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrEncode, err)
	}
	committed = true

	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrEncode, err)
	}
	return info.Size(), nil
}
