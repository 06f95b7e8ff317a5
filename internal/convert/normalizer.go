package convert

import (
	"cmp"
	"fmt"
	"image"
	"log/slog"
	"math"
	"slices"

	"github.com/disintegration/imaging"
)

// Decoder loads a page image from disk.
type Decoder func(path string) (image.Image, error)

// Normalizer brings every page to the same pixel width.
type Normalizer struct {
	// Decode defaults to imaging.Open, which reads PNG, JPEG, TIFF and BMP.
	Decode Decoder
	// Filter defaults to imaging.Lanczos.
	Filter *imaging.ResampleFilter
	Logger *slog.Logger
}

// Normalize decodes artifacts in page order and scales each one to width.
// Pages that fail to decode are logged and returned as failures. It fails
// only when no page survives.
func (n *Normalizer) Normalize(artifacts []PageArtifact, width int) ([]NormalizedImage, []PageFailure, error) {
	decode := n.Decode
	if decode == nil {
		decode = openImage
	}
	filter := imaging.Lanczos
	if n.Filter != nil {
		filter = *n.Filter
	}
	logger := n.Logger
	if logger == nil {
		logger = discardLogger()
	}

	images := make([]NormalizedImage, 0, len(artifacts))
	var failures []PageFailure

	for _, a := range sortedArtifacts(artifacts) {
		img, err := decode(a.Path)
		if err != nil {
			logger.Warn("skipping unreadable page", "page", a.Page, "error", err)
			failures = append(failures, PageFailure{Page: a.Page, Stage: StageDecode, Reason: ReasonFailed, Err: err})
			continue
		}

		b := img.Bounds()
		logger.Debug("page decoded", "page", a.Page, "width", b.Dx(), "height", b.Dy())

		if b.Dx() == width {
			images = append(images, NormalizedImage{Page: a.Page, Image: img})
			continue
		}

		height := ScaledHeight(b.Dx(), b.Dy(), width)
		images = append(images, NormalizedImage{
			Page:      a.Page,
			Image:     imaging.Resize(img, width, height, filter),
			Resampled: true,
		})
	}

	if len(images) == 0 {
		return nil, failures, fmt.Errorf("%w: %d pages could not be decoded", ErrAllPagesFailed, len(failures))
	}
	return images, failures, nil
}

// ScaledHeight returns round(h * targetWidth / w), at least 1.
func ScaledHeight(w, h, targetWidth int) int {
	if w <= 0 {
		return 1
	}
	return max(1, int(math.Round(float64(h)*float64(targetWidth)/float64(w))))
}

func openImage(path string) (image.Image, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, err
	}
	if b := img.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("empty image: %s", path)
	}
	return img, nil
}

// sortedArtifacts returns artifacts ordered by page without touching the input.
func sortedArtifacts(artifacts []PageArtifact) []PageArtifact {
	out := slices.Clone(artifacts)
	slices.SortStableFunc(out, func(a, b PageArtifact) int { return cmp.Compare(a.Page, b.Page) })
	return out
}
