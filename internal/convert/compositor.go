package convert

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
	"github.com/sourcegraph/conc/iter"
)

// Compose stacks images top to bottom on a white canvas that is width pixels
// wide and as tall as all images together. Image i is placed at x=0 and
// y = sum of the heights of images 0..i-1.
func Compose(images []NormalizedImage, width int) *image.NRGBA {
	// Height lookups are independent; they all finish before drawing starts.
	heights := iter.Map(images, func(img *NormalizedImage) int {
		return img.Height()
	})

	offsets, total := Offsets(heights)
	canvas := imaging.New(width, total, color.White)

	for i, img := range images {
		dst := image.Rect(0, offsets[i], width, offsets[i]+heights[i])
		draw.Draw(canvas, dst, img.Image, img.Image.Bounds().Min, draw.Over)
	}
	return canvas
}

// Offsets returns the top offset of each image and the total height.
func Offsets(heights []int) ([]int, int) {
	offsets := make([]int, len(heights))
	total := 0
	for i, h := range heights {
		offsets[i] = total
		total += h
	}
	return offsets, total
}
