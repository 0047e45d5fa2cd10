package processor

import (
	"image"
	"image/color"
	"io"

	"github.com/disintegration/imaging"
)

// encodeImage always writes JPEG. Transparent areas are flattened onto white.
func (p *ImageProcessor) encodeImage(w io.Writer, img image.Image) error {
	bounds := img.Bounds()
	background := imaging.New(bounds.Dx(), bounds.Dy(), color.White)
	flat := imaging.Overlay(background, img, image.Pt(0, 0), 1.0)
	return imaging.Encode(w, flat, imaging.JPEG, imaging.JPEGQuality(p.quality))
}
