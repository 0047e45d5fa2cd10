package processor

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// adjustBrightness scales every channel by (100+percent)/100, clamped to
// [0, 255]. Black stays black.
func adjustBrightness(img image.Image, percent int) *image.NRGBA {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{
			R: scaleChannel(c.R, percent),
			G: scaleChannel(c.G, percent),
			B: scaleChannel(c.B, percent),
			A: c.A,
		}
	})
}

func scaleChannel(v uint8, percent int) uint8 {
	scaled := int(v) + int(v)*percent/100
	switch {
	case scaled < 0:
		return 0
	case scaled > 255:
		return 255
	}
	return uint8(scaled)
}
