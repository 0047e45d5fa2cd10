// Package processor is the pixel side of the image service: it decodes an
// upload, applies one operation and re-encodes the result as JPEG.
package processor

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
	"github.com/phambaophuc/image-editor/internal/models"
	"go.uber.org/zap"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const DefaultQuality = 90

var (
	ErrUnsupportedOperation = errors.New("unsupported operation")
	ErrInvalidParameter     = errors.New("invalid operation parameter")
)

type ImageProcessor struct {
	quality int
	logger  *zap.Logger
}

func NewImageProcessor(quality int, logger *zap.Logger) *ImageProcessor {
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImageProcessor{quality: quality, logger: logger}
}

// ProcessImage applies op to the image read from r. value is required for
// parameterized operations and ignored otherwise.
func (p *ImageProcessor) ProcessImage(r io.Reader, op models.Operation, value *int) (*bytes.Buffer, error) {
	desc, ok := models.Describe(op)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedOperation, op)
	}
	if desc.RequiresParameter() {
		if value == nil {
			return nil, fmt.Errorf("%w: %s requires a value", ErrInvalidParameter, op)
		}
		if !desc.Parameter.Contains(*value) {
			return nil, fmt.Errorf("%w: %d is outside [%d, %d]",
				ErrInvalidParameter, *value, desc.Parameter.Min, desc.Parameter.Max)
		}
	}

	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	processed := p.apply(img, op, value)

	buffer := &bytes.Buffer{}
	if err := p.encodeImage(buffer, processed); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	p.logger.Debug("Image processed",
		zap.String("operation", string(op)),
		zap.Int("width", processed.Bounds().Dx()),
		zap.Int("height", processed.Bounds().Dy()),
		zap.Int("size", buffer.Len()))

	return buffer, nil
}

func (p *ImageProcessor) apply(img image.Image, op models.Operation, value *int) image.Image {
	switch op {
	case models.OpGrayscale:
		return imaging.Grayscale(img)
	case models.OpRotateClockwise:
		return imaging.Rotate270(img)
	case models.OpRotateCounter:
		return imaging.Rotate90(img)
	case models.OpFlipHorizontal:
		return imaging.FlipH(img)
	case models.OpFlipVertical:
		return imaging.FlipV(img)
	case models.OpBrightness:
		return adjustBrightness(img, *value)
	case models.OpBlur:
		return imaging.Blur(img, float64(*value))
	}
	return img
}
