// Package compress shrinks a selected image before it is uploaded for
// editing. It is best-effort: any failure yields the original bytes.
package compress

import (
	"bytes"
	"context"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const qualityStep = 10

type Options struct {
	MaxBytes     int64
	MaxDimension int
	Quality      int
	MinQuality   int
}

var DefaultOptions = Options{
	MaxBytes:     1 << 20, // 1MB
	MaxDimension: 1920,
	Quality:      85,
	MinQuality:   45,
}

type Compressor struct {
	opts   Options
	logger *zap.Logger
}

func NewCompressor(opts Options, logger *zap.Logger) *Compressor {
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultOptions.MaxBytes
	}
	if opts.MaxDimension <= 0 {
		opts.MaxDimension = DefaultOptions.MaxDimension
	}
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = DefaultOptions.Quality
	}
	if opts.MinQuality <= 0 || opts.MinQuality > opts.Quality {
		opts.MinQuality = min(DefaultOptions.MinQuality, opts.Quality)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Compressor{opts: opts, logger: logger}
}

// Compress returns possibly smaller image bytes and their MIME type.
func (c *Compressor) Compress(ctx context.Context, data []byte, mimeType string) ([]byte, string) {
	if ctx.Err() != nil {
		return data, mimeType
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		c.logger.Warn("Compression skipped: unreadable image", zap.Error(err))
		return data, mimeType
	}

	oversized := max(cfg.Width, cfg.Height) > c.opts.MaxDimension
	if !oversized && int64(len(data)) <= c.opts.MaxBytes {
		return data, mimeType
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		c.logger.Warn("Compression skipped: decode failed", zap.Error(err))
		return data, mimeType
	}

	if oversized {
		img = imaging.Fit(img, c.opts.MaxDimension, c.opts.MaxDimension, imaging.Lanczos)
	}

	out, outType, err := c.encode(img, format)
	if err != nil {
		c.logger.Warn("Compression skipped: encode failed", zap.Error(err))
		return data, mimeType
	}

	if !oversized && len(out) >= len(data) {
		return data, mimeType
	}

	c.logger.Debug("Image compressed",
		zap.String("format", format),
		zap.Int("original_bytes", len(data)),
		zap.Int("compressed_bytes", len(out)))

	return out, outType
}

// encode keeps lossless formats when they fit, otherwise steps JPEG quality
// down until the budget is met or the floor is reached.
func (c *Compressor) encode(img image.Image, format string) ([]byte, string, error) {
	if format == "png" || format == "gif" {
		buf := &bytes.Buffer{}
		if err := imaging.Encode(buf, img, imaging.PNG); err != nil {
			return nil, "", err
		}
		if int64(buf.Len()) <= c.opts.MaxBytes {
			return buf.Bytes(), "image/png", nil
		}
	}

	var best []byte
	for q := c.opts.Quality; q >= c.opts.MinQuality; q -= qualityStep {
		buf := &bytes.Buffer{}
		if err := imaging.Encode(buf, img, imaging.JPEG, imaging.JPEGQuality(q)); err != nil {
			return nil, "", err
		}
		if best == nil || buf.Len() < len(best) {
			best = buf.Bytes()
		}
		if int64(buf.Len()) <= c.opts.MaxBytes {
			break
		}
	}
	return best, "image/jpeg", nil
}
