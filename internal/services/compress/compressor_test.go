package compress

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noisyPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	rng := rand.New(rand.NewSource(1))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{uint8(rng.Intn(256)), uint8(rng.Intn(256)), uint8(rng.Intn(256)), 255})
		}
	}
	buf := &bytes.Buffer{}
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

func TestCompressLeavesSmallImagesAlone(t *testing.T) {
	data := noisyPNG(t, 16, 16)
	c := NewCompressor(DefaultOptions, nil)

	out, mimeType := c.Compress(context.Background(), data, "image/png")
	assert.Equal(t, data, out)
	assert.Equal(t, "image/png", mimeType)
}

func TestCompressFitsOversizedImages(t *testing.T) {
	data := noisyPNG(t, 400, 100)
	c := NewCompressor(Options{MaxBytes: 1 << 30, MaxDimension: 200, Quality: 80}, nil)

	out, mimeType := c.Compress(context.Background(), data, "image/png")
	require.NotEmpty(t, out)

	cfg, _, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 200, cfg.Width)
	assert.Equal(t, 50, cfg.Height)
	assert.Equal(t, "image/png", mimeType)
}

func TestCompressReencodesLargeFilesAsJPEG(t *testing.T) {
	data := noisyPNG(t, 300, 300)
	c := NewCompressor(Options{MaxBytes: int64(len(data) / 2), MaxDimension: 1920, Quality: 85}, nil)

	out, mimeType := c.Compress(context.Background(), data, "image/png")
	assert.Equal(t, "image/jpeg", mimeType)
	assert.Less(t, len(out), len(data))

	_, format, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
}

func TestCompressFallsBackOnGarbage(t *testing.T) {
	data := []byte("definitely not an image")
	c := NewCompressor(Options{MaxBytes: 1}, nil)

	out, mimeType := c.Compress(context.Background(), data, "application/octet-stream")
	assert.Equal(t, data, out)
	assert.Equal(t, "application/octet-stream", mimeType)
}

func TestNewCompressorAppliesDefaults(t *testing.T) {
	c := NewCompressor(Options{}, nil)
	assert.Equal(t, DefaultOptions, c.opts)
}
