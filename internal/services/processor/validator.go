package processor

import (
	"fmt"
	"image"
	"io"
)

// ValidateImage checks the upload size and that it decodes as an image. The
// reader is rewound before returning.
func (p *ImageProcessor) ValidateImage(file io.ReadSeeker, maxSize int64) (string, error) {
	size, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		return "", fmt.Errorf("failed to inspect upload: %w", err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("failed to inspect upload: %w", err)
	}

	if size == 0 {
		return "", fmt.Errorf("empty image upload")
	}
	if size > maxSize {
		return "", fmt.Errorf("file size %d exceeds maximum allowed size %d", size, maxSize)
	}

	_, format, err := image.DecodeConfig(file)
	if err != nil {
		return "", fmt.Errorf("invalid image format: %w", err)
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("failed to rewind upload: %w", err)
	}
	return format, nil
}
