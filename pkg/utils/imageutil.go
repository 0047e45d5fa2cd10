package utils

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// IsValidImageType checks if content type is a valid image type
func IsValidImageType(contentType string) bool {
	validTypes := []string{
		"image/jpeg",
		"image/jpg",
		"image/png",
		"image/gif",
		"image/webp",
		"image/bmp",
		"image/tiff",
	}

	ct := strings.ToLower(contentType)
	for _, validType := range validTypes {
		if strings.Contains(ct, validType) {
			return true
		}
	}
	return false
}

// GenerateStorageKey builds a collision-free object key under directory.
func GenerateStorageKey(directory, filename string) string {
	filename = filepath.Base(filename)
	ext := filepath.Ext(filename)
	name := strings.TrimSuffix(filename, ext)
	if name == "" || name == "." {
		name = "image"
	}
	timestamp := time.Now().Unix()
	id := uuid.New().String()[:8]

	return path.Join(directory, fmt.Sprintf("%s_%d_%s%s", name, timestamp, id, ext))
}
