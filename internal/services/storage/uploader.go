package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/phambaophuc/image-editor/pkg/utils"
	storage_go "github.com/supabase-community/storage-go"
	"go.uber.org/zap"
)

// Upload stores an exported image in the Supabase bucket and returns its public URL.
func (s *StorageService) Upload(ctx context.Context, data []byte, filename, contentType string) (string, error) {
	if s.bucket == "" {
		return "", fmt.Errorf("failed to upload to supabase: no bucket configured")
	}
	key := utils.GenerateStorageKey(s.directory, filename)

	if contentType == "" {
		contentType = "application/octet-stream"
	}

	// The client keeps upload options in headers shared by every request.
	s.uploadMu.Lock()
	_, err := s.sbClient.UploadFile(s.bucket, key, bytes.NewReader(data), storage_go.FileOptions{
		ContentType: &contentType,
	})
	s.uploadMu.Unlock()
	if err != nil {
		return "", fmt.Errorf("failed to upload to supabase: %w", err)
	}

	s.logger.Info("Exported image to supabase",
		zap.String("key", key),
		zap.String("content_type", contentType),
		zap.Int("size", len(data)))

	publicURL := s.sbClient.GetPublicUrl(s.bucket, key)
	return publicURL.SignedURL, nil
}

