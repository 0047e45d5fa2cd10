package storage

import (
	"context"

	"github.com/phambaophuc/image-editor/internal/models"
	storage_go "github.com/supabase-community/storage-go"
	"go.uber.org/zap"
)

// HealthCheck checks Redis and, when a bucket is configured, Supabase.
func (s *StorageService) HealthCheck(ctx context.Context) map[string]string {
	status := make(map[string]string)

	if err := s.redisClient.Ping(ctx).Err(); err != nil {
		status["redis"] = models.Unhealthy(err.Error())
	} else {
		status["redis"] = models.HealthHealthy
	}

	if s.bucket == "" {
		return status
	}

	_, err := s.sbClient.ListFiles(s.bucket, "", storage_go.FileSearchOptions{})
	if err != nil {
		s.logger.Warn("Supabase health check failed", zap.Error(err))
		status["supabase"] = models.Unhealthy(err.Error())
	} else {
		status["supabase"] = models.HealthHealthy
	}

	return status
}
