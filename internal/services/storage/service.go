package storage

import (
	"context"
	"sync"
	"time"

	"github.com/phambaophuc/image-editor/internal/config"
	"github.com/redis/go-redis/v9"
	storage_go "github.com/supabase-community/storage-go"
	"go.uber.org/zap"
)

// ExportStore receives finished images and returns a URL the user can fetch
// them from.
type ExportStore interface {
	Upload(ctx context.Context, data []byte, filename, contentType string) (string, error)
	Name() string
}

type StorageService struct {
	sbClient      *storage_go.Client
	redisClient   *redis.Client
	bucket        string
	directory     string
	cacheDuration time.Duration
	logger        *zap.Logger

	uploadMu sync.Mutex
}

func NewStorageService(cfg *config.Config, logger *zap.Logger) (*StorageService, error) {
	sbClient := storage_go.NewClient(cfg.Supabase.URL+"/storage/v1", cfg.Supabase.KEY, nil)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	return &StorageService{
		sbClient:      sbClient,
		redisClient:   redisClient,
		bucket:        cfg.Supabase.BUCKET,
		directory:     cfg.Export.KeyDirectory,
		cacheDuration: cfg.Storage.CacheDuration,
		logger:        logger,
	}, nil
}

func (s *StorageService) Name() string { return "supabase" }

// Close releases the Redis connection pool.
func (s *StorageService) Close() error {
	return s.redisClient.Close()
}
