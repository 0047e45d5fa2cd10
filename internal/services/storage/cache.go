package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// GetFromCache returns nil data and nil error on a miss.
func (s *StorageService) GetFromCache(ctx context.Context, cacheKey string) ([]byte, error) {
	data, err := s.redisClient.Get(ctx, cacheKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("cache get error: %w", err)
	}
	return data, nil
}

func (s *StorageService) SetCache(ctx context.Context, cacheKey string, data []byte) error {
	if err := s.redisClient.Set(ctx, cacheKey, data, s.cacheDuration).Err(); err != nil {
		return fmt.Errorf("cache set error: %w", err)
	}
	return nil
}

// CacheStats reports how many keys with the given prefix are cached.
func (s *StorageService) CacheStats(ctx context.Context, prefix string) (map[string]interface{}, error) {
	var (
		cursor uint64
		count  int
	)
	for {
		keys, next, err := s.redisClient.Scan(ctx, cursor, prefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan cache: %w", err)
		}
		count += len(keys)
		cursor = next
		if cursor == 0 {
			break
		}
	}

	dbSize, err := s.redisClient.DBSize(ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read cache size: %w", err)
	}

	return map[string]interface{}{
		"cached_results": count,
		"db_keys":        dbSize,
		"ttl":            s.cacheDuration.String(),
	}, nil
}
