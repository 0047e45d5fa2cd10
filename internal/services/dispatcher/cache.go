package dispatcher

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/phambaophuc/image-editor/internal/models"
	"go.uber.org/zap"
)

const CacheKeyPrefix = "img_op:"

// ResultCache stores processed image bytes. A miss returns nil data and nil error.
type ResultCache interface {
	GetFromCache(ctx context.Context, cacheKey string) ([]byte, error)
	SetCache(ctx context.Context, cacheKey string, data []byte) error
}

// CachingDispatcher answers repeated (input, operation, parameter) triples
// from the cache. Cache failures are logged and never fail a dispatch.
type CachingDispatcher struct {
	next   Dispatcher
	cache  ResultCache
	logger *zap.Logger
}

func NewCachingDispatcher(next Dispatcher, cache ResultCache, logger *zap.Logger) *CachingDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachingDispatcher{next: next, cache: cache, logger: logger}
}

func (c *CachingDispatcher) Dispatch(ctx context.Context, req models.OperationRequest, artifact *models.ImageArtifact) (*models.ImageArtifact, error) {
	if artifact == nil {
		return c.next.Dispatch(ctx, req, artifact)
	}

	cacheKey := GenerateCacheKey(req, artifact)

	cached, err := c.cache.GetFromCache(ctx, cacheKey)
	if err != nil {
		c.logger.Warn("Result cache lookup failed", zap.String("cache_key", cacheKey), zap.Error(err))
	} else if cached != nil {
		c.logger.Info("Cache hit", zap.String("cache_key", cacheKey), zap.String("operation", req.String()))
		return &models.ImageArtifact{
			Data:     cached,
			MIMEType: models.CanonicalMIMEType,
			Filename: models.ProcessedFilename,
		}, nil
	}

	result, err := c.next.Dispatch(ctx, req, artifact)
	if err != nil {
		return nil, err
	}

	if err := c.cache.SetCache(ctx, cacheKey, result.Data); err != nil {
		c.logger.Warn("Failed to cache result", zap.String("cache_key", cacheKey), zap.Error(err))
	}
	return result, nil
}

// GenerateCacheKey hashes the operation, its parameter and the input bytes.
func GenerateCacheKey(req models.OperationRequest, artifact *models.ImageArtifact) string {
	hash := sha256.New()
	hash.Write([]byte(req.Operation))
	hash.Write([]byte{0})
	if req.Parameter != nil {
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], uint64(int64(*req.Parameter)))
		hash.Write([]byte{1})
		hash.Write(buf[:])
	} else {
		hash.Write([]byte{0})
	}
	hash.Write(artifact.Data)
	return fmt.Sprintf("%s%x", CacheKeyPrefix, hash.Sum(nil))
}
