package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/phambaophuc/image-editor/internal/config"
	"github.com/phambaophuc/image-editor/internal/http/handlers"
	"github.com/phambaophuc/image-editor/internal/http/routes"
	"github.com/phambaophuc/image-editor/internal/models"
	"github.com/phambaophuc/image-editor/internal/services/compress"
	"github.com/phambaophuc/image-editor/internal/services/dispatcher"
	"github.com/phambaophuc/image-editor/internal/services/queue"
	"github.com/phambaophuc/image-editor/internal/services/session"
	"github.com/phambaophuc/image-editor/internal/services/storage"
	"github.com/phambaophuc/image-editor/pkg/utils"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Initialize logger
	logger, err := utils.NewLogger(cfg.Log.Level)
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	// Initialize services
	httpDispatcher := dispatcher.NewHTTPDispatcher(cfg.Processing.BaseURL, cfg.Processing.Timeout, logger)

	storageService, err := storage.NewStorageService(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize storage service", zap.Error(err))
	}
	defer storageService.Close()

	var opDispatcher dispatcher.Dispatcher = httpDispatcher
	if cfg.Processing.CacheResults {
		opDispatcher = dispatcher.NewCachingDispatcher(httpDispatcher, storageService, logger)
		logger.Info("Result cache enabled", zap.String("redis", cfg.Redis.Addr))
	}

	var compressor session.Compressor
	if cfg.Compression.Enabled {
		compressor = compress.NewCompressor(compress.Options{
			MaxBytes:     cfg.Compression.MaxBytes,
			MaxDimension: cfg.Compression.MaxDimension,
			Quality:      cfg.Compression.Quality,
		}, logger)
	}

	var (
		events       session.EventPublisher
		queueService *queue.QueueService
	)
	if cfg.RabbitMQ.URL != "" {
		queueService, err = queue.NewQueueService(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue, logger)
		if err != nil {
			logger.Warn("Failed to initialize queue service", zap.Error(err))
			// Continue without the event feed
		} else {
			events = queueService
			defer queueService.Close()
		}
	}

	exports, s3Store, err := newExportStore(cfg, storageService, logger)
	if err != nil {
		logger.Fatal("Failed to initialize export backend", zap.Error(err))
	}

	manager := session.NewManager(session.ManagerOptions{
		Dispatcher:      opDispatcher,
		Compressor:      compressor,
		Events:          events,
		Logger:          logger,
		IdleTimeout:     cfg.Session.IdleTimeout,
		CleanupInterval: cfg.Session.CleanupInterval,
		MaxSessions:     cfg.Session.MaxSessions,
	})

	healthHandler := handlers.NewHealthHandler(5*time.Second,
		func(ctx context.Context) map[string]string {
			return map[string]string{"processing": httpDispatcher.HealthCheck(ctx)}
		},
		func(ctx context.Context) map[string]string {
			if !cfg.Processing.CacheResults && cfg.Export.Backend != "supabase" {
				return map[string]string{"redis": models.HealthNotConfigured}
			}
			return storageService.HealthCheck(ctx)
		},
		func(ctx context.Context) map[string]string {
			if queueService == nil {
				return map[string]string{"rabbitmq": models.HealthNotConfigured}
			}
			return map[string]string{"rabbitmq": queueService.HealthCheck()}
		},
		func(ctx context.Context) map[string]string {
			if s3Store == nil {
				return nil
			}
			return map[string]string{"s3": s3Store.HealthCheck(ctx)}
		},
	).WithStats("sessions", func(context.Context) (map[string]interface{}, error) {
		return map[string]interface{}{
			"active":   manager.Count(),
			"previews": manager.Previews().Len(),
		}, nil
	})
	if cfg.Processing.CacheResults {
		healthHandler.WithStats("cache", func(ctx context.Context) (map[string]interface{}, error) {
			return storageService.CacheStats(ctx, dispatcher.CacheKeyPrefix)
		})
	}
	if queueService != nil {
		healthHandler.WithStats("events", queueService.EventFeedStats)
	}

	// Initialize handlers
	sessionHandler := handlers.NewSessionHandler(manager, exports, logger, cfg)

	router := routes.NewRouter(sessionHandler, healthHandler, cfg.Server.AllowedOrigins, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		Handler:      router.Handler(),
	}

	// Start server
	go func() {
		logger.Info("Starting editor server",
			zap.String("addr", server.Addr),
			zap.String("processing_api", cfg.Processing.BaseURL))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	manager.Shutdown()

	logger.Info("Server exited")
}

// newExportStore picks the export backend named by EXPORT_BACKEND. Both
// results are nil when export is disabled.
func newExportStore(cfg *config.Config, supabase *storage.StorageService, logger *zap.Logger) (storage.ExportStore, *storage.S3Store, error) {
	switch cfg.Export.Backend {
	case "":
		return nil, nil, nil
	case "supabase":
		return supabase, nil, nil
	case "s3":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s3Store, err := storage.NewS3Store(ctx, cfg.Export.S3Bucket, cfg.Export.S3Prefix, cfg.Export.PresignTTL, logger)
		if err != nil {
			return nil, nil, err
		}
		return s3Store, s3Store, nil
	default:
		return nil, nil, fmt.Errorf("unknown export backend %q: expected supabase or s3", cfg.Export.Backend)
	}
}
