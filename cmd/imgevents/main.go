// Command imgevents tails the editor's session event queue into the log.
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/phambaophuc/image-editor/internal/config"
	"github.com/phambaophuc/image-editor/internal/models"
	"github.com/phambaophuc/image-editor/internal/services/queue"
	"github.com/phambaophuc/image-editor/pkg/utils"
	"go.uber.org/zap"
)

func main() {
	workers := flag.Int("workers", 1, "number of consumers")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	logger, err := utils.NewLogger(cfg.Log.Level)
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	if cfg.RabbitMQ.URL == "" {
		logger.Fatal("RABBITMQ_URL is not set")
	}

	queueService, err := queue.NewQueueService(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue, logger)
	if err != nil {
		logger.Fatal("Failed to initialize queue service", zap.Error(err))
	}
	defer queueService.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	record := func(_ context.Context, event *models.SessionEvent) error {
		fields := []zap.Field{
			zap.String("event_id", event.ID),
			zap.String("session_id", event.SessionID),
			zap.String("type", event.Type),
			zap.Time("created_at", event.CreatedAt),
		}
		if event.Operation != "" {
			fields = append(fields, zap.String("operation", string(event.Operation)))
		}
		if event.Parameter != nil {
			fields = append(fields, zap.Int("parameter", *event.Parameter))
		}
		if event.Error != "" {
			fields = append(fields, zap.String("error", event.Error))
		}
		logger.Info("Session event", fields...)
		return nil
	}

	for i := 1; i <= *workers; i++ {
		if err := queueService.StartWorker(ctx, i, record); err != nil {
			logger.Fatal("Failed to start worker", zap.Int("worker_id", i), zap.Error(err))
		}
	}

	<-ctx.Done()
	logger.Info("Event log stopped")
}
