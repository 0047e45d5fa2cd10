package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/phambaophuc/image-editor/internal/config"
	"github.com/phambaophuc/image-editor/internal/http/handlers"
	"github.com/phambaophuc/image-editor/internal/http/routes"
	"github.com/phambaophuc/image-editor/internal/services/processor"
	"github.com/phambaophuc/image-editor/pkg/utils"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	logger, err := utils.NewLogger(cfg.Log.Level)
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	imageProcessor := processor.NewImageProcessor(processor.DefaultQuality, logger)
	processHandler := handlers.NewProcessHandler(imageProcessor, logger, cfg)
	router := routes.NewProcessingRouter(processHandler, cfg.Server.AllowedOrigins, logger)

	server := &http.Server{
		Addr:         ":" + cfg.Server.APIPort,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		Handler:      router.Handler(),
	}

	go func() {
		logger.Info("Starting image processing server", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
