package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/image-editor/internal/http/handlers"
	"github.com/phambaophuc/image-editor/internal/http/middleware"
	"go.uber.org/zap"
)

// ProcessingRouter serves the image processing service.
type ProcessingRouter struct {
	processHandler *handlers.ProcessHandler
	allowedOrigins []string
	logger         *zap.Logger
}

func NewProcessingRouter(
	processHandler *handlers.ProcessHandler,
	allowedOrigins []string,
	logger *zap.Logger,
) *ProcessingRouter {
	return &ProcessingRouter{
		processHandler: processHandler,
		allowedOrigins: allowedOrigins,
		logger:         logger,
	}
}

func (r *ProcessingRouter) SetupRoutes() *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger(r.logger))
	router.Use(middleware.ErrorHandler(r.logger))
	router.Use(middleware.SecurityHeaders())

	process := router.Group("/api/process")
	{
		process.GET("/test", r.processHandler.Test)
		process.POST("/:op", middleware.RequireMultipart(), r.processHandler.Process)
		process.POST("/:op/:value", middleware.RequireMultipart(), r.processHandler.Process)
	}

	return router
}

// Handler is the engine wrapped with the CORS policy.
func (r *ProcessingRouter) Handler() http.Handler {
	return middleware.CORS(r.allowedOrigins)(r.SetupRoutes())
}
