package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/image-editor/internal/http/handlers"
	"github.com/phambaophuc/image-editor/internal/http/middleware"
	"go.uber.org/zap"
)

type Router struct {
	sessionHandler *handlers.SessionHandler
	healthHandler  *handlers.HealthHandler
	allowedOrigins []string
	logger         *zap.Logger
}

func NewRouter(
	sessionHandler *handlers.SessionHandler,
	healthHandler *handlers.HealthHandler,
	allowedOrigins []string,
	logger *zap.Logger,
) *Router {
	return &Router{
		sessionHandler: sessionHandler,
		healthHandler:  healthHandler,
		allowedOrigins: allowedOrigins,
		logger:         logger,
	}
}

func (r *Router) SetupRoutes() *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger(r.logger))
	router.Use(middleware.ErrorHandler(r.logger))
	router.Use(middleware.SecurityHeaders())

	// API version 1
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", r.healthHandler.HealthCheck)
		v1.GET("/stats", r.healthHandler.GetStats)
		v1.GET("/operations", r.sessionHandler.ListOperations)
		v1.GET("/previews/:handle", r.sessionHandler.Preview)

		sessions := v1.Group("/sessions")
		{
			sessions.POST("", r.sessionHandler.CreateSession)
			sessions.GET("/:id", r.sessionHandler.GetSession)
			sessions.DELETE("/:id", r.sessionHandler.DeleteSession)
			sessions.POST("/:id/image", middleware.RequireMultipart(), r.sessionHandler.SelectImage)
			sessions.POST("/:id/operations/:op", r.sessionHandler.ApplyOperation)
			sessions.POST("/:id/prompt", r.sessionHandler.SubmitParameter)
			sessions.POST("/:id/prompt/cancel", r.sessionHandler.CancelParameter)
			sessions.GET("/:id/download", r.sessionHandler.Download)
			sessions.POST("/:id/export", r.sessionHandler.Export)
		}
	}

	router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{
			"status":  "OK",
			"message": "Image editor is running",
		})
	})

	return router
}

// Handler is the engine wrapped with the CORS policy.
func (r *Router) Handler() http.Handler {
	return middleware.CORS(r.allowedOrigins)(r.SetupRoutes())
}
