package routes

import (
	"net/http"

	"timely/internal/adapter/http/handler"
	"timely/internal/adapter/http/middleware"
	"timely/internal/core/port"
	"timely/internal/shared"
	"timely/pkg/config"

	"github.com/gin-gonic/gin"
)

type HandlersConfig struct {
	AuthService port.AuthService
	AuthHandler *handler.AuthHandler
	TaskHandler *handler.TaskHandler
}

func SetupRouter(handlers HandlersConfig, metrics *shared.AppMetrics, logger *shared.AppLogger) *gin.Engine {
	return SetupRouterWithConfig(handlers, metrics, logger, config.GetDefaultConfig())
}

func SetupRouterWithConfig(handlers HandlersConfig, metrics *shared.AppMetrics, logger *shared.AppLogger, cfg *config.AppConfig) *gin.Engine {
	if gin.Mode() == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	shared.SetupGinMiddlewareWithConfig(router, "timely", metrics, logger, cfg)

	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(corsMiddleware())

	registerRoutes(router, handlers)

	return router
}

// SetupRouterForTests skips the telemetry and rate-limit stack so handler
// tests exercise routing and auth only.
func SetupRouterForTests(handlers HandlersConfig) *gin.Engine {
	if gin.Mode() == "" {
		gin.SetMode(gin.TestMode)
	}

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(corsMiddleware())

	registerRoutes(router, handlers)

	return router
}

func registerRoutes(router *gin.Engine, handlers HandlersConfig) {
	if handlers.AuthHandler != nil {
		public := router.Group("/auth")
		{
			public.POST("/register", handlers.AuthHandler.Register)
			public.POST("/login", handlers.AuthHandler.Login)
			public.POST("/logout", handlers.AuthHandler.Logout)
			public.POST("/forgot-password", handlers.AuthHandler.ForgotPassword)
			public.POST("/reset-password", handlers.AuthHandler.ResetPassword)
		}

		session := router.Group("/auth")
		session.Use(middleware.SessionMiddleware(handlers.AuthService))
		{
			session.GET("/verify", handlers.AuthHandler.Verify)
		}
	}

	if handlers.TaskHandler != nil {
		protected := router.Group("/tasks")
		protected.Use(middleware.SessionMiddleware(handlers.AuthService))
		{
			protected.GET("", handlers.TaskHandler.ListActive)
			protected.POST("", handlers.TaskHandler.CreateTask)
			protected.GET("/deleted", handlers.TaskHandler.ListTrashed)
			protected.PUT("/:uuid", handlers.TaskHandler.UpdateTask)
			protected.DELETE("/:uuid", handlers.TaskHandler.TrashTask)
			protected.POST("/:uuid/restore", handlers.TaskHandler.RestoreTask)
			protected.DELETE("/:uuid/permanent", handlers.TaskHandler.PurgeTask)
		}
	}
}

// corsMiddleware echoes the origin so cookie credentials survive CORS.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if origin := c.GetHeader("Origin"); origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
		}

		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
