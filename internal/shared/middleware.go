package shared

import (
	"context"
	"strconv"
	"time"

	"timely/pkg/config"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

func MetricsMiddleware(metrics *AppMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		metrics.IncrementActiveConnections(c.Request.Context())
		defer metrics.DecrementActiveConnections(c.Request.Context())

		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()

		metrics.RecordRequest(
			c.Request.Context(),
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
			duration,
		)
	}
}

func SetupGinMiddleware(router *gin.Engine, serviceName string, metrics *AppMetrics, logger *AppLogger) {
	SetupGinMiddlewareWithConfig(router, serviceName, metrics, logger, config.GetDefaultConfig())
}

func SetupGinMiddlewareWithConfig(router *gin.Engine, serviceName string, metrics *AppMetrics, logger *AppLogger, cfg *config.AppConfig) {
	httpsEnforcer := NewHTTPSEnforcer(cfg.EnforceHTTPS, logger.Logger.Logger)
	router.Use(httpsEnforcer.HTTPSMiddleware())

	router.Use(otelgin.Middleware(serviceName))

	router.Use(LoggingMiddleware(logger))

	if cfg.RateLimitEnabled {
		rateLimiter := NewRateLimiter(newRateLimitStore(cfg, logger), logger.Logger.Logger, metrics)

		for path, limit := range cfg.RateLimitConfigs {
			rateLimiter.SetConfig(path, limit)
		}

		router.Use(rateLimiter.RateLimitMiddleware())
	}

	router.Use(MetricsMiddleware(metrics))
}

// newRateLimitStore prefers redis when configured and reachable, falling
// back to the in-process store.
func newRateLimitStore(cfg *config.AppConfig, logger *AppLogger) RateLimitStore {
	if cfg.RateLimitRedis == "" {
		return NewMemoryStore()
	}

	opts, err := redis.ParseURL(cfg.RateLimitRedis)

	if err != nil {
		logger.Logger.Logger.Warn("Invalid redis url, using in-memory rate limiting", zap.Error(err))
		return NewMemoryStore()
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Logger.Logger.Warn("Redis unreachable, using in-memory rate limiting", zap.Error(err))
		return NewMemoryStore()
	}

	return NewRedisStore(client)
}
