package shared

import (
	"context"
	"crypto/sha256"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"timely/pkg/config"

	"github.com/gin-gonic/gin"
	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimitStore counts requests per key within a fixed window. A single
// process uses the in-memory store; multi-instance deployments point the
// limiter at redis so counters are shared.
type RateLimitStore interface {
	Increment(ctx context.Context, key string, window time.Duration) (count int, resetTime time.Time, err error)
}

type memoryStore struct {
	cache *gocache.Cache
	mutex sync.Mutex
}

type memoryEntry struct {
	Count     int
	ResetTime time.Time
}

func NewMemoryStore() RateLimitStore {
	return &memoryStore{
		cache: gocache.New(5*time.Minute, 10*time.Minute),
	}
}

func (s *memoryStore) Increment(ctx context.Context, key string, window time.Duration) (int, time.Time, error) {
	now := time.Now()

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if raw, found := s.cache.Get(key); found {
		entry := raw.(memoryEntry)

		if now.After(entry.ResetTime) {
			entry = memoryEntry{Count: 1, ResetTime: now.Add(window)}
			s.cache.Set(key, entry, window)
			return entry.Count, entry.ResetTime, nil
		}

		entry.Count++
		s.cache.Set(key, entry, time.Until(entry.ResetTime))
		return entry.Count, entry.ResetTime, nil
	}

	entry := memoryEntry{Count: 1, ResetTime: now.Add(window)}
	s.cache.Set(key, entry, window)

	return entry.Count, entry.ResetTime, nil
}

type redisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) RateLimitStore {
	return &redisStore{client: client}
}

func (s *redisStore) Increment(ctx context.Context, key string, window time.Duration) (int, time.Time, error) {
	pipe := s.client.TxPipeline()

	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	ttl := pipe.PTTL(ctx, key)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, time.Time{}, err
	}

	resetTime := time.Now().Add(ttl.Val())

	return int(incr.Val()), resetTime, nil
}

type RateLimiter struct {
	store   RateLimitStore
	configs map[string]config.RateLimitConfig
	logger  *zap.Logger
	metrics *AppMetrics
	mutex   sync.RWMutex
}

func NewRateLimiter(store RateLimitStore, logger *zap.Logger, metrics *AppMetrics) *RateLimiter {
	if store == nil {
		store = NewMemoryStore()
	}

	return &RateLimiter{
		store:   store,
		configs: map[string]config.RateLimitConfig{},
		logger:  logger,
		metrics: metrics,
	}
}

// SetConfig registers the limit for a route path. Paths without a config
// fall back to the "default" entry when one is set.
func (rl *RateLimiter) SetConfig(path string, cfg config.RateLimitConfig) {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()
	rl.configs[path] = cfg
}

func (rl *RateLimiter) configFor(path string) (config.RateLimitConfig, bool) {
	rl.mutex.RLock()
	defer rl.mutex.RUnlock()

	if cfg, ok := rl.configs[path]; ok {
		return cfg, true
	}

	if cfg, ok := rl.configs["default"]; ok {
		return cfg, true
	}

	return config.RateLimitConfig{}, false
}

func (rl *RateLimiter) RateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.FullPath()

		if path == "" {
			path = c.Request.URL.Path
		}

		cfg, ok := rl.configFor(path)

		if !ok {
			c.Next()
			return
		}

		key, keyType := rl.clientKey(c, path)

		count, resetTime, err := rl.store.Increment(c.Request.Context(), key, cfg.Window)

		if err != nil {
			// A broken store must not take the API down with it.
			rl.logger.Error("Rate limit store failure",
				zap.String("key", key),
				zap.Error(err))
			c.Next()
			return
		}

		remaining := cfg.Requests - count

		if remaining < 0 {
			remaining = 0
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.Requests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

		if count > cfg.Requests {
			if rl.metrics != nil {
				rl.metrics.RecordRateLimitHit(c.Request.Context(), path, keyType)
			}

			rl.logger.Warn("Rate limit exceeded",
				zap.String("key", key),
				zap.String("path", path),
				zap.Int("limit", cfg.Requests))

			c.Header("Retry-After", strconv.Itoa(int(time.Until(resetTime).Seconds())))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{
					"code": "RATE_LIMITED",
					"errors": []gin.H{
						{"field": "request", "message": fmt.Sprintf("too many requests, limit is %d per %v", cfg.Requests, cfg.Window)},
					},
				},
			})
			c.Abort()
			return
		}

		if rl.metrics != nil {
			rl.metrics.RecordRateLimitAllowed(c.Request.Context(), path, keyType)
		}

		c.Next()
	}
}

// clientKey keys authenticated traffic per session and anonymous traffic
// by IP. The limiter runs before session verification, so the raw cookie
// stands in for the user identity; an invalid cookie still gets its own
// bucket and is rejected downstream.
func (rl *RateLimiter) clientKey(c *gin.Context, path string) (string, string) {
	if userID, exists := c.Get("x-user-id"); exists {
		return fmt.Sprintf("rate_limit:%s:user_%v", path, userID), "user"
	}

	if cookie, err := c.Cookie("timely_session"); err == nil && cookie != "" {
		sum := sha256.Sum256([]byte(cookie))
		return fmt.Sprintf("rate_limit:%s:session_%x", path, sum[:8]), "session"
	}

	return fmt.Sprintf("rate_limit:%s:ip_%s", path, GetClientIP(c)), "ip"
}

// GetClientIP resolves the caller address, honoring proxy headers.
func GetClientIP(c *gin.Context) string {
	if ip := c.GetHeader("X-Forwarded-For"); ip != "" {
		ips := strings.Split(ip, ",")
		return strings.TrimSpace(ips[0])
	}

	if ip := c.GetHeader("X-Real-IP"); ip != "" {
		return ip
	}

	ip := c.ClientIP()

	if ip == "" {
		return "unknown"
	}

	return ip
}
