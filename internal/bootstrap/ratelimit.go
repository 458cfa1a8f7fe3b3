package bootstrap

import (
	"log"

	"github.com/tainyuhu/pin-server/internal/config"
	"github.com/tainyuhu/pin-server/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// rateLimitMiddlewares holds rate limiting middlewares for different endpoints
type rateLimitMiddlewares struct {
	loginURL      gin.HandlerFunc
	exchange      gin.HandlerFunc
	passwordReset gin.HandlerFunc
}

// setupRateLimiting configures rate limiting middlewares based on configuration.
// Accepts an optional go-redis client shared across limiters.
func setupRateLimiting(cfg *config.Config, redisClient *redis.Client) rateLimitMiddlewares {
	noOpMiddleware := func(c *gin.Context) { c.Next() }
	disabledLimiters := rateLimitMiddlewares{
		loginURL:      noOpMiddleware,
		exchange:      noOpMiddleware,
		passwordReset: noOpMiddleware,
	}

	if !cfg.EnableRateLimit {
		return disabledLimiters
	}
	return createRateLimiters(cfg, redisClient)
}

// createRateLimiters creates rate limiting middlewares for all endpoints
func createRateLimiters(cfg *config.Config, redisClient *redis.Client) rateLimitMiddlewares {
	log.Printf("Rate limiting enabled (store: %s)", cfg.RateLimitStore)

	storeType := middleware.RateLimitStoreType(cfg.RateLimitStore)

	createLimiter := func(requestsPerMinute int, keyPrefix, endpoint string) gin.HandlerFunc {
		limiter, err := middleware.NewRateLimiter(middleware.RateLimitConfig{
			RequestsPerMinute: requestsPerMinute,
			KeyPrefix:         keyPrefix,
			StoreType:         storeType,
			RedisClient:       redisClient,
			CleanupInterval:   cfg.RateLimitCleanupInterval,
		})
		if err != nil {
			log.Fatalf("Failed to create rate limiter for %s: %v", endpoint, err)
		}
		return limiter
	}

	return rateLimitMiddlewares{
		loginURL:      createLimiter(cfg.LoginURLRateLimit, "ratelimit:loginurl", "/api/line/login/url"),
		exchange:      createLimiter(cfg.ExchangeRateLimit, "ratelimit:exchange", "/api/line/login/exchange-temp-token"),
		passwordReset: createLimiter(cfg.PasswordResetRateLimit, "ratelimit:pwreset", "/api/password-reset"),
	}
}
