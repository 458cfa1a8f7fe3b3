package bootstrap

import (
	"errors"
	"fmt"
	"log"

	"github.com/tainyuhu/pin-server/internal/config"
)

// validateAllConfiguration validates all configuration settings
func validateAllConfiguration(cfg *config.Config) {
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if err := validateMessagingConfig(cfg); err != nil {
		log.Fatalf("Invalid messaging configuration: %v", err)
	}
	if err := validateRateLimitConfig(cfg); err != nil {
		log.Fatalf("Invalid rate limit configuration: %v", err)
	}
}

// validateMessagingConfig checks the bot channel settings. The login flow
// works without a bot channel, so missing credentials only log a warning
// unless exactly one half of the pair is set.
func validateMessagingConfig(cfg *config.Config) error {
	hasSecret := cfg.LineBotChannelSecret != ""
	hasToken := cfg.LineBotAccessToken != ""

	switch {
	case hasSecret && hasToken:
		return nil
	case !hasSecret && !hasToken:
		log.Println("LINE bot channel not configured: webhook and push messaging disabled")
		return nil
	default:
		return errors.New(
			"LINE_BOT_CHANNEL_SECRET and LINE_BOT_ACCESS_TOKEN must be set together",
		)
	}
}

// validateRateLimitConfig checks that required config is present for the
// selected rate limit store
func validateRateLimitConfig(cfg *config.Config) error {
	if !cfg.EnableRateLimit {
		return nil
	}
	switch cfg.RateLimitStore {
	case config.RateLimitStoreMemory:
		return nil
	case config.RateLimitStoreRedis:
		if cfg.RedisAddr == "" {
			return errors.New("REDIS_ADDR is required when RATE_LIMIT_STORE=redis")
		}
		return nil
	default:
		return fmt.Errorf(
			"invalid RATE_LIMIT_STORE: %s (must be: memory, redis)",
			cfg.RateLimitStore,
		)
	}
}
