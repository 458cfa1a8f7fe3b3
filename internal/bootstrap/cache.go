package bootstrap

import (
	"context"
	"fmt"
	"log"

	"github.com/tainyuhu/pin-server/internal/cache"
	"github.com/tainyuhu/pin-server/internal/config"
	"github.com/tainyuhu/pin-server/internal/metrics"
	"github.com/tainyuhu/pin-server/internal/services"
)

// initializeMetrics initializes Prometheus metrics
func initializeMetrics(cfg *config.Config) metrics.Recorder {
	recorder := metrics.Init(cfg.MetricsEnabled)
	if cfg.MetricsEnabled {
		log.Println("Prometheus metrics initialized")
	} else {
		log.Println("Metrics disabled (using noop implementation)")
	}
	return recorder
}

// initializeFlowCaches creates the three caches backing the login flow:
// pending authorization state, relay results, and verification codes. They
// share a backend but use distinct key prefixes so a redis deployment can
// inspect them separately.
func initializeFlowCaches(
	ctx context.Context,
	cfg *config.Config,
) (
	states cache.Cache[services.PendingAuthState],
	results cache.Cache[services.Result],
	codes cache.Cache[string],
	err error,
) {
	ctx, cancel := context.WithTimeout(ctx, cfg.CacheInitTimeout)
	defer cancel()

	switch cfg.CacheType {
	case config.CacheTypeRedis:
		states, err = cache.NewRueidisCache[services.PendingAuthState](
			ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, "pinserver:state:",
		)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to initialize state cache: %w", err)
		}
		results, err = cache.NewRueidisCache[services.Result](
			ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, "pinserver:result:",
		)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to initialize result cache: %w", err)
		}
		codes, err = cache.NewRueidisCache[string](
			ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, "pinserver:code:",
		)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to initialize code cache: %w", err)
		}
		log.Printf("Flow caches: redis (addr=%s, db=%d)", cfg.RedisAddr, cfg.RedisDB)
		return states, results, codes, nil

	default: // memory
		log.Println("Flow caches: memory (single instance only)")
		return cache.NewMemoryCache[services.PendingAuthState](),
			cache.NewMemoryCache[services.Result](),
			cache.NewMemoryCache[string](),
			nil
	}
}
