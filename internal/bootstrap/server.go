package bootstrap

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/tainyuhu/pin-server/internal/cache"
	"github.com/tainyuhu/pin-server/internal/config"
	"github.com/tainyuhu/pin-server/internal/metrics"
	"github.com/tainyuhu/pin-server/internal/services"
	"github.com/tainyuhu/pin-server/internal/store"

	"github.com/appleboy/graceful"
	"github.com/redis/go-redis/v9"
)

// createHTTPServer creates the HTTP server instance
func createHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// addServerRunningJob adds the HTTP server running job
func addServerRunningJob(m *graceful.Manager, srv *http.Server) {
	m.AddRunningJob(func(ctx context.Context) error {
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("Failed to start server: %v", err)
			}
		}()
		<-ctx.Done()
		return nil
	})
}

// addServerShutdownJob adds HTTP server shutdown handler
func addServerShutdownJob(m *graceful.Manager, srv *http.Server) {
	m.AddShutdownJob(func() error {
		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server forced to shutdown: %v", err)
			return err
		}

		log.Println("Server exited")
		return nil
	})
}

// addRedisClientShutdownJob adds Redis client shutdown handler
func addRedisClientShutdownJob(m *graceful.Manager, redisClient *redis.Client) {
	if redisClient == nil {
		return
	}

	m.AddShutdownJob(func() error {
		log.Println("Closing Redis connection...")
		if err := redisClient.Close(); err != nil {
			log.Printf("Error closing Redis client: %v", err)
			return err
		}
		log.Println("Redis connection closed")
		return nil
	})
}

// addLinkGaugeUpdateJob adds the periodic job feeding the link count gauges
func addLinkGaugeUpdateJob(
	m *graceful.Manager,
	cfg *config.Config,
	db *store.Store,
	recorder metrics.Recorder,
) {
	if !cfg.MetricsEnabled || cfg.MetricsGaugeInterval <= 0 {
		return
	}

	m.AddRunningJob(func(ctx context.Context) error {
		ticker := time.NewTicker(cfg.MetricsGaugeInterval)
		defer ticker.Stop()

		// Update immediately on startup
		updateLinkGauges(db, recorder)

		for {
			select {
			case <-ticker.C:
				updateLinkGauges(db, recorder)
			case <-ctx.Done():
				return nil
			}
		}
	})
}

// addCacheShutdownJob closes the flow caches on shutdown
func addCacheShutdownJob(
	m *graceful.Manager,
	states cache.Cache[services.PendingAuthState],
	results cache.Cache[services.Result],
	codes cache.Cache[string],
) {
	m.AddShutdownJob(func() error {
		for _, closeFn := range []func() error{states.Close, results.Close, codes.Close} {
			if err := closeFn(); err != nil {
				log.Printf("Error closing cache: %v", err)
			}
		}
		log.Println("Flow caches closed")
		return nil
	})
}

// errorLogger handles rate-limited error logging
type errorLogger struct {
	lastErrorTimes  map[string]time.Time
	rateLimitWindow time.Duration
}

// newErrorLogger creates a new error logger with rate limiting
func newErrorLogger() *errorLogger {
	return &errorLogger{
		lastErrorTimes:  make(map[string]time.Time),
		rateLimitWindow: 5 * time.Minute, // Log at most once per 5 minutes per operation
	}
}

// logIfNeeded logs an error only if rate limit allows
func (e *errorLogger) logIfNeeded(operation string, err error) {
	now := time.Now()
	lastTime, exists := e.lastErrorTimes[operation]

	if !exists || now.Sub(lastTime) >= e.rateLimitWindow {
		log.Printf("Database query failed for %s: %v (further errors will be suppressed for %v)",
			operation, err, e.rateLimitWindow)
		e.lastErrorTimes[operation] = now
	}
}

var gaugeErrorLogger = newErrorLogger()

// updateLinkGauges refreshes the active/unbound link row gauges
func updateLinkGauges(db *store.Store, recorder metrics.Recorder) {
	bound, unbound, err := db.CountLineUserLinks()
	if err != nil {
		gaugeErrorLogger.logIfNeeded("count_line_user_links", err)
		return
	}
	recorder.SetLinkCounts(bound, unbound)
}
