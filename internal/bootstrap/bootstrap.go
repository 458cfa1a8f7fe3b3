package bootstrap

import (
	"context"
	"net/http"

	"github.com/tainyuhu/pin-server/internal/cache"
	"github.com/tainyuhu/pin-server/internal/config"
	"github.com/tainyuhu/pin-server/internal/line"
	"github.com/tainyuhu/pin-server/internal/metrics"
	"github.com/tainyuhu/pin-server/internal/services"
	"github.com/tainyuhu/pin-server/internal/store"

	"github.com/appleboy/graceful"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Application holds all initialized components
type Application struct {
	Config *config.Config

	// Core infrastructure
	DB                   *store.Store
	MetricsRecorder      metrics.Recorder
	RateLimitRedisClient *redis.Client

	// Flow caches (one-time state, relay results, verification codes)
	StateCache  cache.Cache[services.PendingAuthState]
	ResultCache cache.Cache[services.Result]
	CodeCache   cache.Cache[string]

	// LINE platform clients
	LoginClient     *line.LoginClient
	MessagingClient *line.MessagingClient

	// Services
	TokenService     *services.TokenService
	AuthService      *services.AuthService
	LineLoginService *services.LineLoginService
	LineBotService   *services.LineBotService
	PasswordReset    *services.PasswordResetService

	// HTTP
	HandlerSet handlerSet
	Router     *gin.Engine
	Server     *http.Server
}

// Run initializes and starts the application
func Run(cfg *config.Config) error {
	app := &Application{Config: cfg}

	// Phase 1: Validate configuration
	validateAllConfiguration(cfg)

	// Phase 2: Initialize infrastructure
	if err := app.initializeInfrastructure(context.Background()); err != nil {
		return err
	}

	// Phase 3: Initialize business layer
	if err := app.initializeBusinessLayer(); err != nil {
		return err
	}

	// Phase 4: Initialize HTTP layer
	app.initializeHTTPLayer()

	// Phase 5: Start server with graceful shutdown
	app.startWithGracefulShutdown()

	return nil
}

// initializeInfrastructure sets up database, metrics, caches, and Redis
func (app *Application) initializeInfrastructure(ctx context.Context) error {
	var err error

	// Database
	app.DB, err = initializeDatabase(ctx, app.Config)
	if err != nil {
		return err
	}

	// Metrics
	app.MetricsRecorder = initializeMetrics(app.Config)

	// Flow caches
	app.StateCache, app.ResultCache, app.CodeCache, err = initializeFlowCaches(ctx, app.Config)
	if err != nil {
		return err
	}

	// Redis (for rate limiting)
	app.RateLimitRedisClient, err = initializeRateLimitRedisClient(ctx, app.Config)
	if err != nil {
		return err
	}

	return nil
}

// initializeBusinessLayer sets up LINE platform clients and services
func (app *Application) initializeBusinessLayer() error {
	var err error

	app.LoginClient, app.MessagingClient, err = initializeLineClients(app.Config)
	if err != nil {
		return err
	}

	app.TokenService,
		app.AuthService,
		app.LineLoginService,
		app.LineBotService,
		app.PasswordReset = initializeServices(
		app.Config,
		app.DB,
		app.LoginClient,
		app.MessagingClient,
		app.StateCache,
		app.ResultCache,
		app.CodeCache,
		app.MetricsRecorder,
	)
	return nil
}

// initializeHTTPLayer sets up handlers, router, and server
func (app *Application) initializeHTTPLayer() {
	app.HandlerSet = initializeHandlers(
		app.TokenService,
		app.AuthService,
		app.LineLoginService,
		app.LineBotService,
		app.PasswordReset,
		app.MessagingClient,
		app.MetricsRecorder,
	)

	app.Router = setupRouter(
		app.Config,
		app.DB,
		app.HandlerSet,
		app.TokenService,
		app.MetricsRecorder,
		app.RateLimitRedisClient,
	)

	app.Server = createHTTPServer(app.Config, app.Router)
}

// startWithGracefulShutdown starts the server and handles graceful shutdown
func (app *Application) startWithGracefulShutdown() {
	m := graceful.NewManager()

	addServerRunningJob(m, app.Server)
	addServerShutdownJob(m, app.Server)
	addRedisClientShutdownJob(m, app.RateLimitRedisClient)
	addLinkGaugeUpdateJob(m, app.Config, app.DB, app.MetricsRecorder)
	addCacheShutdownJob(m, app.StateCache, app.ResultCache, app.CodeCache)

	<-m.Done()
}
