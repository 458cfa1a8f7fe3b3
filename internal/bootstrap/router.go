package bootstrap

import (
	"log"
	"net/http"

	"github.com/tainyuhu/pin-server/internal/config"
	"github.com/tainyuhu/pin-server/internal/metrics"
	"github.com/tainyuhu/pin-server/internal/middleware"
	"github.com/tainyuhu/pin-server/internal/services"
	"github.com/tainyuhu/pin-server/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// setupRouter configures the Gin router with all routes and middleware
func setupRouter(
	cfg *config.Config,
	db *store.Store,
	h handlerSet,
	tokens *services.TokenService,
	recorder metrics.Recorder,
	rateLimitRedisClient *redis.Client,
) *gin.Engine {
	setupGinMode(cfg)
	r := gin.New()

	r.Use(metrics.HTTPMetricsMiddleware(recorder))
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(middleware.RequestContextMiddleware())

	// Health check endpoint
	r.GET("/health", createHealthCheckHandler(db))

	// Setup metrics endpoint
	setupMetricsEndpoint(r, cfg)

	// Setup rate limiting
	rateLimiters := setupRateLimiting(cfg, rateLimitRedisClient)

	// Setup all routes
	setupAllRoutes(r, h, tokens, rateLimiters)

	logServerStartup(cfg)

	return r
}

// setupMetricsEndpoint configures the Prometheus metrics endpoint
func setupMetricsEndpoint(r *gin.Engine, cfg *config.Config) {
	switch {
	case !cfg.MetricsEnabled:
		log.Printf("Prometheus metrics disabled")
	case cfg.MetricsToken != "":
		log.Printf("Prometheus metrics enabled at /metrics with Bearer token authentication")
		r.GET(
			"/metrics",
			middleware.MetricsAuthMiddleware(cfg.MetricsToken),
			gin.WrapH(promhttp.Handler()),
		)
	default:
		log.Printf("Prometheus metrics enabled at /metrics (no authentication)")
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
}

// setupAllRoutes configures all application routes
func setupAllRoutes(
	r *gin.Engine,
	h handlerSet,
	tokens *services.TokenService,
	rateLimiters rateLimitMiddlewares,
) {
	api := r.Group("/api")

	// Credential auth (JWT issuance and refresh)
	auth := api.Group("/auth")
	{
		auth.POST("/login", h.auth.Login)
		auth.POST("/refresh", h.auth.Refresh)
	}

	// LINE Login flow
	lineGroup := api.Group("/line")
	{
		// Login mode is anonymous; binding mode reads the caller from
		// an optional bearer token.
		lineGroup.GET("/login/url", rateLimiters.loginURL, middleware.OptionalAuth(tokens), h.lineLogin.LoginURL)

		// LINE redirects with GET; some in-app browsers replay as POST.
		lineGroup.GET("/login/callback", h.lineLogin.Callback)
		lineGroup.POST("/login/callback", h.lineLogin.Callback)

		lineGroup.POST("/login/exchange-temp-token", rateLimiters.exchange, h.lineLogin.ExchangeTempToken)

		lineGroup.POST("/login/unbind-account", middleware.RequireAuth(tokens), h.lineLogin.Unbind)
		lineGroup.GET("/bind-status/:id", middleware.RequireAuth(tokens), h.lineLogin.BindStatus)

		if h.webhook != nil {
			lineGroup.POST("/webhook", h.webhook.Receive)
		}
	}

	// Password reset over LINE push messages
	if h.passwordReset != nil {
		reset := api.Group("/password-reset")
		reset.Use(rateLimiters.passwordReset)
		{
			reset.POST("/code", h.passwordReset.RequestCode)
			reset.POST("/verify", h.passwordReset.Verify)
		}
	}
}

// createHealthCheckHandler creates health check endpoint handler
func createHealthCheckHandler(db *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch err := db.Health(); err {
		case nil:
			c.JSON(http.StatusOK, gin.H{
				"status":   "healthy",
				"database": "connected",
			})
		default:
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "disconnected",
			})
		}
	}
}

// setupGinMode sets Gin mode based on environment configuration
func setupGinMode(cfg *config.Config) {
	mode := ginModeMap[cfg.IsProduction]
	gin.SetMode(mode)
	log.Printf("Gin mode: %s", ginModeLogMessage[cfg.IsProduction])
}

var ginModeMap = map[bool]string{
	true:  gin.ReleaseMode,
	false: gin.DebugMode,
}

var ginModeLogMessage = map[bool]string{
	true:  "Release (production)",
	false: "Debug (development)",
}

// logServerStartup logs server startup information
func logServerStartup(cfg *config.Config) {
	log.Printf("LINE integration server starting on %s", cfg.ServerAddr)
	log.Printf("Callback URL: %s", cfg.LineLoginCallbackURL)
	log.Printf("Frontend redirect target: %s", cfg.FrontendURL)
}
