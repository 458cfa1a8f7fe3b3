package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tainyuhu/pin-server/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateMessagingConfig(t *testing.T) {
	assert.NoError(t, validateMessagingConfig(&config.Config{}))
	assert.NoError(t, validateMessagingConfig(&config.Config{
		LineBotChannelSecret: "secret",
		LineBotAccessToken:   "token",
	}))

	err := validateMessagingConfig(&config.Config{LineBotChannelSecret: "secret"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be set together")

	err = validateMessagingConfig(&config.Config{LineBotAccessToken: "token"})
	require.Error(t, err)
}

func TestValidateRateLimitConfig(t *testing.T) {
	assert.NoError(t, validateRateLimitConfig(&config.Config{EnableRateLimit: false}))
	assert.NoError(t, validateRateLimitConfig(&config.Config{
		EnableRateLimit: true,
		RateLimitStore:  config.RateLimitStoreMemory,
	}))
	assert.NoError(t, validateRateLimitConfig(&config.Config{
		EnableRateLimit: true,
		RateLimitStore:  config.RateLimitStoreRedis,
		RedisAddr:       "localhost:6379",
	}))

	err := validateRateLimitConfig(&config.Config{
		EnableRateLimit: true,
		RateLimitStore:  config.RateLimitStoreRedis,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REDIS_ADDR is required")

	err = validateRateLimitConfig(&config.Config{
		EnableRateLimit: true,
		RateLimitStore:  "unknown",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid RATE_LIMIT_STORE")
}

func TestInitializeMetrics(t *testing.T) {
	for _, enabled := range []bool{true, false} {
		cfg := &config.Config{MetricsEnabled: enabled}
		m := initializeMetrics(cfg)
		require.NotNil(t, m)
	}
}

func TestInitializeFlowCachesMemory(t *testing.T) {
	cfg := &config.Config{
		CacheType:        config.CacheTypeMemory,
		CacheInitTimeout: time.Second,
	}
	states, results, codes, err := initializeFlowCaches(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, states)
	require.NotNil(t, results)
	require.NotNil(t, codes)
	_ = states.Close()
	_ = results.Close()
	_ = codes.Close()
}

func TestInitializeRateLimitRedisClientSkipped(t *testing.T) {
	client, err := initializeRateLimitRedisClient(
		context.Background(),
		&config.Config{EnableRateLimit: false},
	)
	require.NoError(t, err)
	assert.Nil(t, client)

	client, err = initializeRateLimitRedisClient(
		context.Background(),
		&config.Config{
			EnableRateLimit: true,
			RateLimitStore:  config.RateLimitStoreMemory,
		},
	)
	require.NoError(t, err)
	assert.Nil(t, client)
}

func TestSetupRateLimitingDisabled(t *testing.T) {
	limiters := setupRateLimiting(&config.Config{EnableRateLimit: false}, nil)
	require.NotNil(t, limiters.loginURL)
	require.NotNil(t, limiters.exchange)
	require.NotNil(t, limiters.passwordReset)

	// Verify noop middlewares don't panic
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	assert.NotPanics(t, func() { limiters.loginURL(c) })
}

func TestSetupRateLimitingMemory(t *testing.T) {
	cfg := &config.Config{
		EnableRateLimit:        true,
		RateLimitStore:         config.RateLimitStoreMemory,
		LoginURLRateLimit:      30,
		ExchangeRateLimit:      60,
		PasswordResetRateLimit: 5,
	}
	limiters := setupRateLimiting(cfg, nil)
	require.NotNil(t, limiters.loginURL)
	require.NotNil(t, limiters.exchange)
	require.NotNil(t, limiters.passwordReset)
}

func TestCreateHTTPServer(t *testing.T) {
	srv := createHTTPServer(
		&config.Config{ServerAddr: ":8080"},
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}),
	)
	require.NotNil(t, srv)
	assert.Equal(t, ":8080", srv.Addr)
}

func TestGinModeMap(t *testing.T) {
	assert.Equal(t, gin.ReleaseMode, ginModeMap[true])
	assert.Equal(t, gin.DebugMode, ginModeMap[false])
}

func TestErrorLogger(t *testing.T) {
	el := newErrorLogger()
	require.NotNil(t, el)
	assert.NotNil(t, el.lastErrorTimes)

	// Both calls should not panic
	assert.NotPanics(t, func() { el.logIfNeeded("test_op", assert.AnError) })
	assert.NotPanics(t, func() { el.logIfNeeded("test_op", assert.AnError) })
}
