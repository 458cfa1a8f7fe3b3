package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Cache backend constants
const (
	CacheTypeMemory = "memory"
	CacheTypeRedis  = "redis"
)

// Rate limit store constants
const (
	RateLimitStoreMemory = "memory"
	RateLimitStoreRedis  = "redis"
)

type Config struct {
	// Server settings
	ServerAddr   string
	BaseURL      string
	FrontendURL  string // SPA origin receiving the temp-token redirect
	IsProduction bool

	// JWT settings
	JWTSecret              string
	JWTExpiration          time.Duration
	RefreshTokenExpiration time.Duration

	// Database
	DatabaseDriver string // "sqlite" or "postgres"
	DatabaseDSN    string
	DBInitTimeout  time.Duration

	// LINE Login channel
	LineLoginChannelID     string
	LineLoginChannelSecret string
	LineLoginCallbackURL   string
	LineLoginScopes        []string

	// LINE Messaging (bot) channel
	LineBotChannelSecret string
	LineBotAccessToken   string

	// Outbound HTTP to the LINE platform
	LineHTTPTimeout            time.Duration
	LineHTTPInsecureSkipVerify bool
	LineHTTPMaxRetries         int
	LineHTTPRetryDelay         time.Duration
	LineHTTPMaxRetryDelay      time.Duration

	// Flow TTLs
	AuthStateTTL         time.Duration // pending authorization state
	TempTokenTTL         time.Duration // relay result entries
	VerificationCodeTTL  time.Duration
	CacheInitTimeout     time.Duration

	// State cache backend
	CacheType     string // "memory" or "redis"
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Rate limiting
	EnableRateLimit          bool
	RateLimitStore           string // "memory" or "redis"
	RateLimitCleanupInterval time.Duration
	LoginURLRateLimit        int
	ExchangeRateLimit        int
	PasswordResetRateLimit   int

	// Metrics
	MetricsEnabled       bool
	MetricsToken         string
	MetricsGaugeInterval time.Duration

	// Seed admin
	DefaultAdminPassword string
}

func Load() *Config {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	// Determine database driver and DSN
	driver := getEnv("DATABASE_DRIVER", "sqlite")
	var dsn string
	if driver == "sqlite" {
		dsn = getEnv("DATABASE_DSN", "pin-server.db")
	} else {
		dsn = getEnv("DATABASE_DSN", "")
	}

	return &Config{
		ServerAddr:   getEnv("SERVER_ADDR", ":8080"),
		BaseURL:      getEnv("BASE_URL", "http://localhost:8080"),
		FrontendURL:  getEnv("FRONTEND_URL", "http://localhost:8000"),
		IsProduction: getEnvBool("PRODUCTION", false),

		JWTSecret:              getEnv("JWT_SECRET", "your-256-bit-secret-change-in-production"),
		JWTExpiration:          getEnvDuration("JWT_EXPIRATION", time.Hour),
		RefreshTokenExpiration: getEnvDuration("REFRESH_TOKEN_EXPIRATION", 720*time.Hour), // 30 days

		DatabaseDriver: driver,
		DatabaseDSN:    dsn,
		DBInitTimeout:  getEnvDuration("DB_INIT_TIMEOUT", 30*time.Second),

		LineLoginChannelID:     getEnv("LINE_LOGIN_CHANNEL_ID", ""),
		LineLoginChannelSecret: getEnv("LINE_LOGIN_CHANNEL_SECRET", ""),
		LineLoginCallbackURL:   getEnv("LINE_LOGIN_CALLBACK_URL", ""),
		LineLoginScopes:        getEnvSlice("LINE_LOGIN_SCOPES", []string{"profile", "openid", "email"}),

		LineBotChannelSecret: getEnv("LINE_BOT_CHANNEL_SECRET", ""),
		LineBotAccessToken:   getEnv("LINE_BOT_ACCESS_TOKEN", ""),

		LineHTTPTimeout:            getEnvDuration("LINE_HTTP_TIMEOUT", 15*time.Second),
		LineHTTPInsecureSkipVerify: getEnvBool("LINE_HTTP_INSECURE_SKIP_VERIFY", false),
		LineHTTPMaxRetries:         getEnvInt("LINE_HTTP_MAX_RETRIES", 3),
		LineHTTPRetryDelay:         getEnvDuration("LINE_HTTP_RETRY_DELAY", 1*time.Second),
		LineHTTPMaxRetryDelay:      getEnvDuration("LINE_HTTP_MAX_RETRY_DELAY", 10*time.Second),

		AuthStateTTL:        getEnvDuration("AUTH_STATE_TTL", 10*time.Minute),
		TempTokenTTL:        getEnvDuration("TEMP_TOKEN_TTL", 5*time.Minute),
		VerificationCodeTTL: getEnvDuration("VERIFICATION_CODE_TTL", 10*time.Minute),
		CacheInitTimeout:    getEnvDuration("CACHE_INIT_TIMEOUT", 10*time.Second),

		CacheType:     getEnv("CACHE_TYPE", CacheTypeMemory),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		EnableRateLimit:          getEnvBool("ENABLE_RATE_LIMIT", true),
		RateLimitStore:           getEnv("RATE_LIMIT_STORE", RateLimitStoreMemory),
		RateLimitCleanupInterval: getEnvDuration("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute),
		LoginURLRateLimit:        getEnvInt("LOGIN_URL_RATE_LIMIT", 30),
		ExchangeRateLimit:        getEnvInt("EXCHANGE_RATE_LIMIT", 60),
		PasswordResetRateLimit:   getEnvInt("PASSWORD_RESET_RATE_LIMIT", 5),

		MetricsEnabled:       getEnvBool("METRICS_ENABLED", false),
		MetricsToken:         getEnv("METRICS_TOKEN", ""),
		MetricsGaugeInterval: getEnvDuration("METRICS_GAUGE_INTERVAL", time.Minute),

		DefaultAdminPassword: getEnv("DEFAULT_ADMIN_PASSWORD", ""),
	}
}

// Validate checks configuration consistency. It returns an error for
// settings that would make the LINE flow unusable rather than merely
// degraded.
func (c *Config) Validate() error {
	if c.LineLoginChannelID == "" || c.LineLoginChannelSecret == "" {
		return fmt.Errorf("config: LINE_LOGIN_CHANNEL_ID and LINE_LOGIN_CHANNEL_SECRET are required")
	}
	if c.LineLoginCallbackURL == "" {
		return fmt.Errorf("config: LINE_LOGIN_CALLBACK_URL is required")
	}
	if c.FrontendURL == "" {
		return fmt.Errorf("config: FRONTEND_URL is required")
	}
	if c.CacheType != CacheTypeMemory && c.CacheType != CacheTypeRedis {
		return fmt.Errorf("config: unsupported CACHE_TYPE %q", c.CacheType)
	}
	if c.CacheType == CacheTypeRedis && c.RedisAddr == "" {
		return fmt.Errorf("config: REDIS_ADDR is required when CACHE_TYPE=redis")
	}
	if c.AuthStateTTL <= 0 || c.TempTokenTTL <= 0 {
		return fmt.Errorf("config: AUTH_STATE_TTL and TEMP_TOKEN_TTL must be positive")
	}
	if c.IsProduction && c.JWTSecret == "your-256-bit-secret-change-in-production" {
		return fmt.Errorf("config: JWT_SECRET must be changed in production")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var i int
		if _, err := fmt.Sscanf(value, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var parts []string
		for _, part := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				parts = append(parts, trimmed)
			}
		}
		if len(parts) > 0 {
			return parts
		}
	}
	return defaultValue
}
