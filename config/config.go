package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	OAuth      OAuthConfig
	Cache      CacheConfig
	Market     MarketConfig
	Media      MediaConfig
	Swapuzi    SwapuziConfig
	Firebase   FirebaseConfig
	SMTP       SMTPConfig
	Settlement SettlementConfig
	RateLimit  RateLimitConfig
	CORS       CORSConfig
	Admin      AdminConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	PublicURL    string
	FrontendURL  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	Driver          string // mysql | postgres
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
	Issuer        string
}

type OAuthConfig struct {
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
}

type CacheConfig struct {
	TTL      time.Duration
	Size     int
	RedisURL string // empty keeps the in-process cache
}

type MarketConfig struct {
	BinanceAPIKey    string
	BinanceSecretKey string
	CoinGeckoBaseURL string
	DefaultSymbols   []string
	TickerInterval   string // cron spec for the websocket ticker broadcast
}

type MediaConfig struct {
	Provider   string // cloudinary | s3 | ""
	Cloudinary CloudinaryConfig
	S3         S3Config
}

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
}

type S3Config struct {
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
}

// SwapuziConfig for automatic USDT deposits via the Swapuzi merchant API.
type SwapuziConfig struct {
	BaseURL        string
	Email          string
	Password       string
	WebhookBaseURL string // callback = WebhookBaseURL + /api/webhooks/swapuzi
	WebhookSecret  string // when set, callbacks must carry a valid X-Webhook-Signature
}

type FirebaseConfig struct {
	ServiceAccountPath string
}

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// SettlementConfig controls how admin status changes on transactions are applied.
type SettlementConfig struct {
	// StrictTransitions rejects any status change of a transaction that is no longer PENDING
	// (re-completing a COMPLETED transaction stays a no-op).
	StrictTransitions bool
	// RecheckWithdrawalBalance verifies the locked balance again when a withdrawal is completed.
	RecheckWithdrawalBalance bool
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

type CORSConfig struct {
	AllowedOrigins []string
}

// AdminConfig seeds the first admin account on an empty database.
type AdminConfig struct {
	Email    string
	Password string
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			Env:          getEnv("APP_ENV", "development"),
			PublicURL:    getEnv("PUBLIC_URL", "http://localhost:8080"),
			FrontendURL:  getEnv("FRONTEND_URL", "http://localhost:3000"),
			ReadTimeout:  getEnvAsDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getEnvAsDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			Driver:          getEnv("DB_DRIVER", "mysql"),
			DSN:             getEnv("DB_DSN", "coinvest:coinvest@tcp(localhost:3306)/coinvest?charset=utf8mb4&parseTime=True&loc=UTC"),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", time.Hour),
		},
		JWT: JWTConfig{
			AccessSecret:  getEnv("JWT_ACCESS_SECRET", "change-me-in-production"),
			RefreshSecret: getEnv("JWT_REFRESH_SECRET", "change-me-refresh"),
			AccessExpiry:  getEnvAsDuration("JWT_ACCESS_EXPIRY", 15*time.Minute),
			RefreshExpiry: getEnvAsDuration("JWT_REFRESH_EXPIRY", 168*time.Hour),
			Issuer:        getEnv("JWT_ISSUER", "coinvest"),
		},
		OAuth: OAuthConfig{
			GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
			GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", "http://localhost:8080/api/auth/google/callback"),
		},
		Cache: CacheConfig{
			TTL:      getEnvAsDuration("CACHE_TTL", 5*time.Minute),
			Size:     getEnvAsInt("CACHE_SIZE", 1024),
			RedisURL: getEnv("REDIS_URL", ""),
		},
		Market: MarketConfig{
			BinanceAPIKey:    getEnv("BINANCE_API_KEY", ""),
			BinanceSecretKey: getEnv("BINANCE_SECRET_KEY", ""),
			CoinGeckoBaseURL: getEnv("COINGECKO_BASE_URL", "https://api.coingecko.com/api/v3"),
			DefaultSymbols:   getEnvAsSlice("MARKET_DEFAULT_SYMBOLS", []string{"BTCUSDT", "ETHUSDT", "BNBUSDT", "SOLUSDT", "XRPUSDT"}),
			TickerInterval:   getEnv("MARKET_TICKER_INTERVAL", "@every 1m"),
		},
		Media: MediaConfig{
			Provider: getEnv("MEDIA_PROVIDER", ""),
			Cloudinary: CloudinaryConfig{
				CloudName: getEnv("CLOUDINARY_CLOUD_NAME", ""),
				APIKey:    getEnv("CLOUDINARY_API_KEY", ""),
				APISecret: getEnv("CLOUDINARY_API_SECRET", ""),
			},
			S3: S3Config{
				Region:    getEnv("S3_REGION", "ap-southeast-1"),
				Bucket:    getEnv("S3_BUCKET", ""),
				AccessKey: getEnv("S3_ACCESS_KEY", ""),
				SecretKey: getEnv("S3_SECRET_KEY", ""),
			},
		},
		Swapuzi: SwapuziConfig{
			BaseURL:        getEnv("SWAPUZI_BASE_URL", "https://api.swapuzi.com"),
			Email:          getEnv("SWAPUZI_EMAIL", ""),
			Password:       getEnv("SWAPUZI_PASSWORD", ""),
			WebhookBaseURL: getEnv("SWAPUZI_WEBHOOK_BASE_URL", ""),
			WebhookSecret:  getEnv("SWAPUZI_WEBHOOK_SECRET", ""),
		},
		Firebase: FirebaseConfig{
			ServiceAccountPath: getEnv("FIREBASE_SERVICE_ACCOUNT_PATH", ""),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnvAsInt("SMTP_PORT", 587),
			User:     getEnv("SMTP_USER", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("EMAIL_FROM", "no-reply@coinvest.local"),
		},
		Settlement: SettlementConfig{
			StrictTransitions:        getEnvAsBool("SETTLEMENT_STRICT_TRANSITIONS", true),
			RecheckWithdrawalBalance: getEnvAsBool("SETTLEMENT_RECHECK_WITHDRAWAL_BALANCE", true),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: getEnvAsFloat("RATE_LIMIT_RPS", 5),
			Burst:             getEnvAsInt("RATE_LIMIT_BURST", 20),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Admin: AdminConfig{
			Email:    getEnv("ADMIN_EMAIL", "admin@coinvest.local"),
			Password: getEnv("ADMIN_PASSWORD", ""),
		},
	}
}

// IsProduction reports whether the server runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if val, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return val
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if val, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return val
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if val, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return val
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if val, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return val
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	val := getEnv(key, "")
	if val == "" {
		return defaultValue
	}
	parts := strings.Split(val, ",")
	for i, part := range parts {
		parts[i] = strings.TrimSpace(part)
	}
	return parts
}
