package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Cloudflare Turnstile test keys; they always pass verification
const (
	TestTurnstileSiteKey   = "1x00000000000000000000AA"
	TestTurnstileSecretKey = "1x0000000000000000000000000000000AA"
)

// Config holds the runtime settings read from the environment
type Config struct {
	Env  string
	Port string

	DatabaseURL string
	DBHost      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBPort      string
	DBSSLMode   string
	DBTimeZone  string

	CORSOrigins []string

	AdminToken     string
	AdminTokenHash string
	JWTSecret      string
	JWTDuration    time.Duration

	OrderRateLimitCount  int
	OrderRateLimitWindow time.Duration
	TurnstileSiteKey     string
	TurnstileSecretKey   string
	TurnstileVerifyURL   string

	TelegramBotToken string
	TelegramChatID   string
	TelegramAPIURL   string

	SESRegion    string
	SESAccessKey string
	SESSecretKey string
	SESFromEmail string
	OrderEmailTo []string

	NovaPoshtaKey    string
	NovaPoshtaAPIURL string
	NovaPoshtaTTL    time.Duration

	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3PublicURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SyncKey              string
	ImportAmbiguousMatch string
}

// Load reads the configuration from environment variables
func Load() *Config {
	return &Config{
		Env:  os.Getenv("ENV"),
		Port: getEnvOrDefault("PORT", "8787"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBHost:      getEnvOrDefault("DB_HOST", "localhost"),
		DBUser:      os.Getenv("DB_USER"),
		DBPassword:  os.Getenv("DB_PASSWORD"),
		DBName:      os.Getenv("DB_NAME"),
		DBPort:      getEnvOrDefault("DB_PORT", "5432"),
		DBSSLMode:   getEnvOrDefault("DB_SSLMODE", "disable"),
		DBTimeZone:  getEnvOrDefault("DB_TIMEZONE", "Europe/Kyiv"),

		CORSOrigins: splitList(os.Getenv("CORS_ORIGINS")),

		AdminToken:     os.Getenv("ADMIN_TOKEN"),
		AdminTokenHash: os.Getenv("ADMIN_TOKEN_HASH"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		JWTDuration:    getDurationOrDefault("JWT_ACCESS_DURATION", 12*time.Hour),

		OrderRateLimitCount:  getIntOrDefault("ORDER_RATE_LIMIT_COUNT", 2),
		OrderRateLimitWindow: time.Duration(getIntOrDefault("ORDER_RATE_LIMIT_WINDOW_MS", 300000)) * time.Millisecond,
		TurnstileSiteKey:     getEnvOrDefault("TURNSTILE_SITE_KEY", TestTurnstileSiteKey),
		TurnstileSecretKey:   getEnvOrDefault("TURNSTILE_SECRET_KEY", TestTurnstileSecretKey),
		TurnstileVerifyURL:   getEnvOrDefault("TURNSTILE_VERIFY_URL", "https://challenges.cloudflare.com/turnstile/v0/siteverify"),

		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:   os.Getenv("TELEGRAM_CHAT_ID"),
		TelegramAPIURL:   getEnvOrDefault("TELEGRAM_API_URL", "https://api.telegram.org"),

		SESRegion:    os.Getenv("AWS_REGION"),
		SESAccessKey: os.Getenv("AWS_ACCESS_KEY_ID"),
		SESSecretKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		SESFromEmail: os.Getenv("SES_FROM_EMAIL"),
		OrderEmailTo: splitList(os.Getenv("ORDER_EMAIL_TO")),

		NovaPoshtaKey:    getEnvOrDefault("NP_API_KEY", os.Getenv("NOVA_POSHTA_KEY")),
		NovaPoshtaAPIURL: getEnvOrDefault("NP_API_URL", "https://api.novaposhta.ua/v2.0/json/"),
		NovaPoshtaTTL:    getDurationOrDefault("NP_CACHE_TTL", 6*time.Hour),

		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3Region:    getEnvOrDefault("S3_REGION", "us-east-1"),
		S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("S3_SECRET_KEY"),
		S3Bucket:    getEnvOrDefault("S3_BUCKET", "product-images"),
		S3PublicURL: os.Getenv("S3_PUBLIC_URL"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getIntOrDefault("REDIS_DB", 0),

		SyncKey:              os.Getenv("SYNC_KEY"),
		ImportAmbiguousMatch: getEnvOrDefault("IMPORT_AMBIGUOUS_POLICY", "first"),
	}
}

// TelegramEnabled reports whether order notifications can be delivered
func (c *Config) TelegramEnabled() bool {
	return c.TelegramBotToken != "" && c.TelegramChatID != ""
}

// EmailEnabled reports whether order summaries can be mailed through SES
func (c *Config) EmailEnabled() bool {
	return c.SESRegion != "" && c.SESAccessKey != "" && c.SESSecretKey != "" &&
		c.SESFromEmail != "" && len(c.OrderEmailTo) > 0
}

// getEnvOrDefault gets an environment variable or returns a default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
