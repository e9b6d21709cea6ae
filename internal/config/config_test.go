package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ORDER_RATE_LIMIT_COUNT", "")
	t.Setenv("ORDER_RATE_LIMIT_WINDOW_MS", "")
	t.Setenv("TURNSTILE_SITE_KEY", "")
	t.Setenv("IMPORT_AMBIGUOUS_POLICY", "")

	cfg := Load()

	assert.Equal(t, 2, cfg.OrderRateLimitCount)
	assert.Equal(t, 5*time.Minute, cfg.OrderRateLimitWindow)
	assert.Equal(t, TestTurnstileSiteKey, cfg.TurnstileSiteKey)
	assert.Equal(t, "first", cfg.ImportAmbiguousMatch)
	assert.Equal(t, 6*time.Hour, cfg.NovaPoshtaTTL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ORDER_RATE_LIMIT_COUNT", "5")
	t.Setenv("ORDER_RATE_LIMIT_WINDOW_MS", "60000")
	t.Setenv("CORS_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("NP_API_KEY", "")
	t.Setenv("NOVA_POSHTA_KEY", "legacy-key")

	cfg := Load()

	assert.Equal(t, 5, cfg.OrderRateLimitCount)
	assert.Equal(t, time.Minute, cfg.OrderRateLimitWindow)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, "legacy-key", cfg.NovaPoshtaKey)
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("ORDER_RATE_LIMIT_COUNT", "many")

	assert.Equal(t, 2, Load().OrderRateLimitCount)
}

func TestTelegramEnabled(t *testing.T) {
	cfg := &Config{TelegramBotToken: "t"}
	assert.False(t, cfg.TelegramEnabled())

	cfg.TelegramChatID = "42"
	assert.True(t, cfg.TelegramEnabled())
}

func TestEmailEnabled(t *testing.T) {
	cfg := &Config{SESRegion: "eu-central-1", SESAccessKey: "k", SESSecretKey: "s", SESFromEmail: "shop@example.com"}
	assert.False(t, cfg.EmailEnabled(), "no recipients")

	cfg.OrderEmailTo = []string{"owner@example.com"}
	assert.True(t, cfg.EmailEnabled())
}
