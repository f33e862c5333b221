package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "SMTP_PORT", "WORKERS", "PDF_CACHE_TTL", "LINK_TTL", "INVOICE_PREFIX", "REDIS_ADDR", "NATS_URL"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 587, cfg.SMTPPort)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 24*time.Hour, cfg.PDFCacheTTL)
	assert.Equal(t, "IN", cfg.InvoicePrefix)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, "http://localhost:8080/auth/callback", cfg.OAuthCallbackURL())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("BASE_URL", "https://bills.example.ch")
	t.Setenv("SMTP_PORT", "2525")
	t.Setenv("WORKERS", "8")
	t.Setenv("LINK_TTL", "2h")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 2525, cfg.SMTPPort)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, 2*time.Hour, cfg.LinkTTL)
	assert.Equal(t, "https://bills.example.ch/auth/callback", cfg.OAuthCallbackURL())
}

func TestLoadInvalid(t *testing.T) {
	tests := map[string]string{
		"SMTP_PORT":     "smtp",
		"WORKERS":       "0",
		"PDF_CACHE_TTL": "forever",
	}

	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestValidateServer(t *testing.T) {
	cfg := &Config{
		OIDCIssuerURL:    "https://sso.example.ch/realms/shop",
		OIDCClientID:     "switzbillz",
		OIDCClientSecret: "secret",
		SessionSecret:    "session",
		LinkSigningKey:   "0123456789abcdef0123456789abcdef",
	}
	assert.NoError(t, cfg.ValidateServer())

	cfg.LinkSigningKey = "short"
	assert.EqualError(t, cfg.ValidateServer(), "LINK_SIGNING_KEY must be exactly 32 bytes")

	cfg.SessionSecret = ""
	assert.EqualError(t, cfg.ValidateServer(), "SESSION_SECRET is required")
}
