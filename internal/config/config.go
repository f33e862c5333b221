package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Server
	Port    string
	BaseURL string
	WebRoot string

	// Shop
	ShopBaseURL   string
	ShopName      string
	InvoicePrefix string

	// Database
	DatabaseURL string

	// OIDC (back office login)
	OIDCIssuerURL    string
	OIDCClientID     string
	OIDCClientSecret string
	AdminRole        string

	// Session
	SessionSecret string

	// SMTP
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	// Redis PDF cache (disabled when RedisAddr is empty)
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	PDFCacheTTL   time.Duration

	// NATS events (disabled when NATSURL is empty)
	NATSURL string

	// Download links
	LinkSigningKey string
	LinkTTL        time.Duration

	// Documents
	TmpDir  string
	Workers int
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		BaseURL:          getEnv("BASE_URL", "http://localhost:8080"),
		WebRoot:          getEnv("WEB_ROOT", "web"),
		ShopBaseURL:      getEnv("SHOP_BASE_URL", "http://localhost"),
		ShopName:         getEnv("SHOP_NAME", "SwitzBillz Shop"),
		InvoicePrefix:    getEnv("INVOICE_PREFIX", "IN"),
		DatabaseURL:      getEnv("DATABASE_URL", "file:./data/switzbillz.db"),
		OIDCIssuerURL:    getEnv("OIDC_ISSUER_URL", ""),
		OIDCClientID:     getEnv("OIDC_CLIENT_ID", ""),
		OIDCClientSecret: getEnv("OIDC_CLIENT_SECRET", ""),
		AdminRole:        getEnv("ADMIN_ROLE", "shop-admin"),
		SessionSecret:    getEnv("SESSION_SECRET", ""),
		SMTPHost:         getEnv("SMTP_HOST", ""),
		SMTPUsername:     getEnv("SMTP_USERNAME", ""),
		SMTPPassword:     getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:         getEnv("SMTP_FROM", "shop@localhost"),
		RedisAddr:        getEnv("REDIS_ADDR", ""),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		NATSURL:          getEnv("NATS_URL", ""),
		LinkSigningKey:   getEnv("LINK_SIGNING_KEY", ""),
		TmpDir:           getEnv("TMP_DIR", os.TempDir()),
	}

	var err error
	if cfg.SMTPPort, err = getEnvInt("SMTP_PORT", 587); err != nil {
		return nil, err
	}
	if cfg.RedisDB, err = getEnvInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.Workers, err = getEnvInt("WORKERS", 4); err != nil {
		return nil, err
	}
	if cfg.PDFCacheTTL, err = getEnvDuration("PDF_CACHE_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.LinkTTL, err = getEnvDuration("LINK_TTL", 30*24*time.Hour); err != nil {
		return nil, err
	}

	if cfg.Workers < 1 {
		return nil, fmt.Errorf("WORKERS must be at least 1")
	}

	return cfg, nil
}

// ValidateServer checks the settings required by the HTTP server.
func (c *Config) ValidateServer() error {
	if c.OIDCIssuerURL == "" {
		return fmt.Errorf("OIDC_ISSUER_URL is required")
	}
	if c.OIDCClientID == "" {
		return fmt.Errorf("OIDC_CLIENT_ID is required")
	}
	if c.OIDCClientSecret == "" {
		return fmt.Errorf("OIDC_CLIENT_SECRET is required")
	}
	if c.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET is required")
	}
	if len(c.LinkSigningKey) != 32 {
		return fmt.Errorf("LINK_SIGNING_KEY must be exactly 32 bytes")
	}
	return nil
}

func (c *Config) OAuthCallbackURL() string {
	return fmt.Sprintf("%s/auth/callback", c.BaseURL)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return d, nil
}
