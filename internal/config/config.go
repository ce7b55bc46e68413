package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DevJWTSecret is used when JWT_SECRET is unset outside production.
// Anyone who knows it can mint tokens, so production refuses to start without
// an explicit secret.
const DevJWTSecret = "quotation_secret_key"

// Config holds application configuration
type Config struct {
	Port     string
	DBConn   string
	LogLevel string
	AppEnv   string

	JWTSecret    string
	JWTExpiresIn time.Duration
	BcryptCost   int

	DBConnectRetries uint64
	DBHealthInterval time.Duration

	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SenderEmail  string

	// JWTSecretFallback reports whether DevJWTSecret is in use.
	JWTSecretFallback bool
}

// Production reports whether the service runs with APP_ENV=production.
func (c *Config) Production() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// MailEnabled reports whether SMTP settings are present.
func (c *Config) MailEnabled() bool {
	return c.SMTPHost != ""
}

// NewConfig loads configuration from environment variables, reading a .env
// file first when one exists in the working directory.
func NewConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		Port:         getEnv("PORT", "4000"),
		DBConn:       getEnv("DB_CONN", "host=localhost port=5432 user=test password=test dbname=quotation_management sslmode=disable"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		AppEnv:       getEnv("APP_ENV", "development"),
		JWTSecret:    os.Getenv("JWT_SECRET"),
		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnv("SMTP_PORT", "587"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SenderEmail:  getEnv("SENDER_EMAIL", "no-reply@quotation.local"),
	}

	if cfg.DBConn == "" {
		return nil, fmt.Errorf("DB_CONN is required")
	}

	if cfg.JWTSecret == "" {
		if cfg.Production() {
			return nil, fmt.Errorf("JWT_SECRET is required in production")
		}
		cfg.JWTSecret = DevJWTSecret
		cfg.JWTSecretFallback = true
	}

	var err error
	if cfg.JWTExpiresIn, err = ParseExpiry(getEnv("JWT_EXPIRES_IN", "24h")); err != nil {
		return nil, fmt.Errorf("invalid JWT_EXPIRES_IN: %w", err)
	}

	if cfg.BcryptCost, err = strconv.Atoi(getEnv("BCRYPT_COST", "10")); err != nil {
		return nil, fmt.Errorf("invalid BCRYPT_COST: %w", err)
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", cfg.BcryptCost)
	}

	if cfg.DBConnectRetries, err = strconv.ParseUint(getEnv("DB_CONNECT_RETRIES", "5"), 10, 64); err != nil {
		return nil, fmt.Errorf("invalid DB_CONNECT_RETRIES: %w", err)
	}
	if cfg.DBHealthInterval, err = time.ParseDuration(getEnv("DB_HEALTH_INTERVAL", "30s")); err != nil {
		return nil, fmt.Errorf("invalid DB_HEALTH_INTERVAL: %w", err)
	}
	if cfg.DBHealthInterval <= 0 {
		return nil, fmt.Errorf("DB_HEALTH_INTERVAL must be positive")
	}

	return cfg, nil
}

// ParseExpiry accepts Go durations ("24h", "90m"), whole days ("7d") and bare
// seconds ("3600").
func ParseExpiry(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}

	var d time.Duration
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		d = time.Duration(n) * time.Second
	} else if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.ParseInt(days, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("bad day count %q", s)
		}
		d = time.Duration(n) * 24 * time.Hour
	} else {
		d, err = time.ParseDuration(s)
		if err != nil {
			return 0, err
		}
	}

	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive, got %s", s)
	}
	return d, nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}
