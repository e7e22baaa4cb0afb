package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/fogna/football-stats/db"
	"github.com/joho/godotenv"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseDriver string `env:"DATABASE_DRIVER" envDefault:"sqlite"`
	DatabaseURL    string `env:"DATABASE_URL" envDefault:"file:football_stats.db?_pragma=busy_timeout(5000)"`
	ServerPort     int    `env:"SERVER_PORT" envDefault:"8080"`
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`

	JWTSecretKey  string        `env:"JWT_SECRET_KEY"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"12h"`
	SecureCookies bool          `env:"SECURE_COOKIES" envDefault:"false"`

	// Plain passwords are hashed on startup; *_HASH values are used as-is.
	AdminPassword      string `env:"ADMIN_PASSWORD"`
	AdminPasswordHash  string `env:"ADMIN_PASSWORD_HASH"`
	ViewerPassword     string `env:"VIEWER_PASSWORD"`
	ViewerPasswordHash string `env:"VIEWER_PASSWORD_HASH"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
	MaxUploadMB        int64    `env:"MAX_UPLOAD_MB" envDefault:"32"`

	// Архив загруженных файлов: R2, если заданы ключи, иначе локальная папка.
	ArchiveDir        string `env:"ARCHIVE_DIR" envDefault:"archive"`
	R2AccountID       string `env:"R2_ACCOUNT_ID"`
	R2AccessKeyID     string `env:"R2_ACCESS_KEY_ID"`
	R2SecretAccessKey string `env:"R2_SECRET_ACCESS_KEY"`
	R2BucketName      string `env:"R2_BUCKET_NAME"`
	R2PublicBaseURL   string `env:"R2_PUBLIC_BASE_URL"`
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	// Загружаем .env файл, если он есть. Ошибку не считаем фатальной.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	c.DatabaseDriver = strings.ToLower(strings.TrimSpace(c.DatabaseDriver))
	if c.DatabaseDriver != db.DriverPostgres && c.DatabaseDriver != db.DriverSQLite {
		return fmt.Errorf("DATABASE_DRIVER must be %q or %q, got %q", db.DriverPostgres, db.DriverSQLite, c.DatabaseDriver)
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is not set")
	}
	if c.JWTSecretKey == "" {
		return fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", c.ServerPort)
	}
	if c.AdminPassword == "" && c.AdminPasswordHash == "" {
		return fmt.Errorf("ADMIN_PASSWORD or ADMIN_PASSWORD_HASH must be set")
	}
	if c.ViewerPassword == "" && c.ViewerPasswordHash == "" {
		return fmt.Errorf("VIEWER_PASSWORD or VIEWER_PASSWORD_HASH must be set")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.SessionTTL)
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive, got %d", c.MaxUploadMB)
	}
	return nil
}

// R2Enabled reports whether all Cloudflare R2 settings are present.
func (c *Config) R2Enabled() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2SecretAccessKey != "" &&
		c.R2BucketName != "" && c.R2PublicBaseURL != ""
}

func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
