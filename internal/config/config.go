// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	// Server Configuration
	GinMode       string        `mapstructure:"GIN_MODE"`
	ServerHost    string        `mapstructure:"SERVER_HOST"`
	ServerPort    string        `mapstructure:"SERVER_PORT"`
	ServerTimeout time.Duration `mapstructure:"SERVER_TIMEOUT_SECONDS"`

	// Database Configuration
	DBDriver          string        `mapstructure:"DB_DRIVER"` // "sqlite" or "postgres"
	DBPath            string        `mapstructure:"DB_PATH"`   // sqlite file path
	DBHost            string        `mapstructure:"DB_HOST"`
	DBPort            string        `mapstructure:"DB_PORT"`
	DBUser            string        `mapstructure:"DB_USER"`
	DBPassword        string        `mapstructure:"DB_PASSWORD"`
	DBName            string        `mapstructure:"DB_NAME"`
	DBSSLMode         string        `mapstructure:"DB_SSL_MODE"`
	DBTimezone        string        `mapstructure:"DB_TIMEZONE"`
	DBMaxIdleConns    int           `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBMaxOpenConns    int           `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBConnMaxLifetime time.Duration `mapstructure:"DB_CONN_MAX_LIFETIME_MINUTES"`

	// Logging Configuration
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	// Upstream marketplace API
	UpstreamBaseURL string        `mapstructure:"UPSTREAM_BASE_URL"`
	UpstreamTimeout time.Duration `mapstructure:"UPSTREAM_TIMEOUT_SECONDS"`

	// Session Configuration
	ClientCookieName string        `mapstructure:"CLIENT_COOKIE_NAME"`
	SessionTTL       time.Duration `mapstructure:"SESSION_TTL_HOURS"`
	NavCacheTTL      time.Duration `mapstructure:"NAV_CACHE_TTL_SECONDS"`

	// Cron Jobs
	SessionSweepSchedule string `mapstructure:"SESSION_SWEEP_SCHEDULE"`

	// CORS
	CORSAllowOrigins []string `mapstructure:"CORS_ALLOW_ORIGINS"`
}

// Load attempts to load configuration from a .env file (if present) and environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	v := viper.New()

	// Set default values
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_TIMEOUT_SECONDS", 30)

	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DB_PATH", "vitrine_sessions.db")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "vitrine_db")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_TIMEZONE", "UTC")
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)
	v.SetDefault("DB_MAX_OPEN_CONNS", 100)
	v.SetDefault("DB_CONN_MAX_LIFETIME_MINUTES", 60)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")

	v.SetDefault("UPSTREAM_BASE_URL", "")
	v.SetDefault("UPSTREAM_TIMEOUT_SECONDS", 15)

	v.SetDefault("CLIENT_COOKIE_NAME", "vitrine_client")
	v.SetDefault("SESSION_TTL_HOURS", 720) // 30 days, mirrors the remembered browser session
	v.SetDefault("NAV_CACHE_TTL_SECONDS", 60)

	v.SetDefault("SESSION_SWEEP_SCHEDULE", "@hourly")

	v.SetDefault("CORS_ALLOW_ORIGINS", "*")

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling configuration: %w", err)
	}

	// Convert duration fields
	cfg.ServerTimeout = time.Duration(v.GetInt("SERVER_TIMEOUT_SECONDS")) * time.Second
	cfg.DBConnMaxLifetime = time.Duration(v.GetInt("DB_CONN_MAX_LIFETIME_MINUTES")) * time.Minute
	cfg.UpstreamTimeout = time.Duration(v.GetInt("UPSTREAM_TIMEOUT_SECONDS")) * time.Second
	cfg.SessionTTL = time.Duration(v.GetInt("SESSION_TTL_HOURS")) * time.Hour
	cfg.NavCacheTTL = time.Duration(v.GetInt("NAV_CACHE_TTL_SECONDS")) * time.Second

	// CORS origins can be a comma separated list in a single env var.
	cfg.CORSAllowOrigins = strings.Split(v.GetString("CORS_ALLOW_ORIGINS"), ",")
	for i := range cfg.CORSAllowOrigins {
		cfg.CORSAllowOrigins[i] = strings.TrimSpace(cfg.CORSAllowOrigins[i])
	}

	// Basic validation for critical configs
	if strings.TrimSpace(cfg.UpstreamBaseURL) == "" {
		return nil, fmt.Errorf("FATAL: UPSTREAM_BASE_URL is not set. The gateway cannot reach the marketplace API without it")
	}
	switch cfg.DBDriver {
	case "sqlite", "postgres":
	default:
		return nil, fmt.Errorf("FATAL: unsupported DB_DRIVER %q (expected sqlite or postgres)", cfg.DBDriver)
	}

	return &cfg, nil
}
