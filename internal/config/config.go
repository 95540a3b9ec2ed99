// Package config materializes the application configuration from the
// environment, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the full application configuration surface.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Bitrix   BitrixConfig
	Log      LogConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL connection options.
type DatabaseConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

// BitrixConfig holds Bitrix24 portal credentials and the pipeline
// stage constants used by the document lifecycle guard.
type BitrixConfig struct {
	BaseURL      string
	OAuthURL     string
	ClientID     string
	ClientSecret string
	AccessToken  string
	RefreshToken string
	StageNew     string
	StageWon     string
}

// Enabled reports whether the portal integration is configured.
func (c BitrixConfig) Enabled() bool {
	return c.BaseURL != ""
}

// LogConfig holds logging options.
type LogConfig struct {
	Level       string
	Development bool
}

// Load reads environment variables (optionally from the provided
// file) and materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Missing .env files are acceptable when configuration comes
		// from the environment directly.
		_ = godotenv.Load()
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getenvWithDefault("APP_PORT", "8080"),
			ReadTimeout:     getenvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getenvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getenvDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			DSN:             os.Getenv("DATABASE_URL"),
			MaxConns:        int32(getenvInt("DB_MAX_CONNS", 10)),
			MinConns:        int32(getenvInt("DB_MIN_CONNS", 2)),
			MaxConnLifetime: getenvDuration("DB_MAX_CONN_LIFETIME", time.Hour),
		},
		Bitrix: BitrixConfig{
			BaseURL:      os.Getenv("BITRIX_BASE_URL"),
			OAuthURL:     os.Getenv("BITRIX_OAUTH_URL"),
			ClientID:     os.Getenv("BITRIX_CLIENT_ID"),
			ClientSecret: os.Getenv("BITRIX_CLIENT_SECRET"),
			AccessToken:  os.Getenv("BITRIX_ACCESS_TOKEN"),
			RefreshToken: os.Getenv("BITRIX_REFRESH_TOKEN"),
			StageNew:     getenvWithDefault("BITRIX_STAGE_NEW", "C72:NEW"),
			StageWon:     getenvWithDefault("BITRIX_STAGE_WON", "C72:WON"),
		},
		Log: LogConfig{
			Level:       getenvWithDefault("LOG_LEVEL", "info"),
			Development: getenvBool("LOG_DEVELOPMENT", false),
		},
	}

	if cfg.Database.DSN == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func getenvWithDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getenvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getenvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
